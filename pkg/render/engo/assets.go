// pkg/render/engo/assets.go
package engo

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/EngoEngine/engo/common"
)

// Sprite names
const (
	SpriteCar          = "car"
	SpritePoint        = "point"
	SpriteDiscovered   = "discovered"
	SpriteCameraMarker = "camera"
	SpriteGround       = "ground"
)

// AssetManager builds the sprites the playground is drawn with. Images are
// generated procedurally and can be replaced by loaded textures; LoadAssets
// uploads them and needs a live GL context.
type AssetManager struct {
	images   map[string]*image.NRGBA
	drawable map[string]common.Drawable
}

// NewAssetManager creates an asset manager with the built-in sprites
func NewAssetManager() *AssetManager {
	am := &AssetManager{
		images:   make(map[string]*image.NRGBA),
		drawable: make(map[string]common.Drawable),
	}
	am.buildImages()
	return am
}

func (am *AssetManager) buildImages() {
	// Car: arrow pointing toward the top of the sprite
	am.images[SpriteCar] = am.createSprite(12, 16, [][]int{
		{0, 0, 0, 0, 0, 1, 1, 0, 0, 0, 0, 0},
		{0, 0, 0, 0, 1, 1, 1, 1, 0, 0, 0, 0},
		{0, 0, 0, 1, 1, 1, 1, 1, 1, 0, 0, 0},
		{0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 0, 0},
		{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
		{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
		{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
		{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
		{0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 0},
		{0, 1, 1, 0, 0, 0, 0, 0, 0, 1, 1, 0},
		{0, 1, 1, 0, 0, 0, 0, 0, 0, 1, 1, 0},
	}, color.NRGBA{220, 40, 40, 255})

	ring := [][]int{
		{0, 0, 0, 1, 1, 1, 1, 1, 1, 0, 0, 0},
		{0, 0, 1, 1, 0, 0, 0, 0, 1, 1, 0, 0},
		{0, 1, 1, 0, 0, 0, 0, 0, 0, 1, 1, 0},
		{1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1},
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1},
		{1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1},
		{0, 1, 1, 0, 0, 0, 0, 0, 0, 1, 1, 0},
		{0, 0, 1, 1, 0, 0, 0, 0, 1, 1, 0, 0},
		{0, 0, 0, 1, 1, 1, 1, 1, 1, 0, 0, 0},
	}
	am.images[SpritePoint] = am.createSprite(12, 12, ring, color.NRGBA{255, 200, 0, 255})
	am.images[SpriteDiscovered] = am.createSprite(12, 12, fill(ring), color.NRGBA{60, 200, 90, 255})

	am.images[SpriteCameraMarker] = am.createSprite(6, 6, [][]int{
		{1, 1, 1, 1, 1, 1},
		{1, 0, 0, 0, 0, 1},
		{1, 0, 1, 1, 0, 1},
		{1, 0, 1, 1, 0, 1},
		{1, 0, 0, 0, 0, 1},
		{1, 1, 1, 1, 1, 1},
	}, color.NRGBA{120, 180, 255, 255})

	// Ground: checkered tile
	ground := make([][]int, 16)
	for y := range ground {
		ground[y] = make([]int, 16)
		for x := range ground[y] {
			if (x/8+y/8)%2 == 0 {
				ground[y][x] = 1
			}
		}
	}
	am.images[SpriteGround] = am.createSprite(16, 16, ground, color.NRGBA{70, 110, 60, 255})
}

// fill closes each row of an outline between its first and last set pixel
func fill(pattern [][]int) [][]int {
	out := make([][]int, len(pattern))
	for y, row := range pattern {
		out[y] = make([]int, len(row))
		first, last := -1, -1
		for x, v := range row {
			if v == 1 {
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		for x := first; x >= 0 && x <= last; x++ {
			out[y][x] = 1
		}
	}
	return out
}

// createSprite draws a pattern onto a transparent image
func (am *AssetManager) createSprite(width, height int, pattern [][]int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	for y, row := range pattern {
		if y >= height {
			break
		}
		for x, pixel := range row {
			if x >= width {
				break
			}
			if pixel == 1 {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	return img
}

// UseImage replaces a sprite with a loaded texture
func (am *AssetManager) UseImage(name string, img image.Image) {
	if img == nil {
		return
	}
	if n, ok := img.(*image.NRGBA); ok {
		am.images[name] = n
	} else {
		b := img.Bounds()
		n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
		am.images[name] = n
	}
	delete(am.drawable, name)
}

// Image returns the source image of a sprite
func (am *AssetManager) Image(name string) (*image.NRGBA, bool) {
	img, ok := am.images[name]
	return img, ok
}

// LoadAssets uploads every sprite as a texture
func (am *AssetManager) LoadAssets() error {
	for name, img := range am.images {
		if _, ok := am.drawable[name]; ok {
			continue
		}
		am.drawable[name] = common.NewTextureSingle(common.NewImageObject(img))
	}
	return nil
}

// Sprite returns the uploaded texture, or nil before LoadAssets
func (am *AssetManager) Sprite(name string) common.Drawable {
	return am.drawable[name]
}
