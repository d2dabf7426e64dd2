package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/qmuntal/gltf"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-drivecam/pkg/event"
	"github.com/opd-ai/go-drivecam/pkg/logging"
)

// Model is a decoded glTF or GLB document
type Model struct {
	Name     string
	Location string
	Document *gltf.Document
}

// ModelStats summarizes a model for logs and the HUD
type ModelStats struct {
	Scenes     int
	Nodes      int
	Meshes     int
	Primitives int
	Materials  int
	Animations int
}

// Stats counts the document's contents
func (m *Model) Stats() ModelStats {
	doc := m.Document
	s := ModelStats{
		Scenes:     len(doc.Scenes),
		Nodes:      len(doc.Nodes),
		Meshes:     len(doc.Meshes),
		Materials:  len(doc.Materials),
		Animations: len(doc.Animations),
	}
	for _, mesh := range doc.Meshes {
		s.Primitives += len(mesh.Primitives)
	}
	return s
}

// Texture is a decoded image
type Texture struct {
	Name     string
	Location string
	Format   string
	Image    image.Image
}

// Size returns the texture dimensions in pixels
func (t *Texture) Size() (width, height int) {
	b := t.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Progress reports how many of a batch have finished loading
type Progress struct {
	Name    string
	Loaded  int
	Total   int
	Percent float64
}

// Bundle holds everything loaded at startup
type Bundle struct {
	Models   map[string]*Model
	Textures map[string]*Texture
}

// Loader decodes models and textures fetched through a FetchService
type Loader struct {
	fetch       *FetchService
	logger      *logging.Logger
	bus         *event.Bus
	baseURL     string
	parallelism int
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithBaseURL resolves relative locations against base
func WithBaseURL(base string) LoaderOption {
	return func(l *Loader) { l.baseURL = base }
}

// WithEventBus publishes AssetLoaded and AssetLoadFailed events on bus
func WithEventBus(bus *event.Bus) LoaderOption {
	return func(l *Loader) { l.bus = bus }
}

// WithParallelism bounds concurrent loads in a batch
func WithParallelism(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.parallelism = n
		}
	}
}

// NewLoader creates a loader. A nil fetch service gets the default policy.
func NewLoader(fetch *FetchService, logger *logging.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = logging.NewLogger()
	}
	if fetch == nil {
		fetch = NewFetchService(DefaultFetchSettings(), nil, logger)
	}
	l := &Loader{
		fetch:       fetch,
		logger:      logger.WithComponent("assets"),
		parallelism: 4,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadModel fetches and decodes a glTF (.gltf) or binary glTF (.glb) model.
// External buffers and images are resolved relative to the model's location.
func (l *Loader) LoadModel(ctx context.Context, location string) (*Model, error) {
	return l.loadModel(ctx, baseName(location), location)
}

func (l *Loader) loadModel(ctx context.Context, name, location string) (*Model, error) {
	model, err := l.decodeModel(ctx, name, Resolve(l.baseURL, location))
	l.report(ctx, name, location, err)
	if err != nil {
		return nil, logging.WrapError(err, "failed to load model %q", location)
	}
	return model, nil
}

func (l *Loader) decodeModel(ctx context.Context, name, location string) (*Model, error) {
	if err := checkModelExt(location); err != nil {
		return nil, err
	}

	data, err := l.fetch.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	if !looksLikeGLTF(data) {
		return nil, fmt.Errorf("%w: not a glTF document", ErrUnsupportedFormat)
	}

	doc := new(gltf.Document)
	dec := gltf.NewDecoderFS(bytes.NewReader(data), l.resourceFS(ctx, location))
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode glTF: %w", err)
	}

	return &Model{Name: name, Location: location, Document: doc}, nil
}

// LoadTexture fetches and decodes a PNG, JPEG, GIF, BMP or WebP image
func (l *Loader) LoadTexture(ctx context.Context, location string) (*Texture, error) {
	return l.loadTexture(ctx, baseName(location), location)
}

func (l *Loader) loadTexture(ctx context.Context, name, location string) (*Texture, error) {
	tex, err := l.decodeTexture(ctx, name, Resolve(l.baseURL, location))
	l.report(ctx, name, location, err)
	if err != nil {
		return nil, logging.WrapError(err, "failed to load texture %q", location)
	}
	return tex, nil
}

func (l *Loader) decodeTexture(ctx context.Context, name, location string) (*Texture, error) {
	data, err := l.fetch.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &Texture{Name: name, Location: location, Format: format, Image: img}, nil
}

// LoadModels loads named models in parallel. onProgress, if set, is called
// once per finished model, never concurrently. The first failure cancels the
// remaining loads and is returned.
func (l *Loader) LoadModels(ctx context.Context, models map[string]string, onProgress func(Progress)) (map[string]*Model, error) {
	return loadAll(ctx, l.parallelism, models, l.loadModel, onProgress)
}

// LoadTextures loads named textures in parallel, like LoadModels
func (l *Loader) LoadTextures(ctx context.Context, textures map[string]string, onProgress func(Progress)) (map[string]*Texture, error) {
	return loadAll(ctx, l.parallelism, textures, l.loadTexture, onProgress)
}

// LoadBundle loads models and then textures, reporting progress across both
func (l *Loader) LoadBundle(ctx context.Context, models, textures map[string]string, onProgress func(Progress)) (*Bundle, error) {
	total := len(models) + len(textures)
	offset := 0
	relay := func(p Progress) {
		if onProgress == nil {
			return
		}
		loaded := offset + p.Loaded
		onProgress(Progress{Name: p.Name, Loaded: loaded, Total: total, Percent: percent(loaded, total)})
	}

	m, err := l.LoadModels(ctx, models, relay)
	if err != nil {
		return nil, err
	}
	offset = len(models)
	t, err := l.LoadTextures(ctx, textures, relay)
	if err != nil {
		return nil, err
	}
	return &Bundle{Models: m, Textures: t}, nil
}

func loadAll[T any](ctx context.Context, parallelism int, items map[string]string,
	load func(context.Context, string, string) (T, error), onProgress func(Progress)) (map[string]T, error) {

	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	results := make(map[string]T, len(items))
	loaded := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, name := range names {
		location := items[name]
		g.Go(func() error {
			v, err := load(gctx, name, location)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			results[name] = v
			loaded++
			if onProgress != nil {
				onProgress(Progress{Name: name, Loaded: loaded, Total: len(items), Percent: percent(loaded, len(items))})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func percent(loaded, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(loaded) / float64(total) * 100
}

func (l *Loader) report(ctx context.Context, name, location string, err error) {
	if err != nil {
		l.logger.Error(ctx, "asset load failed", err, "asset", name, "location", location)
	} else {
		l.logger.Debug(ctx, "asset loaded", "asset", name, "location", location)
	}
	if l.bus != nil {
		l.bus.Publish(event.NewAssetEvent(l, name, location, err))
	}
}

// resourceFS resolves a model's external buffers and images next to it
func (l *Loader) resourceFS(ctx context.Context, location string) fs.FS {
	u, err := url.Parse(location)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return &remoteFS{ctx: ctx, base: u.ResolveReference(&url.URL{Path: "./"}).String(), fetch: l.fetch}
	}
	p := location
	if err == nil && u.Scheme == "file" {
		p = u.Path
	}
	return os.DirFS(filepath.Dir(filepath.FromSlash(p)))
}

func checkModelExt(location string) error {
	p := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".gltf", ".glb", "":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path.Ext(p))
	}
}

func looksLikeGLTF(data []byte) bool {
	if bytes.HasPrefix(data, []byte("glTF")) {
		return true
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	return bytes.HasPrefix(trimmed, []byte("{"))
}

func baseName(location string) string {
	p := location
	if u, err := url.Parse(location); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(filepath.ToSlash(p))
	return strings.TrimSuffix(base, path.Ext(base))
}
