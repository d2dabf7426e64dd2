// Package validation checks tuning values, key bindings, point titles and
// asset locations before they reach the simulation.
package validation

import (
	"errors"
	"fmt"
	"html"
	"math"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Content limits
const (
	MaxKeyNameLen = 32
	MaxTitleLen   = 64
	MaxURLLen     = 2048
)

// Regular expressions for input validation
var (
	// Key names as reported by browsers and engines: letters, digits and a few separators
	validKeyNameChars = regexp.MustCompile(`^[a-z0-9_\-+]+$`)
)

// ValidateKeyName validates and normalizes a key binding name
func ValidateKeyName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("key name cannot be empty")
	}

	if len(name) > MaxKeyNameLen {
		return "", fmt.Errorf("key name too long: %d characters (max %d)", len(name), MaxKeyNameLen)
	}

	if !utf8.ValidString(name) {
		return "", fmt.Errorf("key name contains invalid UTF-8 characters")
	}

	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return "", fmt.Errorf("key name cannot be only whitespace")
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("key name contains control characters")
		}
	}

	if !validKeyNameChars.MatchString(trimmed) {
		return "", fmt.Errorf("key name %q contains invalid characters", trimmed)
	}

	return trimmed, nil
}

// ValidateTitle validates and sanitizes an info point title for display
func ValidateTitle(title string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("title cannot be empty")
	}

	if len(title) > MaxTitleLen {
		return "", fmt.Errorf("title too long: %d characters (max %d)", len(title), MaxTitleLen)
	}

	if !utf8.ValidString(title) {
		return "", fmt.Errorf("title contains invalid UTF-8 characters")
	}

	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", fmt.Errorf("title cannot be only whitespace")
	}

	// Remove control characters
	filtered := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, trimmed)

	// Escape HTML, titles end up in overlays
	return html.EscapeString(filtered), nil
}

// ValidateAssetURL accepts http(s) URLs, file URLs and relative or absolute
// local paths that do not climb out of their root.
func ValidateAssetURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("asset location cannot be empty")
	}
	if len(raw) > MaxURLLen {
		return fmt.Errorf("asset location too long: %d characters (max %d)", len(raw), MaxURLLen)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid asset location %q: %w", raw, err)
	}

	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("asset URL %q has no host", raw)
		}
		return nil
	case "file", "":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		if p == "" {
			return fmt.Errorf("asset location %q has no path", raw)
		}
		for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
			if seg == ".." {
				return fmt.Errorf("asset path %q escapes its root", raw)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported asset scheme %q", u.Scheme)
	}
}

// ValidateFinite rejects NaN and infinities
func ValidateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite, got %v", name, v)
	}
	return nil
}

// ValidatePositive requires v > 0
func ValidatePositive(name string, v float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return err
	}
	if v <= 0 {
		return fmt.Errorf("%s must be positive, got %v", name, v)
	}
	return nil
}

// ValidateNonNegative requires v >= 0
func ValidateNonNegative(name string, v float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%s cannot be negative, got %v", name, v)
	}
	return nil
}

// ValidateFactor requires a per-tick factor in (0, 1]
func ValidateFactor(name string, v float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return err
	}
	if v <= 0 || v > 1 {
		return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
	}
	return nil
}

// ValidateRange requires min <= v <= max
func ValidateRange(name string, v, min, max float64) error {
	if err := ValidateFinite(name, v); err != nil {
		return err
	}
	if v < min || v > max {
		return fmt.Errorf("%s must be in [%v, %v], got %v", name, min, max, v)
	}
	return nil
}

// Collect joins the non-nil errors; it returns nil when all checks passed
func Collect(errs ...error) error {
	return errors.Join(errs...)
}
