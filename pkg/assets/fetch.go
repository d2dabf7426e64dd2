// Package assets loads models and textures for the playground. Fetches go
// through a circuit breaker with bounded retry so a dead asset host degrades
// to a neutral scene instead of stalling startup.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-drivecam/pkg/logging"
)

// MaxAssetSize bounds a single fetched asset
const MaxAssetSize = 64 << 20

// Errors returned by the loader; they are wrapped with the asset location
var (
	ErrNotFound          = errors.New("asset not found")
	ErrUnsupportedFormat = errors.New("unsupported asset format")
	ErrTooLarge          = errors.New("asset too large")
)

// FetchSettings configures the breaker and retry policy
type FetchSettings struct {
	MaxRequests            uint32        // requests let through while half-open
	Interval               time.Duration // closed-state count reset period; 0 never resets
	Timeout                time.Duration // open-state duration before probing again
	MaxConsecutiveFailures uint32
	MaxRetries             int
	BaseDelay              time.Duration
	RequestTimeout         time.Duration
}

// DefaultFetchSettings returns the startup policy
func DefaultFetchSettings() FetchSettings {
	return FetchSettings{
		MaxRequests:            1,
		Interval:               time.Minute,
		Timeout:                30 * time.Second,
		MaxConsecutiveFailures: 5,
		MaxRetries:             3,
		BaseDelay:              500 * time.Millisecond,
		RequestTimeout:         10 * time.Second,
	}
}

// Operation is a fetch attempt. It should return an error if the attempt fails.
type Operation func() error

// FetchService reads asset bytes from HTTP(S) or the local filesystem with
// circuit breaker protection, retry logic and linear backoff.
type FetchService struct {
	breaker  *gobreaker.CircuitBreaker
	logger   *logging.Logger
	client   *http.Client
	settings FetchSettings
}

// NewFetchService creates a fetch service. A nil client gets one with the
// configured request timeout.
func NewFetchService(settings FetchSettings, client *http.Client, logger *logging.Logger) *FetchService {
	if logger == nil {
		logger = logging.NewLogger()
	}
	logger = logger.WithComponent("assets")
	if client == nil {
		client = &http.Client{Timeout: settings.RequestTimeout}
	}

	breakerSettings := gobreaker.Settings{
		Name:        "drivecam-assets",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip the circuit if we have too many consecutive failures
			return counts.ConsecutiveFailures >= settings.MaxConsecutiveFailures
		},
		// a missing or malformed asset says nothing about the host's health,
		// and neither does a load cancelled by the caller or a failing sibling
		IsSuccessful: func(err error) bool {
			return err == nil || isPermanent(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info(context.Background(), "circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &FetchService{
		breaker:  gobreaker.NewCircuitBreaker(breakerSettings),
		logger:   logger,
		client:   client,
		settings: settings,
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupportedFormat) || errors.Is(err, ErrTooLarge)
}

// Execute runs an operation through the circuit breaker.
// If the circuit is open it returns an error immediately.
func (fs *FetchService) Execute(ctx context.Context, operation Operation) error {
	_, err := fs.breaker.Execute(func() (interface{}, error) {
		return nil, operation()
	})
	if err != nil {
		fs.logger.LogWithContext(ctx, slog.LevelDebug, "fetch attempt failed",
			"error", err.Error(),
			"state", fs.breaker.State().String(),
		)
		return fmt.Errorf("circuit breaker: %w", err)
	}

	return nil
}

// ExecuteWithRetry runs an operation with retry logic and linear backoff.
// Permanent failures (missing asset, unsupported format) are not retried, and
// neither is anything once the circuit is open.
func (fs *FetchService) ExecuteWithRetry(ctx context.Context, operation Operation) error {
	maxRetries := fs.settings.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fs.Execute(ctx, operation)
		if err == nil {
			return nil
		}

		if isPermanent(err) || errors.Is(err, context.Canceled) {
			return err
		}

		if fs.breaker.State() == gobreaker.StateOpen {
			fs.logger.Warn(ctx, "circuit breaker is open, skipping retries",
				"attempt", attempt+1,
				"max_retries", maxRetries,
			)
			return err
		}

		if attempt == maxRetries-1 {
			return fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, err)
		}

		delay := time.Duration(attempt+1) * fs.settings.BaseDelay
		fs.logger.Warn(ctx, "fetch failed, retrying",
			"attempt", attempt+1,
			"max_retries", maxRetries,
			"delay", delay.String(),
			"error", err.Error(),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("unexpected exit from retry loop")
}

// Fetch returns the bytes at location: an http(s) URL, a file URL or a local path
func (fs *FetchService) Fetch(ctx context.Context, location string) ([]byte, error) {
	var data []byte
	err := fs.ExecuteWithRetry(ctx, func() error {
		var err error
		data, err = fs.fetchOnce(ctx, location)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (fs *FetchService) fetchOnce(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid asset location: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		return fs.fetchHTTP(ctx, u.String())
	case "file":
		return readFile(u.Path)
	case "":
		return readFile(location)
	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedFormat, u.Scheme)
	}
}

func (fs *FetchService) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := fs.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return readLimited(resp.Body)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(filepath.FromSlash(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAssetSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxAssetSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Resolve joins a relative location onto base. Absolute URLs and paths are returned as is.
func Resolve(base, location string) string {
	if base == "" {
		return location
	}
	if u, err := url.Parse(location); err == nil && u.Scheme != "" {
		return location
	}
	if filepath.IsAbs(location) || strings.HasPrefix(location, "/") {
		return location
	}

	if b, err := url.Parse(base); err == nil && (b.Scheme == "http" || b.Scheme == "https" || b.Scheme == "file") {
		if !strings.HasSuffix(b.Path, "/") {
			b.Path += "/"
		}
		ref, err := url.Parse(location)
		if err != nil {
			return location
		}
		return b.ResolveReference(ref).String()
	}
	return filepath.Join(base, location)
}

// GetState returns the current state of the circuit breaker.
func (fs *FetchService) GetState() gobreaker.State {
	return fs.breaker.State()
}

// GetCounts returns the current failure/success counts of the circuit breaker.
func (fs *FetchService) GetCounts() gobreaker.Counts {
	return fs.breaker.Counts()
}
