package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/safari-blocker-converter/internal/models"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Defaults applied when the config leaves a field empty
const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "safari-blocker-converter/1.0"

	// MaxListSize bounds a single downloaded list
	MaxListSize = 64 << 20
)

// Fetcher downloads filter lists from URLs or reads them from disk
type Fetcher struct {
	client    *http.Client
	fs        afero.Fs
	retries   int
	backoff   time.Duration
	userAgent string
	logger    zerolog.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithFs sets the filesystem local paths are read from
func WithFs(fs afero.Fs) Option {
	return func(f *Fetcher) { f.fs = fs }
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithBackoff sets the base delay between retries
func WithBackoff(d time.Duration) Option {
	return func(f *Fetcher) { f.backoff = d }
}

// WithClient replaces the HTTP client
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// New creates a new fetcher from config
func New(cfg models.HTTPConfig, opts ...Option) *Fetcher {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	f := &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		fs:        afero.NewOsFs(),
		retries:   max(cfg.Retries, 0),
		backoff:   time.Second,
		userAgent: userAgent,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.With().Str("component", "fetcher").Logger()
	return f
}

// Fetch returns the raw content of a source: an http(s) URL, a file://
// URL or a local path
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: empty source", models.ErrInvalidURL)
	}

	if !strings.Contains(source, "://") {
		return f.readFile(source)
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidURL, err)
	}
	switch u.Scheme {
	case "file":
		return f.readFile(u.Path)
	case "http", "https":
		if u.Host == "" {
			return nil, fmt.Errorf("%w: missing host in %s", models.ErrInvalidURL, source)
		}
		return f.fetchURL(ctx, u.String())
	}
	return nil, fmt.Errorf("%w: unsupported scheme %q", models.ErrInvalidURL, u.Scheme)
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	data, err := afero.ReadFile(f.fs, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidURL, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidResponse, err)
	}
	f.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("read local list")
	return data, nil
}

// fetchURL downloads content from a URL, retrying up to f.retries times
// after the first attempt
func (f *Fetcher) fetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for i := 0; i <= f.retries; i++ {
		if i > 0 {
			// Exponential backoff
			delay := f.backoff << (i - 1)
			f.logger.Debug().Str("url", rawURL).Int("attempt", i+1).Dur("delay", delay).Err(lastErr).Msg("retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		data, err := f.doFetch(ctx, rawURL)
		if err == nil {
			f.logger.Debug().Str("url", rawURL).Int("bytes", len(data)).Msg("downloaded")
			return data, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", f.retries+1, lastErr)
}

func (f *Fetcher) doFetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidURL, err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", models.ErrInvalidResponse, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", models.ErrInvalidResponse, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxListSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", models.ErrInvalidResponse, err)
	}
	if len(data) > MaxListSize {
		return nil, fmt.Errorf("%w: list larger than %d bytes", models.ErrInvalidResponse, MaxListSize)
	}
	return data, nil
}
