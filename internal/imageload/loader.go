// Package imageload turns a URL or an uploaded buffer into a decoded image.
// Nothing is cached and nothing is retried.
package imageload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Brownie44l1/classify-api/internal/errs"
	"github.com/Brownie44l1/classify-api/internal/logging"
)

// Image is a decoded image and the format it was decoded from.
type Image struct {
	image.Image
	Format string
	Size   int
}

// DefaultMaxPixels bounds the decoded size of an image when Options.MaxPixels
// is zero. 40 megapixels decode to at most 160 MB of RGBA.
const DefaultMaxPixels = 40_000_000

// ObjectGetter reads objects from an S3-compatible store.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Options configures a Loader.
type Options struct {
	// Client performs URL fetches. Defaults to a client with Timeout.
	Client *http.Client
	// Timeout bounds one fetch. Zero means no deadline.
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
	// MaxPixels rejects images whose width*height exceeds it before any
	// pixel data is decoded. Zero selects DefaultMaxPixels.
	MaxPixels int64
	// Objects serves s3://bucket/key URLs. Nil disables them.
	Objects ObjectGetter
	Logger  logging.Logger
}

// Loader resolves images. It is safe for concurrent use.
type Loader struct {
	client    *http.Client
	timeout   time.Duration
	maxBytes  int64
	maxPixels int64
	userAgent string
	objects   ObjectGetter
	logger    logging.Logger
}

// New returns a Loader.
func New(opts Options) *Loader {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Loader{
		client:    client,
		timeout:   opts.Timeout,
		maxBytes:  opts.MaxBytes,
		maxPixels: opts.MaxPixels,
		userAgent: opts.UserAgent,
		objects:   opts.Objects,
		logger:    logger.Named("imageload"),
	}
}

// FromURL fetches rawURL and decodes the body. http and https URLs are
// fetched with GET; s3://bucket/key URLs are read from the object store.
// Transport failures and non-2xx statuses are Fetch errors, undecodable
// bodies are Decode errors.
func (l *Loader) FromURL(ctx context.Context, rawURL string) (*Image, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errs.New(errs.InvalidInput, "url parameter is required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "invalid url")
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var body []byte
	switch u.Scheme {
	case "http", "https":
		body, err = l.fetchHTTP(ctx, u)
	case "s3":
		body, err = l.fetchObject(ctx, u)
	default:
		return nil, errs.New(errs.InvalidInput, "unsupported url scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Debug("fetched image", logging.String("url", u.Redacted()), logging.Int("bytes", len(body)))
	return l.FromBytes(body)
}

func (l *Loader) fetchHTTP(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errs.Wrap(err, errs.InvalidInput, "build request")
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errs.Wrap(err, errs.Fetch, "fetch %s", u.Redacted())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.New(errs.Fetch, "fetch %s: bad status: %s", u.Redacted(), resp.Status)
	}
	return l.readAll(resp.Body, u.Redacted())
}

func (l *Loader) fetchObject(ctx context.Context, u *url.URL) ([]byte, error) {
	if l.objects == nil {
		return nil, errs.New(errs.InvalidInput, "s3 urls are not enabled")
	}
	bucket, key := u.Host, strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, errs.New(errs.InvalidInput, "s3 url must look like s3://bucket/key")
	}

	rc, err := l.objects.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, errs.Wrap(err, errs.Fetch, "get object %s/%s", bucket, key)
	}
	defer rc.Close()
	return l.readAll(rc, u.String())
}

func (l *Loader) readAll(r io.Reader, source string) ([]byte, error) {
	if l.maxBytes > 0 {
		r = io.LimitReader(r, l.maxBytes+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.Wrap(err, errs.Fetch, "read %s", source)
	}
	if l.maxBytes > 0 && int64(len(body)) > l.maxBytes {
		return nil, errs.New(errs.Fetch, "%s exceeds %d bytes", source, l.maxBytes)
	}
	return body, nil
}

// FromBytes decodes buf. Malformed data and images larger than the pixel
// limit are Decode errors.
func (l *Loader) FromBytes(buf []byte) (*Image, error) {
	if len(buf) == 0 {
		return nil, errs.New(errs.Decode, "image is empty")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, errs.Wrap(err, errs.Decode, "decode image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errs.New(errs.Decode, "image has no pixels")
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > l.maxPixels {
		return nil, errs.New(errs.Decode, "image is %dx%d, limit is %d pixels", cfg.Width, cfg.Height, l.maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, errs.Wrap(err, errs.Decode, "decode image")
	}
	return &Image{Image: img, Format: format, Size: len(buf)}, nil
}

// String describes the image for logs.
func (i *Image) String() string {
	b := i.Bounds()
	return fmt.Sprintf("%s %dx%d", i.Format, b.Dx(), b.Dy())
}
