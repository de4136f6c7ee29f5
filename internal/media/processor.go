package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Vicae-a/Blog/internal/metrics"
)

// DefaultPrefix is the key prefix for post images.
const DefaultPrefix = "posts"

// Options configures a Processor.
type Options struct {
	MaxBytes int64
	// MaxEdge bounds the longest image edge in pixels. Zero disables resizing.
	MaxEdge int
	Prefix  string
	// PublicBaseURL is prepended to keys when building image URLs.
	PublicBaseURL string
}

// Enqueuer receives keys whose deletion failed so they can be retried later.
type Enqueuer interface {
	Enqueue(ctx context.Context, key string) error
}

// Processor turns uploads into stored objects.
type Processor struct {
	store    Store
	opts     Options
	resize   ResizeFunc
	cleanup  Enqueuer
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// ProcessorOption customizes a Processor.
type ProcessorOption func(*Processor)

// WithResizer replaces the resize function.
func WithResizer(fn ResizeFunc) ProcessorOption {
	return func(p *Processor) { p.resize = fn }
}

// WithCleanup routes failed deletes to an Enqueuer.
func WithCleanup(e Enqueuer) ProcessorOption {
	return func(p *Processor) { p.cleanup = e }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) ProcessorOption {
	return func(p *Processor) { p.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithClock overrides the time source used for key names.
func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

// NewProcessor creates a Processor backed by store.
func NewProcessor(store Store, opts Options, options ...ProcessorOption) *Processor {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	p := &Processor{
		store:    store,
		opts:     opts,
		resize:   Resize,
		recorder: metrics.NewNoop(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// MaxBytes returns the configured upload limit.
func (p *Processor) MaxBytes() int64 {
	return p.opts.MaxBytes
}

// Read validates an upload against the configured limit.
func (p *Processor) Read(r io.Reader, filename string) (*Upload, error) {
	return ReadUpload(r, filename, p.opts.MaxBytes)
}

// Save stores the upload and returns its key. A failed resize stores the
// original bytes instead; only storage failures are returned.
func (p *Processor) Save(ctx context.Context, up *Upload) (string, error) {
	data := up.Data

	if p.opts.MaxEdge > 0 {
		resized, err := p.resize(up.Data, up.ContentType, p.opts.MaxEdge)
		switch {
		case errors.Is(err, ErrAnimatedGIF), errors.Is(err, ErrTooManyPixels):
			p.recorder.IncImageResize(metrics.OutcomeSkipped)
		case err != nil:
			p.logger.Warn("image resize failed, storing original",
				slog.String("filename", up.Filename),
				slog.String("error", err.Error()),
			)
			p.recorder.IncImageResize(metrics.OutcomeFailed)
		default:
			data = resized
			p.recorder.IncImageResize(metrics.OutcomeSuccess)
		}
	}

	key := ObjectKey(p.opts.Prefix, up.Filename, up.ContentType, p.now())
	if err := p.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), up.ContentType); err != nil {
		p.recorder.IncImageStored(metrics.OutcomeFailed)
		return "", fmt.Errorf("store image: %w", err)
	}

	p.recorder.IncImageStored(metrics.OutcomeSuccess)
	return key, nil
}

// Delete removes a stored image.
func (p *Processor) Delete(ctx context.Context, key string) error {
	return p.store.Delete(ctx, key)
}

// Discard deletes key without reporting failure to the caller. Failed deletes
// are logged and handed to the cleanup queue when one is configured.
func (p *Processor) Discard(ctx context.Context, key string) {
	if key == "" {
		return
	}

	err := p.store.Delete(ctx, key)
	if err == nil {
		p.recorder.IncImageCleanup(metrics.OutcomeSuccess)
		return
	}

	p.logger.Warn("image delete failed",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)

	if p.cleanup == nil {
		p.recorder.IncImageCleanup(metrics.OutcomeDropped)
		return
	}
	if err := p.cleanup.Enqueue(ctx, key); err != nil {
		p.logger.Error("image cleanup enqueue failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		p.recorder.IncImageCleanup(metrics.OutcomeDropped)
		return
	}
	p.recorder.IncImageCleanup(metrics.OutcomeEnqueued)
}

// Open returns a reader for a stored image.
func (p *Processor) Open(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	return p.store.Get(ctx, key)
}

// Ping checks the backing store.
func (p *Processor) Ping(ctx context.Context) error {
	return p.store.Ping(ctx)
}

// PublicURL builds the URL clients use to fetch key.
func (p *Processor) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	base := strings.TrimRight(p.opts.PublicBaseURL, "/")
	if base == "" {
		return "/storage/" + key
	}
	return base + "/" + key
}
