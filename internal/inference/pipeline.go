// Package inference runs a decoded image through the model and ranks the
// result.
package inference

import (
	"context"
	"image"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Brownie44l1/classify-api/internal/errs"
	"github.com/Brownie44l1/classify-api/internal/logging"
	"github.com/Brownie44l1/classify-api/internal/metrics"
	"github.com/Brownie44l1/classify-api/internal/model"
)

// DefaultTopN is the number of predictions returned when none is requested.
const DefaultTopN = 3

// Options configures a Pipeline.
type Options struct {
	// TopN is used when Classify is called with n <= 0.
	TopN int
	// MaxConcurrent bounds the number of images scored at once. Zero means
	// unbounded; the scorer may still queue internally.
	MaxConcurrent int
	Metrics       *metrics.Metrics
	Logger        logging.Logger
}

// Pipeline is safe for concurrent use; it holds no per-request state.
type Pipeline struct {
	handle  *model.Handle
	topN    int
	sem     *semaphore.Weighted
	metrics *metrics.Metrics
	logger  logging.Logger
}

func New(handle *model.Handle, opts Options) *Pipeline {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	p := &Pipeline{
		handle:  handle,
		topN:    opts.TopN,
		metrics: opts.Metrics,
		logger:  opts.Logger.Named("inference"),
	}
	if opts.MaxConcurrent > 0 {
		p.sem = semaphore.NewWeighted(int64(opts.MaxConcurrent))
	}
	return p
}

// TopN returns the default number of predictions.
func (p *Pipeline) TopN() int { return p.topN }

// Classify scores img and returns the n best predictions, or TopN when n
// is not positive. It either returns a complete Result or an error.
func (p *Pipeline) Classify(ctx context.Context, img image.Image, n int) (*Result, error) {
	if img == nil {
		return nil, errs.New(errs.InvalidInput, "no image")
	}
	if n <= 0 {
		n = p.topN
	}

	if p.sem != nil {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return nil, errs.Wrap(err, errs.Internal, "wait for inference slot")
		}
		defer p.sem.Release(1)
	}

	start := time.Now()
	done := p.metrics.TrackInference()
	scores, err := p.handle.Score(ctx, img)
	done()
	if err != nil {
		return nil, err
	}

	res, err := Rank(p.handle.Vocabulary().Labels(), scores, n)
	if err != nil {
		p.logger.Warn("ranking failed", logging.Err(err))
		return nil, err
	}

	p.logger.Debug("classified",
		logging.String("class", res.Class),
		logging.Int("n", len(res.Predictions)),
		logging.Float64("prob", res.Predictions[0].Prob),
		logging.Duration("took", time.Since(start)),
	)
	return res, nil
}
