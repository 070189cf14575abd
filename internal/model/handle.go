package model

import (
	"context"
	"fmt"
	"image"

	"github.com/Brownie44l1/classify-api/internal/errs"
	"github.com/Brownie44l1/classify-api/internal/vocab"
)

// Scorer is the opaque scoring capability: one raw score per output unit.
// Implementations must be safe for concurrent use.
type Scorer interface {
	Score(ctx context.Context, img image.Image) ([]float32, error)
	// Classes is the number of output units.
	Classes() int
	Close() error
}

// Scores is the result of one scoring call.
type Scores struct {
	// Raw holds one value per vocabulary position.
	Raw []float64
	// Top is the arg-max position of Raw; the first position wins ties.
	Top int
}

// Handle binds a Scorer to the vocabulary it was trained on. It is created
// once per process and shared read-only between requests.
type Handle struct {
	vocab        *vocab.Vocabulary
	scorer       Scorer
	architecture string
	imageSize    int
}

// Bind checks that scorer and v agree on the number of classes.
func Bind(v *vocab.Vocabulary, scorer Scorer, architecture string, imageSize int) (*Handle, error) {
	if v == nil || scorer == nil {
		return nil, errs.New(errs.FatalStartup, "bind model: vocabulary and scorer are required")
	}
	if scorer.Classes() != v.Len() {
		return nil, errs.New(errs.FatalStartup,
			"bind model: scorer has %d outputs, vocabulary has %d labels", scorer.Classes(), v.Len())
	}
	return &Handle{vocab: v, scorer: scorer, architecture: architecture, imageSize: imageSize}, nil
}

// Vocabulary returns the vocabulary the handle is bound to.
func (h *Handle) Vocabulary() *vocab.Vocabulary { return h.vocab }

func (h *Handle) Architecture() string { return h.architecture }

func (h *Handle) ImageSize() int { return h.imageSize }

// Score runs the model on img.
func (h *Handle) Score(ctx context.Context, img image.Image) (Scores, error) {
	out, err := h.scorer.Score(ctx, img)
	if err != nil {
		return Scores{}, errs.Wrap(err, errs.KindOf(err), "score image")
	}
	if len(out) != h.vocab.Len() {
		return Scores{}, errs.New(errs.Internal, "scorer returned %d values for %d classes", len(out), h.vocab.Len())
	}

	raw := make([]float64, len(out))
	top := 0
	for i, v := range out {
		raw[i] = float64(v)
		if raw[i] > raw[top] {
			top = i
		}
	}
	return Scores{Raw: raw, Top: top}, nil
}

// Close releases the scorer.
func (h *Handle) Close() error {
	if err := h.scorer.Close(); err != nil {
		return fmt.Errorf("close scorer: %w", err)
	}
	return nil
}
