// Package modeltest provides Scorer fakes for tests that must not depend on
// ONNX Runtime.
package modeltest

import (
	"context"
	"image"
	"sync/atomic"
)

// StaticScorer returns the same scores for every image.
type StaticScorer struct {
	Values []float32
	Err    error

	calls  atomic.Int64
	closed atomic.Bool
}

func (s *StaticScorer) Score(_ context.Context, _ image.Image) ([]float32, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]float32(nil), s.Values...), nil
}

func (s *StaticScorer) Classes() int { return len(s.Values) }

func (s *StaticScorer) Close() error {
	s.closed.Store(true)
	return nil
}

// Calls reports how many times Score ran.
func (s *StaticScorer) Calls() int64 { return s.calls.Load() }

// Closed reports whether Close was called.
func (s *StaticScorer) Closed() bool { return s.closed.Load() }

// PixelScorer derives scores from the image content: output unit i receives
// the mean of channel i%3 scaled into [0,1]. Identical pixels therefore give
// identical scores regardless of how the image reached the scorer.
type PixelScorer struct {
	N int
}

func (s PixelScorer) Score(ctx context.Context, img image.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var sum [3]float64
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			sum[0] += float64(r)
			sum[1] += float64(g)
			sum[2] += float64(bl)
		}
	}
	pixels := float64(b.Dx() * b.Dy())
	out := make([]float32, s.N)
	for i := range out {
		out[i] = float32(sum[i%3]/pixels/65535.0) + float32(i)*1e-3
	}
	return out, nil
}

func (s PixelScorer) Classes() int { return s.N }

func (PixelScorer) Close() error { return nil }
