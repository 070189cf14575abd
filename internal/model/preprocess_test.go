package model

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocess_PlanarNormalized(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 255, A: 255})
		}
	}

	const size = 4
	dst := make([]float32, 3*size*size)
	norm := Normalization{Mean: [3]float32{0.5, 0.5, 0.5}, Std: [3]float32{0.5, 0.5, 0.5}}
	require.NoError(t, Preprocess(img, size, norm, dst))

	plane := size * size
	for i := 0; i < plane; i++ {
		assert.InDelta(t, 1.0, dst[i], 1e-3, "red")
		assert.InDelta(t, -1.0, dst[plane+i], 1e-3, "green")
		assert.InDelta(t, 1.0, dst[2*plane+i], 1e-3, "blue")
	}
}

func TestPreprocess_OffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(10, 10, 20, 20))
	dst := make([]float32, 3*2*2)
	require.NoError(t, Preprocess(img, 2, Normalization{Std: [3]float32{1, 1, 1}}, dst))
	for _, v := range dst {
		assert.InDelta(t, 0, v, 1e-6)
	}
}

func TestPreprocess_BadBuffer(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	assert.Error(t, Preprocess(img, 4, Normalization{}, make([]float32, 10)))
	assert.Error(t, Preprocess(img, 0, Normalization{}, nil))
}

func TestSoftmax(t *testing.T) {
	v := []float32{1, 2, 3}
	softmax(v)

	var sum float64
	for _, x := range v {
		assert.Greater(t, x, float32(0))
		sum += float64(x)
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.InDelta(t, math.Exp(1)/(math.Exp(1)+math.Exp(2)+math.Exp(3)), v[0], 1e-6)
	assert.Greater(t, v[2], v[1])

	softmax(nil)
}
