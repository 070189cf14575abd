package model

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// Normalization holds per-channel statistics of the training distribution.
type Normalization struct {
	Mean [3]float32
	Std  [3]float32
}

// Preprocess resizes img to size×size and writes it into dst as a
// normalized planar RGB tensor (CHW). dst must hold 3*size*size values.
func Preprocess(img image.Image, size int, norm Normalization, dst []float32) error {
	if size <= 0 {
		return fmt.Errorf("invalid target size %d", size)
	}
	plane := size * size
	if len(dst) != 3*plane {
		return fmt.Errorf("destination holds %d values, need %d", len(dst), 3*plane)
	}

	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
	bounds := resized.Bounds()

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			i := y*size + x
			dst[i] = (float32(r)/65535.0 - norm.Mean[0]) / norm.Std[0]
			dst[plane+i] = (float32(g)/65535.0 - norm.Mean[1]) / norm.Std[1]
			dst[2*plane+i] = (float32(b)/65535.0 - norm.Mean[2]) / norm.Std[2]
		}
	}
	return nil
}
