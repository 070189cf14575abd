package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// ImageNet channel statistics used when the metadata does not carry its own.
var (
	ImageNetMean = [3]float32{0.485, 0.456, 0.406}
	ImageNetStd  = [3]float32{0.229, 0.224, 0.225}
)

// Metadata describes the exported ONNX graph. It is written next to the
// weights by the export script.
type Metadata struct {
	InputName    string  `json:"input_name"`
	OutputName   string  `json:"output_name"`
	InputShape   []int64 `json:"input_shape"`
	OutputShape  []int64 `json:"output_shape"`
	ImageSize    int     `json:"image_size"`
	Architecture string  `json:"architecture"`
	// ApplySoftmax is set when the graph ends in raw logits.
	ApplySoftmax bool        `json:"apply_softmax"`
	Mean         *[3]float32 `json:"mean,omitempty"`
	Std          *[3]float32 `json:"std,omitempty"`
}

// ReadMetadata parses the metadata file at path and fills in defaults.
func ReadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	md.applyDefaults()
	return &md, nil
}

func (m *Metadata) applyDefaults() {
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if m.Mean == nil {
		mean := ImageNetMean
		m.Mean = &mean
	}
	if m.Std == nil {
		std := ImageNetStd
		m.Std = &std
	}
}

// Classes is the width of the output tensor, i.e. the last dimension of
// OutputShape.
func (m *Metadata) Classes() int {
	if len(m.OutputShape) == 0 {
		return 0
	}
	return int(m.OutputShape[len(m.OutputShape)-1])
}

// validate checks the metadata against the vocabulary size and the
// configured image size and architecture.
func (m *Metadata) validate(classes, imageSize int, architecture string) error {
	if len(m.InputShape) != 4 {
		return fmt.Errorf("input shape %v is not NCHW", m.InputShape)
	}
	if m.InputShape[0] != 1 || m.InputShape[1] != 3 {
		return fmt.Errorf("input shape %v: want batch 1 with 3 channels", m.InputShape)
	}
	if m.InputShape[2] != int64(imageSize) || m.InputShape[3] != int64(imageSize) {
		return fmt.Errorf("input shape %v does not match image size %d", m.InputShape, imageSize)
	}
	if m.ImageSize != 0 && m.ImageSize != imageSize {
		return fmt.Errorf("metadata image size %d does not match configured %d", m.ImageSize, imageSize)
	}
	if m.Classes() != classes {
		return fmt.Errorf("output shape %v has %d classes, vocabulary has %d", m.OutputShape, m.Classes(), classes)
	}
	if m.Architecture != "" && architecture != "" && m.Architecture != architecture {
		return fmt.Errorf("model architecture %q does not match configured %q", m.Architecture, architecture)
	}
	for i, s := range m.Std {
		if s == 0 {
			return fmt.Errorf("std[%d] is zero", i)
		}
	}
	return nil
}
