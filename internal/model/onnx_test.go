package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	ort "github.com/yalue/onnxruntime_go"
)

func TestMatchInfo(t *testing.T) {
	infos := []ort.InputOutputInfo{
		{Name: "input", Dimensions: ort.NewShape(-1, 3, 224, 224)},
		{Name: "logits", Dimensions: ort.NewShape(1, 120)},
	}

	tests := []struct {
		name    string
		tensor  string
		shape   []int64
		wantErr string
	}{
		{"dynamic batch matches", "input", []int64{1, 3, 224, 224}, ""},
		{"exact match", "logits", []int64{1, 120}, ""},
		{"wrong class count", "logits", []int64{1, 37}, "has shape"},
		{"wrong image size", "input", []int64{1, 3, 299, 299}, "has shape"},
		{"wrong rank", "input", []int64{3, 224, 224}, "has rank 4"},
		{"unknown tensor", "output", []int64{1, 120}, `no tensor named "output"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := matchInfo(infos, tt.tensor, tt.shape)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
