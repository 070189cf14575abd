package model

import (
	"fmt"
	"os"

	"github.com/Brownie44l1/classify-api/internal/errs"
	"github.com/Brownie44l1/classify-api/internal/vocab"
)

// LoadOptions locates the weight artifact and its metadata.
type LoadOptions struct {
	ModelPath         string
	MetadataPath      string
	Architecture      string
	ImageSize         int
	SharedLibraryPath string
	PoolSize          int
	IntraOpThreads    int
}

// newScorer is replaced in tests so Load can run without ONNX Runtime.
var newScorer = func(md *Metadata, opts ONNXOptions) (Scorer, error) {
	return NewONNXScorer(md, opts)
}

// Load opens the model at opts.ModelPath and binds it to v. The handle is
// meant to be loaded once per process. Every failure is FatalStartup.
func Load(v *vocab.Vocabulary, opts LoadOptions) (*Handle, error) {
	if v == nil {
		return nil, errs.New(errs.FatalStartup, "load model: vocabulary is required")
	}
	if opts.ImageSize <= 0 {
		return nil, errs.New(errs.FatalStartup, "load model: invalid image size %d", opts.ImageSize)
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, errs.Wrap(err, errs.FatalStartup, "load model %s", opts.ModelPath)
	}

	md, err := ReadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, errs.Wrap(err, errs.FatalStartup, "load model metadata %s", opts.MetadataPath)
	}
	if err := md.validate(v.Len(), opts.ImageSize, opts.Architecture); err != nil {
		return nil, errs.Wrap(err, errs.FatalStartup, "model %s is incompatible", opts.ModelPath)
	}

	scorer, err := newScorer(md, ONNXOptions{
		ModelPath:         opts.ModelPath,
		SharedLibraryPath: opts.SharedLibraryPath,
		ImageSize:         opts.ImageSize,
		PoolSize:          opts.PoolSize,
		IntraOpThreads:    opts.IntraOpThreads,
	})
	if err != nil {
		return nil, errs.Wrap(err, errs.FatalStartup, "load model %s", opts.ModelPath)
	}

	arch := opts.Architecture
	if arch == "" {
		arch = md.Architecture
	}
	h, err := Bind(v, scorer, arch, opts.ImageSize)
	if err != nil {
		scorer.Close()
		return nil, fmt.Errorf("load model %s: %w", opts.ModelPath, err)
	}
	return h, nil
}
