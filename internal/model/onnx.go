package model

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/classify-api/internal/errs"
)

// ONNXOptions configures NewONNXScorer.
type ONNXOptions struct {
	ModelPath         string
	SharedLibraryPath string
	ImageSize         int
	// PoolSize is the number of independent sessions; each session owns
	// its input and output tensors.
	PoolSize       int
	IntraOpThreads int
}

// session is one AdvancedSession bound to its own tensors. A session is
// used by one request at a time.
type session struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func (s *session) destroy() {
	if s.session != nil {
		s.session.Destroy()
	}
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
}

// ONNXScorer scores images with an ONNX Runtime session pool.
type ONNXScorer struct {
	md        *Metadata
	imageSize int
	norm      Normalization
	pool      chan *session
	all       []*session

	closeOnce sync.Once
}

var envMu sync.Mutex

func initEnvironment(sharedLibraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if sharedLibraryPath != "" {
		ort.SetSharedLibraryPath(sharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// NewONNXScorer opens opts.PoolSize sessions over the model described by md.
func NewONNXScorer(md *Metadata, opts ONNXOptions) (*ONNXScorer, error) {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 1
	}
	if err := initEnvironment(opts.SharedLibraryPath); err != nil {
		return nil, err
	}
	if err := checkGraph(opts.ModelPath, md); err != nil {
		return nil, err
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer sessionOpts.Destroy()
	if opts.IntraOpThreads > 0 {
		if err := sessionOpts.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
		}
	}

	s := &ONNXScorer{
		md:        md,
		imageSize: opts.ImageSize,
		norm:      Normalization{Mean: *md.Mean, Std: *md.Std},
		pool:      make(chan *session, opts.PoolSize),
	}
	for i := 0; i < opts.PoolSize; i++ {
		sess, err := newSession(opts.ModelPath, md, sessionOpts)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		s.all = append(s.all, sess)
		s.pool <- sess
	}
	return s, nil
}

func newSession(modelPath string, md *Metadata, opts *ort.SessionOptions) (*session, error) {
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(md.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(md.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	sess, err := ort.NewAdvancedSession(modelPath,
		[]string{md.InputName}, []string{md.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		opts)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &session{session: sess, inputTensor: inputTensor, outputTensor: outputTensor}, nil
}

// checkGraph compares the graph's declared inputs and outputs with md.
// Dynamic dimensions (reported as -1) match anything.
func checkGraph(modelPath string, md *Metadata) error {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return fmt.Errorf("failed to inspect model: %w", err)
	}
	if err := matchInfo(inputs, md.InputName, md.InputShape); err != nil {
		return fmt.Errorf("input: %w", err)
	}
	if err := matchInfo(outputs, md.OutputName, md.OutputShape); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

func matchInfo(infos []ort.InputOutputInfo, name string, shape []int64) error {
	for _, info := range infos {
		if info.Name != name {
			continue
		}
		dims := info.Dimensions
		if len(dims) != len(shape) {
			return fmt.Errorf("%s has rank %d, metadata says %v", name, len(dims), shape)
		}
		for i, d := range dims {
			if d >= 0 && d != shape[i] {
				return fmt.Errorf("%s has shape %v, metadata says %v", name, dims, shape)
			}
		}
		return nil
	}
	return fmt.Errorf("model has no tensor named %q", name)
}

// Classes implements Scorer.
func (s *ONNXScorer) Classes() int { return s.md.Classes() }

// Score implements Scorer. It blocks until a session is free or ctx ends.
func (s *ONNXScorer) Score(ctx context.Context, img image.Image) ([]float32, error) {
	var sess *session
	select {
	case sess = <-s.pool:
	case <-ctx.Done():
		return nil, errs.Wrap(ctx.Err(), errs.Internal, "wait for inference session")
	}
	defer func() { s.pool <- sess }()

	if err := Preprocess(img, s.imageSize, s.norm, sess.inputTensor.GetData()); err != nil {
		return nil, errs.Wrap(err, errs.Internal, "preprocess image")
	}
	if err := sess.session.Run(); err != nil {
		return nil, errs.Wrap(err, errs.Internal, "inference failed")
	}

	data := sess.outputTensor.GetData()
	out := make([]float32, s.Classes())
	copy(out, data)
	if s.md.ApplySoftmax {
		softmax(out)
	}
	return out, nil
}

// Close destroys every session and the ONNX environment.
func (s *ONNXScorer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, sess := range s.all {
			sess.destroy()
		}
		envMu.Lock()
		defer envMu.Unlock()
		if ort.IsInitialized() {
			err = ort.DestroyEnvironment()
		}
	})
	if err != nil {
		return fmt.Errorf("destroy ONNX environment: %w", err)
	}
	return nil
}

// softmax turns logits into probabilities in place.
func softmax(v []float32) {
	if len(v) == 0 {
		return
	}
	hi := v[0]
	for _, x := range v[1:] {
		if x > hi {
			hi = x
		}
	}
	var sum float64
	for i, x := range v {
		e := math.Exp(float64(x - hi))
		v[i] = float32(e)
		sum += e
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / sum)
	}
}
