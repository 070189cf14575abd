package model

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/classify-api/internal/errs"
	"github.com/Brownie44l1/classify-api/internal/model/modeltest"
	"github.com/Brownie44l1/classify-api/internal/vocab"
)

func dogs(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New([]string{"golden_retriever", "poodle", "beagle"})
	require.NoError(t, err)
	return v
}

func TestBind_Mismatch(t *testing.T) {
	_, err := Bind(dogs(t), &modeltest.StaticScorer{Values: []float32{1, 2}}, "resnet50", 224)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.FatalStartup))

	_, err = Bind(nil, &modeltest.StaticScorer{}, "", 224)
	assert.True(t, errs.IsKind(err, errs.FatalStartup))
}

func TestHandle_Score(t *testing.T) {
	h, err := Bind(dogs(t), &modeltest.StaticScorer{Values: []float32{0.2, 0.7, 0.1}}, "resnet50", 224)
	require.NoError(t, err)

	s, err := h.Score(context.Background(), image.NewRGBA(image.Rect(0, 0, 2, 2)))
	require.NoError(t, err)
	assert.Len(t, s.Raw, 3)
	assert.Equal(t, 1, s.Top)
	assert.Equal(t, "poodle", h.Vocabulary().Label(s.Top))
	assert.Equal(t, "resnet50", h.Architecture())
	assert.Equal(t, 224, h.ImageSize())
}

func TestHandle_ScoreTieKeepsFirst(t *testing.T) {
	h, err := Bind(dogs(t), &modeltest.StaticScorer{Values: []float32{0.4, 0.4, 0.2}}, "", 224)
	require.NoError(t, err)

	s, err := h.Score(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Top)
}

func TestHandle_ScoreError(t *testing.T) {
	scorer := &modeltest.StaticScorer{Values: []float32{1, 1, 1}, Err: errors.New("session crashed")}
	h, err := Bind(dogs(t), scorer, "", 224)
	require.NoError(t, err)

	_, err = h.Score(context.Background(), image.NewRGBA(image.Rect(0, 0, 1, 1)))
	require.Error(t, err)
	assert.Equal(t, errs.Internal, errs.KindOf(err))
}

func TestHandle_Close(t *testing.T) {
	scorer := &modeltest.StaticScorer{Values: []float32{1, 1, 1}}
	h, err := Bind(dogs(t), scorer, "", 224)
	require.NoError(t, err)
	require.NoError(t, h.Close())
	assert.True(t, scorer.Closed())
}
