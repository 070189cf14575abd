package errs

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_NilCause(t *testing.T) {
	assert.NoError(t, Wrap(nil, Fetch, "never"))
}

func TestKindOf_ThroughFmtWrapping(t *testing.T) {
	inner := Wrap(io.ErrUnexpectedEOF, Decode, "decode upload")
	outer := fmt.Errorf("classify: %w", inner)

	assert.Equal(t, Decode, KindOf(outer))
	assert.True(t, IsKind(outer, Decode))
	assert.False(t, IsKind(outer, Fetch))
	assert.True(t, errors.Is(outer, io.ErrUnexpectedEOF))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, Internal))
}

func TestAppError_Message(t *testing.T) {
	assert.Equal(t, "bad n: 0", New(InvalidInput, "bad n: %d", 0).Error())
	assert.Equal(t, "fetch image: EOF", Wrap(io.EOF, Fetch, "fetch image").Error())
}
