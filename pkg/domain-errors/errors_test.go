package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches the outermost code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("service: %w", New(CodeNotFound, "country not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeValidation))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")

	err := Wrap(cause, CodeInternal, "failed to save assessment")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, CodeInternal))
	assert.Contains(t, err.Error(), "connection refused")

	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestErrorIs_ComparesCodeAndMessage(t *testing.T) {
	err := New(CodeValidation, "subject name is required")
	require.ErrorIs(t, err, New(CodeValidation, "subject name is required"))
	assert.NotErrorIs(t, err, New(CodeValidation, "country is required"))
}
