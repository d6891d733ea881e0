package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelWrappers(t *testing.T) {
	err := Validation("text is %s", "empty")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "text is empty")

	err = NotFound("document", "abc")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `document "abc"`)
}

func TestProviderError(t *testing.T) {
	err := ProviderStatus("google", 503, "unavailable")

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "google", pe.Provider)
	assert.Equal(t, 503, pe.Status)
	assert.Equal(t, "google provider error 503: unavailable", err.Error())

	cause := errors.New("dial tcp: refused")
	err = Provider("openai", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "openai provider error: dial tcp: refused", err.Error())
}

func TestStorageError(t *testing.T) {
	assert.NoError(t, Storage("get", "doc:1", nil))

	cause := errors.New("connection reset")
	err := Storage("get", "doc:1", cause)
	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "get", se.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, `storage get "doc:1": connection reset`, err.Error())
}
