package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceError_Transient(t *testing.T) {
	assert.True(t, Timeout(errors.New("deadline")).Transient())
	assert.True(t, RateLimited(errors.New("429")).Transient())
	assert.True(t, Malformed(errors.New("bad json")).Transient())
	assert.False(t, AuthFailure(errors.New("401")).Transient())
}

func TestIsTransient_Wrapped(t *testing.T) {
	err := fmt.Errorf("chapter pair 1-2: %w", RateLimited(errors.New("429")))
	assert.True(t, IsTransient(err))
	assert.False(t, IsFatal(err))
}

func TestIsFatal(t *testing.T) {
	err := fmt.Errorf("connecting: %w", AuthFailure(errors.New("bad key")))
	assert.True(t, IsFatal(err))
	assert.False(t, IsTransient(err))
}

func TestIsTransient_Unclassified(t *testing.T) {
	// Unknown errors get the retry budget.
	assert.True(t, IsTransient(errors.New("connection reset")))
	assert.False(t, IsTransient(nil))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindMalformedResponse, KindOf(Malformed(errors.New("x"))))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("x")))
}
