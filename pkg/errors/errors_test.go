package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	cause := stderrors.New("connection refused")

	err := NewUpstreamError("nrel", "station search failed", cause)
	assert.Equal(t, "UPSTREAM(nrel): station search failed: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "VALIDATION: missing intent", NewValidationError("missing intent").Error())
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("find stations: %w", NewDecodeError("nrel", stderrors.New("EOF")))

	assert.Equal(t, KindDecode, KindOf(wrapped))
	assert.Equal(t, KindNotFound, KindOf(NewNotFoundError("google", "no results")))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}
