package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeMessage_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "an unexpected error occurred", SafeMessage(errors.New("dial tcp 10.0.0.3:3001: refused")))
	assert.Equal(t, "tour not found", SafeMessage(NewNotFound("tour not found")))

	// Wrapped AppErrors are still found.
	wrapped := fmt.Errorf("loading tour: %w", NewNotFound("tour not found"))
	assert.Equal(t, "tour not found", SafeMessage(wrapped))
	assert.Equal(t, http.StatusNotFound, SafeCode(wrapped))
}

func TestNewBadGateway_KeepsCause(t *testing.T) {
	cause := errors.New("backend timeout")
	err := NewBadGateway("Could not save the activity.", cause)

	assert.Equal(t, http.StatusBadGateway, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Could not save the activity.", SafeMessage(err))
}

func TestWithFields(t *testing.T) {
	err := NewValidation("Please fix the highlighted fields.").
		WithFields(FieldProblem{Field: "title", Message: "Title is required"})

	assert.Equal(t, http.StatusUnprocessableEntity, SafeCode(err))
	assert.Len(t, err.Fields, 1)
	assert.Equal(t, "title", err.Fields[0].Field)
}
