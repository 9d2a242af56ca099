package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	notFound := New(ErrNotFound, "book not found")

	assert.Equal(t, ErrNotFound, KindOf(notFound))
	assert.Equal(t, ErrNotFound, KindOf(fmt.Errorf("get book: %w", notFound)))
	assert.Equal(t, ErrForbidden, KindOf(ErrForbidden))
	assert.Equal(t, ErrInternal, KindOf(errors.New("connection reset")))
}

func TestStatusAndCode(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{New(ErrUnauthorized, "x"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{New(ErrForbidden, "x"), http.StatusForbidden, "FORBIDDEN"},
		{New(ErrNotFound, "x"), http.StatusNotFound, "NOT_FOUND"},
		{New(ErrUnavailable, "x"), http.StatusConflict, "UNAVAILABLE"},
		{New(ErrInvalidState, "x"), http.StatusConflict, "INVALID_STATE"},
		{New(ErrValidation, "x"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, Status(tt.err), tt.code)
		assert.Equal(t, tt.code, Code(tt.err))
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "book unavailable", Message(fmt.Errorf("borrow: %w", New(ErrUnavailable, "book unavailable"))))
	assert.Equal(t, "Internal server error", Message(errors.New("pq: relation does not exist")))
}
