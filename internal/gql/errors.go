package gql

import (
	"fmt"
	"strings"

	"libraryapi/internal/apperr"
	"libraryapi/internal/httpx"
)

// resolverError exposes the client message of an apperr kind and its code in
// the GraphQL error extensions.
type resolverError struct {
	err error
}

func (e resolverError) Error() string { return apperr.Message(e.err) }

func (e resolverError) Unwrap() error { return e.err }

func (e resolverError) Extensions() map[string]any {
	return map[string]any{"code": apperr.Code(e.err)}
}

// validationError folds validator details into one message.
func validationError(details []httpx.ErrorDetail) error {
	parts := make([]string, 0, len(details))
	for _, d := range details {
		parts = append(parts, fmt.Sprintf("%s: %s", d.Field, d.Message))
	}
	return apperr.New(apperr.ErrValidation, "Invalid input: "+strings.Join(parts, "; "))
}
