package gql

import (
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
)

// NewHandler serves schema over GET and POST. The request context, and with
// it the authenticated principal, reaches every resolver.
func NewHandler(schema graphql.Schema, playground bool) http.Handler {
	return handler.New(&handler.Config{
		Schema:     &schema,
		Pretty:     true,
		GraphiQL:   false,
		Playground: playground,
	})
}
