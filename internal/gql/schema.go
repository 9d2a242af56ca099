// Package gql exposes the library services over a single GraphQL endpoint.
// Resolvers call the same services as the REST handlers, so role checks and
// inventory rules are identical on both surfaces.
package gql

import (
	"log/slog"

	"github.com/graphql-go/graphql"

	"libraryapi/internal/apperr"
	"libraryapi/internal/auth"
	"libraryapi/internal/book"
	"libraryapi/internal/borrow"
	"libraryapi/internal/user"
)

// Services are the domain services the resolvers call.
type Services struct {
	Users   *user.Service
	Auth    *auth.Service
	Books   *book.Service
	Borrows *borrow.Service
}

type resolver struct {
	Services
	logger *slog.Logger
}

// wrap converts service errors into errors carrying extensions.code. Internal
// errors are logged here since the client only sees a generic message.
func (r *resolver) wrap(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		v, err := fn(p)
		if err == nil {
			return v, nil
		}
		if apperr.KindOf(err) == apperr.ErrInternal {
			r.logger.Error("graphql resolver failed", "field", p.Info.FieldName, "error", err)
		}
		return nil, resolverError{err: err}
	}
}

func nonNullString() *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}
}

func nonNullID() *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}
}

// NewSchema builds the schema over svc.
func NewSchema(svc Services, logger *slog.Logger) (graphql.Schema, error) {
	r := &resolver{Services: svc, logger: logger}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type:    userType,
				Resolve: r.wrap(r.me),
			},
			"getBooks": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(bookType))),
				Args: graphql.FieldConfigArgument{
					"page":   &graphql.ArgumentConfig{Type: graphql.Int},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int},
					"genre":  &graphql.ArgumentConfig{Type: graphql.String},
					"author": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.wrap(r.getBooks),
			},
			"book": &graphql.Field{
				Type:    bookType,
				Args:    graphql.FieldConfigArgument{"id": nonNullID()},
				Resolve: r.wrap(r.book),
			},
			"borrowHistory": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(borrowType))),
				Resolve: r.wrap(r.borrowHistory),
			},
			"mostBorrowedBooks": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(mostBorrowedType))),
				Resolve: r.wrap(r.mostBorrowedBooks),
			},
			"activeMembers": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(activeMemberType))),
				Resolve: r.wrap(r.activeMembers),
			},
			"bookAvailability": &graphql.Field{
				Type:    graphql.NewNonNull(availabilityType),
				Resolve: r.wrap(r.bookAvailability),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Args: graphql.FieldConfigArgument{
					"name":     nonNullString(),
					"email":    nonNullString(),
					"password": nonNullString(),
					"role":     &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.wrap(r.register),
			},
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"email":    nonNullString(),
					"password": nonNullString(),
				},
				Resolve: r.wrap(r.login),
			},
			"addBook": &graphql.Field{
				Type: graphql.NewNonNull(bookType),
				Args: graphql.FieldConfigArgument{
					"title":           nonNullString(),
					"author":          nonNullString(),
					"isbn":            nonNullString(),
					"publicationDate": nonNullString(),
					"genre":           nonNullString(),
					"copies":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.wrap(r.addBook),
			},
			"updateBook": &graphql.Field{
				Type: graphql.NewNonNull(bookType),
				Args: graphql.FieldConfigArgument{
					"id":              nonNullID(),
					"title":           &graphql.ArgumentConfig{Type: graphql.String},
					"author":          &graphql.ArgumentConfig{Type: graphql.String},
					"isbn":            &graphql.ArgumentConfig{Type: graphql.String},
					"publicationDate": &graphql.ArgumentConfig{Type: graphql.String},
					"genre":           &graphql.ArgumentConfig{Type: graphql.String},
					"copies":          &graphql.ArgumentConfig{Type: graphql.Int},
				},
				Resolve: r.wrap(r.updateBook),
			},
			"deleteBook": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.String),
				Args:    graphql.FieldConfigArgument{"id": nonNullID()},
				Resolve: r.wrap(r.deleteBook),
			},
			"borrowBook": &graphql.Field{
				Type:    graphql.NewNonNull(borrowType),
				Args:    graphql.FieldConfigArgument{"bookId": nonNullID()},
				Resolve: r.wrap(r.borrowBook),
			},
			"returnBook": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.String),
				Args:    graphql.FieldConfigArgument{"id": nonNullID()},
				Resolve: r.wrap(r.returnBook),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
