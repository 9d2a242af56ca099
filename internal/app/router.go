package app

import (
	"net/http"

	"libraryapi/internal/auth"
	"libraryapi/internal/authz"
	"libraryapi/internal/book"
	"libraryapi/internal/borrow"
	"libraryapi/internal/gql"
	"libraryapi/internal/httpx"
	"libraryapi/internal/user"
)

// newAPIRouter registers every /api route. Authentication and role checks
// happen here; the services check roles again for the GraphQL path.
func newAPIRouter(secret string, svc gql.Services, graphql http.Handler) http.Handler {
	users := user.NewHTTPHandler(svc.Users)
	logins := auth.NewHTTPHandler(svc.Auth)
	books := book.NewHTTPHandler(svc.Books)
	borrows := borrow.NewHTTPHandler(svc.Borrows)

	authed := httpx.AuthMiddleware(secret)
	admin := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, authed, httpx.RequireRole(authz.RoleAdmin))
	}
	member := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h, authed, httpx.RequireRole(authz.RoleMember))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", users.Register)
	mux.HandleFunc("POST /api/auth/login", logins.Login)
	mux.Handle("GET /api/auth/me", authed(http.HandlerFunc(users.Me)))

	mux.HandleFunc("GET /api/books", books.List)
	mux.HandleFunc("GET /api/books/{id}", books.Get)
	mux.Handle("POST /api/books/add", admin(books.Add))
	mux.Handle("PUT /api/books/update/{id}", admin(books.Update))
	mux.Handle("DELETE /api/books/delete/{id}", admin(books.Delete))

	mux.Handle("POST /api/borrow", member(borrows.Borrow))
	mux.Handle("PUT /api/borrow/return/{id}", member(borrows.Return))
	mux.Handle("GET /api/borrow/history", member(borrows.History))
	mux.Handle("GET /api/borrow/report/most-borrowed", admin(borrows.MostBorrowed))
	mux.Handle("GET /api/borrow/report/active-members", admin(borrows.ActiveMembers))
	mux.Handle("GET /api/borrow/report/book-availability", admin(borrows.Availability))

	graphql = httpx.OptionalAuthMiddleware(secret)(graphql)
	mux.Handle("/api/graphql", httpx.MethodMux(map[string]http.Handler{
		http.MethodGet:  graphql,
		http.MethodPost: graphql,
	}))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	return mux
}
