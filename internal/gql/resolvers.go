package gql

import (
	"github.com/graphql-go/graphql"

	"libraryapi/internal/authz"
	"libraryapi/internal/book"
	"libraryapi/internal/httpx"
	"libraryapi/internal/user"
)

func stringArg(p graphql.ResolveParams, name string) string {
	s, _ := p.Args[name].(string)
	return s
}

func optString(p graphql.ResolveParams, name string) *string {
	if s, ok := p.Args[name].(string); ok {
		return &s
	}
	return nil
}

func optInt(p graphql.ResolveParams, name string) *int {
	if n, ok := p.Args[name].(int); ok {
		return &n
	}
	return nil
}

// me returns null for anonymous callers.
func (r *resolver) me(p graphql.ResolveParams) (any, error) {
	if _, ok := authz.PrincipalFrom(p.Context); !ok {
		return nil, nil
	}
	u, err := r.Users.Me(p.Context)
	if err != nil {
		return nil, err
	}
	return userValue(u), nil
}

func (r *resolver) getBooks(p graphql.ResolveParams) (any, error) {
	q := book.Query{
		Genre:  stringArg(p, "genre"),
		Author: stringArg(p, "author"),
	}
	if n := optInt(p, "page"); n != nil {
		q.Page = *n
	}
	if n := optInt(p, "limit"); n != nil {
		q.Limit = *n
	}
	books, _, err := r.Books.List(p.Context, q)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(books))
	for _, b := range books {
		out = append(out, bookValue(b))
	}
	return out, nil
}

func (r *resolver) book(p graphql.ResolveParams) (any, error) {
	b, err := r.Books.Get(p.Context, stringArg(p, "id"))
	if err != nil {
		return nil, err
	}
	return bookValue(b), nil
}

func (r *resolver) borrowHistory(p graphql.ResolveParams) (any, error) {
	history, err := r.Borrows.History(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(history))
	for _, d := range history {
		out = append(out, borrowValue(d))
	}
	return out, nil
}

func (r *resolver) mostBorrowedBooks(p graphql.ResolveParams) (any, error) {
	rows, err := r.Borrows.MostBorrowed(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{"bookDetails": bookValue(row.Book), "count": row.Count})
	}
	return out, nil
}

func (r *resolver) activeMembers(p graphql.ResolveParams) (any, error) {
	rows, err := r.Borrows.ActiveMembers(p.Context)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, map[string]any{"userDetails": userValue(row.User), "count": row.Count})
	}
	return out, nil
}

func (r *resolver) bookAvailability(p graphql.ResolveParams) (any, error) {
	a, err := r.Borrows.Availability(p.Context)
	if err != nil {
		return nil, err
	}
	return availabilityValue(a), nil
}

type registerArgs struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,role"`
}

func (r *resolver) register(p graphql.ResolveParams) (any, error) {
	args := registerArgs{
		Name:     stringArg(p, "name"),
		Email:    stringArg(p, "email"),
		Password: stringArg(p, "password"),
		Role:     stringArg(p, "role"),
	}
	if details := httpx.ValidateStruct(args); len(details) > 0 {
		return nil, validationError(details)
	}
	_, err := r.Users.Register(p.Context, user.RegisterInput{
		Name:     args.Name,
		Email:    args.Email,
		Password: args.Password,
		Role:     args.Role,
	})
	if err != nil {
		return nil, err
	}
	return "Registered successfully", nil
}

func (r *resolver) login(p graphql.ResolveParams) (any, error) {
	payload, err := r.Auth.Login(p.Context, stringArg(p, "email"), stringArg(p, "password"))
	if err != nil {
		return nil, err
	}
	return authPayloadValue(payload), nil
}

type bookArgs struct {
	Title  *string `json:"title" validate:"omitempty,min=1,max=255"`
	Author *string `json:"author" validate:"omitempty,min=1,max=255"`
	ISBN   *string `json:"isbn" validate:"omitempty,isbn"`
	Genre  *string `json:"genre" validate:"omitempty,max=100"`
	Copies *int    `json:"copies" validate:"omitempty,gte=0"`
}

func (r *resolver) bookPatch(p graphql.ResolveParams) (book.Patch, error) {
	args := bookArgs{
		Title:  optString(p, "title"),
		Author: optString(p, "author"),
		ISBN:   optString(p, "isbn"),
		Genre:  optString(p, "genre"),
		Copies: optInt(p, "copies"),
	}
	if details := httpx.ValidateStruct(args); len(details) > 0 {
		return book.Patch{}, validationError(details)
	}
	patch := book.Patch{
		Title:  args.Title,
		Author: args.Author,
		ISBN:   args.ISBN,
		Genre:  args.Genre,
		Copies: args.Copies,
	}
	if s := optString(p, "publicationDate"); s != nil {
		published, err := book.ParseDate(*s)
		if err != nil {
			return book.Patch{}, err
		}
		patch.PublicationDate = &published
	}
	return patch, nil
}

func (r *resolver) addBook(p graphql.ResolveParams) (any, error) {
	patch, err := r.bookPatch(p)
	if err != nil {
		return nil, err
	}
	b, err := r.Books.Add(p.Context, book.Input{
		Title:           *patch.Title,
		Author:          *patch.Author,
		ISBN:            *patch.ISBN,
		PublicationDate: *patch.PublicationDate,
		Genre:           *patch.Genre,
		Copies:          *patch.Copies,
	})
	if err != nil {
		return nil, err
	}
	return bookValue(b), nil
}

func (r *resolver) updateBook(p graphql.ResolveParams) (any, error) {
	patch, err := r.bookPatch(p)
	if err != nil {
		return nil, err
	}
	b, err := r.Books.Update(p.Context, stringArg(p, "id"), patch)
	if err != nil {
		return nil, err
	}
	return bookValue(b), nil
}

func (r *resolver) deleteBook(p graphql.ResolveParams) (any, error) {
	if err := r.Books.Delete(p.Context, stringArg(p, "id")); err != nil {
		return nil, err
	}
	return "Book deleted", nil
}

func (r *resolver) borrowBook(p graphql.ResolveParams) (any, error) {
	d, err := r.Borrows.Borrow(p.Context, stringArg(p, "bookId"))
	if err != nil {
		return nil, err
	}
	return borrowValue(d), nil
}

func (r *resolver) returnBook(p graphql.ResolveParams) (any, error) {
	if _, err := r.Borrows.Return(p.Context, stringArg(p, "id")); err != nil {
		return nil, err
	}
	return "Returned successfully", nil
}
