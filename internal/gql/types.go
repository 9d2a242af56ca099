package gql

import (
	"time"

	"github.com/graphql-go/graphql"

	"libraryapi/internal/auth"
	"libraryapi/internal/book"
	"libraryapi/internal/borrow"
	"libraryapi/internal/user"
)

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"email":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"role":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"createdAt": &graphql.Field{Type: graphql.String},
	},
})

var bookType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Book",
	Fields: graphql.Fields{
		"id":              &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"title":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"author":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"isbn":            &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"publicationDate": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"genre":           &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"copies":          &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"totalCopies":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"createdAt":       &graphql.Field{Type: graphql.String},
		"updatedAt":       &graphql.Field{Type: graphql.String},
	},
})

var borrowType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Borrow",
	Fields: graphql.Fields{
		"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"user":       &graphql.Field{Type: graphql.NewNonNull(userType)},
		"book":       &graphql.Field{Type: graphql.NewNonNull(bookType)},
		"borrowDate": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"returnDate": &graphql.Field{Type: graphql.String},
		"isReturned": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
	},
})

var mostBorrowedType = graphql.NewObject(graphql.ObjectConfig{
	Name: "MostBorrowed",
	Fields: graphql.Fields{
		"bookDetails": &graphql.Field{Type: graphql.NewNonNull(bookType)},
		"count":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var activeMemberType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ActiveMember",
	Fields: graphql.Fields{
		"userDetails": &graphql.Field{Type: graphql.NewNonNull(userType)},
		"count":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var availabilityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BookAvailability",
	Fields: graphql.Fields{
		"totalBooks":     &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"availableBooks": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"borrowedBooks":  &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

var authPayloadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AuthPayload",
	Fields: graphql.Fields{
		"token": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"user":  &graphql.Field{Type: graphql.NewNonNull(userType)},
	},
})

// The default resolver reads map keys, so domain values are flattened into
// maps with the wire field names.

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func userValue(u user.User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      u.Role.String(),
		"createdAt": timestamp(u.CreatedAt),
	}
}

func bookValue(b book.Book) map[string]any {
	return map[string]any{
		"id":              b.ID,
		"title":           b.Title,
		"author":          b.Author,
		"isbn":            b.ISBN,
		"publicationDate": b.PublicationDate.Format(book.DateLayout),
		"genre":           b.Genre,
		"copies":          b.Copies,
		"totalCopies":     b.TotalCopies,
		"createdAt":       timestamp(b.CreatedAt),
		"updatedAt":       timestamp(b.UpdatedAt),
	}
}

func borrowValue(d borrow.Detail) map[string]any {
	v := map[string]any{
		"id":         d.ID,
		"user":       userValue(d.User),
		"book":       bookValue(d.Book),
		"borrowDate": timestamp(d.BorrowDate),
		"returnDate": nil,
		"isReturned": d.IsReturned,
	}
	if d.ReturnDate != nil {
		v["returnDate"] = timestamp(*d.ReturnDate)
	}
	return v
}

func authPayloadValue(p auth.Payload) map[string]any {
	return map[string]any{
		"token": p.Token,
		"user":  userValue(p.User),
	}
}

func availabilityValue(a borrow.Availability) map[string]any {
	return map[string]any{
		"totalBooks":     a.TotalBooks,
		"availableBooks": a.AvailableBooks,
		"borrowedBooks":  a.BorrowedBooks,
	}
}
