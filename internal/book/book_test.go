package book

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/apperr"
)

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func TestNormalizeISBN(t *testing.T) {
	for _, in := range []string{"9780000000001", "978-0-00-000000-1", "978 0 00 000000 1", " 978-000000000-1 "} {
		assert.Equal(t, "9780000000001", NormalizeISBN(in), in)
	}
	assert.Equal(t, "080442957X", NormalizeISBN("0-8044-2957-x"))
}

func TestQuery_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Query
		page  int
		limit int
	}{
		{"defaults", Query{}, 1, DefaultLimit},
		{"negative page", Query{Page: -3, Limit: 5}, 1, 5},
		{"limit capped", Query{Page: 2, Limit: 1000}, 2, MaxLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.in.Normalize()
			assert.Equal(t, tt.page, q.Page)
			assert.Equal(t, tt.limit, q.Limit)
		})
	}

	assert.Equal(t, 20, Query{Page: 3, Limit: 10}.Offset())
}

func TestPatch_Apply(t *testing.T) {
	base := Book{ID: "b1", Title: "Old", TotalCopies: 5, Copies: 3}

	t.Run("fields", func(t *testing.T) {
		got, err := Patch{Title: strPtr("New"), Genre: strPtr("Sci-Fi")}.Apply(base)
		require.NoError(t, err)
		assert.Equal(t, "New", got.Title)
		assert.Equal(t, "Sci-Fi", got.Genre)
		assert.Equal(t, 5, got.TotalCopies)
		assert.Equal(t, 3, got.Copies)
	})

	t.Run("raising total raises shelf count", func(t *testing.T) {
		got, err := Patch{Copies: intPtr(8)}.Apply(base)
		require.NoError(t, err)
		assert.Equal(t, 8, got.TotalCopies)
		assert.Equal(t, 6, got.Copies)
		assert.Equal(t, base.OnLoan(), got.OnLoan())
	})

	t.Run("lowering total to loaned count", func(t *testing.T) {
		got, err := Patch{Copies: intPtr(2)}.Apply(base)
		require.NoError(t, err)
		assert.Equal(t, 0, got.Copies)
	})

	t.Run("below loaned count", func(t *testing.T) {
		_, err := Patch{Copies: intPtr(1)}.Apply(base)
		assert.ErrorIs(t, err, ErrCopiesOnLoan)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
	})
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1965-08-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("1965-08-01T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Hour())

	_, err = ParseDate("August 1965")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
