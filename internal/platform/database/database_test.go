package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestValidUUID(t *testing.T) {
	assert.True(t, ValidUUID("7f1c1e2a-4b1e-4a55-9f0e-0d5b0b8e8a11"))
	assert.False(t, ValidUUID("not-a-uuid"))
	assert.False(t, ValidUUID(""))
}

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}
	check := &pgconn.PgError{Code: "23514"}

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsUniqueViolation(fk))
	assert.True(t, IsForeignKeyViolation(fk))
	assert.True(t, IsCheckViolation(check))
	assert.False(t, IsCheckViolation(errors.New("plain")))
}

func TestObjectID(t *testing.T) {
	want := primitive.NewObjectID()

	got, ok := ObjectID(want.Hex())
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok = ObjectID("xyz")
	assert.False(t, ok)
}
