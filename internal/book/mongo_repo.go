package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"libraryapi/internal/apperr"
	"libraryapi/internal/platform/database"
)

// Document is the stored form of a Book in the books collection.
type Document struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Title           string             `bson:"title"`
	Author          string             `bson:"author"`
	ISBN            string             `bson:"isbn"`
	PublicationDate time.Time          `bson:"publicationDate"`
	Genre           string             `bson:"genre"`
	TotalCopies     int                `bson:"totalCopies"`
	Copies          int                `bson:"copies"`
	CreatedAt       time.Time          `bson:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt"`
}

func (d Document) Book() Book {
	return Book{
		ID:              d.ID.Hex(),
		Title:           d.Title,
		Author:          d.Author,
		ISBN:            d.ISBN,
		PublicationDate: d.PublicationDate.UTC(),
		Genre:           d.Genre,
		TotalCopies:     d.TotalCopies,
		Copies:          d.Copies,
		CreatedAt:       d.CreatedAt.UTC(),
		UpdatedAt:       d.UpdatedAt.UTC(),
	}
}

// errConcurrentUpdate is returned when the total copy count keeps changing
// under an update.
var errConcurrentUpdate = apperr.New(apperr.ErrInvalidState, "Book was modified concurrently, try again")

const maxUpdateAttempts = 3

type MongoRepo struct {
	db      *mongo.Database
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(db *mongo.Database, timeout time.Duration) *MongoRepo {
	return &MongoRepo{db: db, coll: db.Collection(database.BooksCollection), timeout: timeout}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func listFilter(q Query) bson.M {
	filter := bson.M{}
	if q.Genre != "" {
		filter["genre"] = q.Genre
	}
	if q.Author != "" {
		filter["author"] = q.Author
	}
	return filter
}

func (r *MongoRepo) List(ctx context.Context, q Query) ([]Book, int, error) {
	q = q.Normalize()
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	filter := listFilter(q)
	total, err := r.coll.CountDocuments(timeoutCtx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(q.Offset())).
		SetLimit(int64(q.Limit))
	cur, err := r.coll.Find(timeoutCtx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}

	var docs []Document
	if err := cur.All(timeoutCtx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode books: %w", err)
	}
	books := make([]Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.Book())
	}
	return books, int(total), nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (Book, error) {
	oid, ok := database.ObjectID(id)
	if !ok {
		return Book{}, ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.findByID(timeoutCtx, oid)
}

func (r *MongoRepo) findByID(ctx context.Context, oid primitive.ObjectID) (Book, error) {
	var doc Document
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("find book: %w", err)
	}
	return doc.Book(), nil
}

func (r *MongoRepo) Create(ctx context.Context, b *Book) error {
	now := time.Now().UTC()
	doc := Document{
		ID:              primitive.NewObjectID(),
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		PublicationDate: b.PublicationDate,
		Genre:           b.Genre,
		TotalCopies:     b.TotalCopies,
		Copies:          b.TotalCopies,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.coll.InsertOne(timeoutCtx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("insert book: %w", err)
	}
	*b = doc.Book()
	return nil
}

// updateFilter matches the book only while its total is still the one the
// delta was computed from and enough copies are on the shelf to absorb it.
func updateFilter(oid primitive.ObjectID, total, delta int) bson.M {
	return bson.M{
		"_id":         oid,
		"totalCopies": total,
		"copies":      bson.M{"$gte": -delta},
	}
}

func updateDocument(next Book, delta int, at time.Time) bson.M {
	return bson.M{
		"$set": bson.M{
			"title":           next.Title,
			"author":          next.Author,
			"isbn":            next.ISBN,
			"publicationDate": next.PublicationDate,
			"genre":           next.Genre,
			"updatedAt":       at,
		},
		"$inc": bson.M{"copies": delta, "totalCopies": delta},
	}
}

// Update guards the copies change with the total it was computed from and
// with enough copies on the shelf, so a concurrent borrow either lands before
// (and is accounted for) or fails the filter.
func (r *MongoRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	oid, ok := database.ObjectID(id)
	if !ok {
		return Book{}, ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	current, err := r.findByID(timeoutCtx, oid)
	if err != nil {
		return Book{}, err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		next, err := p.Apply(current)
		if err != nil {
			return Book{}, err
		}
		delta := next.TotalCopies - current.TotalCopies

		var doc Document
		err = r.coll.FindOneAndUpdate(timeoutCtx,
			updateFilter(oid, current.TotalCopies, delta),
			updateDocument(next, delta, time.Now().UTC()),
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
		if err == nil {
			return doc.Book(), nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return Book{}, ErrDuplicateISBN
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return Book{}, fmt.Errorf("update book: %w", err)
		}

		// The filter missed: the book is gone, the total moved, or too
		// many copies are now out.
		current, err = r.findByID(timeoutCtx, oid)
		if err != nil {
			return Book{}, err
		}
	}
	return Book{}, errConcurrentUpdate
}

func deleteFilter(oid primitive.ObjectID) bson.M {
	return bson.M{
		"_id":   oid,
		"$expr": bson.M{"$eq": bson.A{"$copies", "$totalCopies"}},
	}
}

// Delete removes the book only while every copy is on the shelf; the check
// and the delete are one conditional write on the book document.
func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	oid, ok := database.ObjectID(id)
	if !ok {
		return ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(timeoutCtx, func(sc mongo.SessionContext) (any, error) {
		res, err := r.coll.DeleteOne(sc, deleteFilter(oid))
		if err != nil {
			return nil, fmt.Errorf("delete book: %w", err)
		}
		if res.DeletedCount == 0 {
			if _, err := r.findByID(sc, oid); err != nil {
				return nil, err
			}
			return nil, ErrOnLoan
		}

		_, err = r.db.Collection(database.BorrowsCollection).DeleteMany(sc, bson.M{"book": oid})
		if err != nil {
			return nil, fmt.Errorf("delete borrow history: %w", err)
		}
		return nil, nil
	})
	return err
}
