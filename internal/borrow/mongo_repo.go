package borrow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"libraryapi/internal/book"
	"libraryapi/internal/platform/database"
	"libraryapi/internal/user"
)

// Document is the stored form of a Record in the borrows collection.
type Document struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	User       primitive.ObjectID `bson:"user"`
	Book       primitive.ObjectID `bson:"book"`
	BorrowDate time.Time          `bson:"borrowDate"`
	ReturnDate *time.Time         `bson:"returnDate,omitempty"`
	IsReturned bool               `bson:"isReturned"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func (d Document) Record() Record {
	rec := Record{
		ID:         d.ID.Hex(),
		UserID:     d.User.Hex(),
		BookID:     d.Book.Hex(),
		BorrowDate: d.BorrowDate.UTC(),
		IsReturned: d.IsReturned,
		CreatedAt:  d.CreatedAt.UTC(),
	}
	if d.ReturnDate != nil {
		t := d.ReturnDate.UTC()
		rec.ReturnDate = &t
	}
	return rec
}

type MongoRepo struct {
	db      *mongo.Database
	borrows *mongo.Collection
	books   *mongo.Collection
	users   *mongo.Collection
	timeout time.Duration
}

func NewMongoRepo(db *mongo.Database, timeout time.Duration) *MongoRepo {
	return &MongoRepo{
		db:      db,
		borrows: db.Collection(database.BorrowsCollection),
		books:   db.Collection(database.BooksCollection),
		users:   db.Collection(database.UsersCollection),
		timeout: timeout,
	}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *MongoRepo) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// takeCopyFilter matches the book only while a copy is on the shelf.
func takeCopyFilter(bookOID primitive.ObjectID) bson.M {
	return bson.M{"_id": bookOID, "copies": bson.M{"$gte": 1}}
}

// restoreCopyFilter matches the book only while at least one copy is out.
func restoreCopyFilter(bookOID primitive.ObjectID) bson.M {
	return bson.M{"_id": bookOID, "$expr": bson.M{"$lt": bson.A{"$copies", "$totalCopies"}}}
}

// Borrow relies on the copies filter of FindOneAndUpdate: the decrement only
// matches while a copy is on the shelf, so the count never goes negative.
func (r *MongoRepo) Borrow(ctx context.Context, userID, bookID string, at time.Time) (Detail, error) {
	bookOID, ok := database.ObjectID(bookID)
	if !ok {
		return Detail{}, book.ErrNotFound
	}
	userOID, ok := database.ObjectID(userID)
	if !ok {
		return Detail{}, user.ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var d Detail
	err := r.inTransaction(timeoutCtx, func(sc mongo.SessionContext) error {
		var u user.Document
		if err := r.users.FindOne(sc, bson.M{"_id": userOID}).Decode(&u); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return user.ErrNotFound
			}
			return fmt.Errorf("load borrower: %w", err)
		}

		var b book.Document
		err := r.books.FindOneAndUpdate(sc,
			takeCopyFilter(bookOID),
			bson.M{"$inc": bson.M{"copies": -1}, "$set": bson.M{"updatedAt": at}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&b)
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, err := r.books.CountDocuments(sc, bson.M{"_id": bookOID})
			if err != nil {
				return fmt.Errorf("check book: %w", err)
			}
			if n == 0 {
				return book.ErrNotFound
			}
			return ErrUnavailable
		}
		if err != nil {
			return fmt.Errorf("take copy: %w", err)
		}

		doc := Document{
			ID:         primitive.NewObjectID(),
			User:       userOID,
			Book:       bookOID,
			BorrowDate: at,
			IsReturned: false,
			CreatedAt:  at,
		}
		if _, err := r.borrows.InsertOne(sc, doc); err != nil {
			return fmt.Errorf("insert borrow: %w", err)
		}

		d = Detail{Record: doc.Record(), Book: b.Book(), User: u.User()}
		return nil
	})
	if err != nil {
		return Detail{}, err
	}
	return d, nil
}

func (r *MongoRepo) Return(ctx context.Context, userID, borrowID string, at time.Time) (Record, error) {
	oid, ok := database.ObjectID(borrowID)
	if !ok {
		return Record{}, ErrNotFound
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var rec Record
	err := r.inTransaction(timeoutCtx, func(sc mongo.SessionContext) error {
		var doc Document
		if err := r.borrows.FindOne(sc, bson.M{"_id": oid}).Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return fmt.Errorf("load borrow: %w", err)
		}
		if doc.User.Hex() != userID {
			return ErrNotOwner
		}
		if doc.IsReturned {
			return ErrAlreadyReturned
		}

		res, err := r.borrows.UpdateOne(sc,
			bson.M{"_id": oid, "isReturned": false},
			bson.M{"$set": bson.M{"isReturned": true, "returnDate": at}},
		)
		if err != nil {
			return fmt.Errorf("close borrow: %w", err)
		}
		if res.MatchedCount == 0 {
			return ErrAlreadyReturned
		}

		res, err = r.books.UpdateOne(sc,
			restoreCopyFilter(doc.Book),
			bson.M{"$inc": bson.M{"copies": 1}, "$set": bson.M{"updatedAt": at}},
		)
		if err != nil {
			return fmt.Errorf("restore copy: %w", err)
		}
		if res.MatchedCount == 0 {
			return fmt.Errorf("restore copy of book %s: shelf count already at total", doc.Book.Hex())
		}

		doc.IsReturned = true
		doc.ReturnDate = &at
		rec = doc.Record()
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

type historyRow struct {
	Document    `bson:",inline"`
	BookDetails book.Document `bson:"bookDetails"`
	UserDetails user.Document `bson:"userDetails"`
}

func lookupStage(from, localField, as string) bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: from},
		{Key: "localField", Value: localField},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: as},
	}}}
}

func unwindStage(path string) bson.D {
	return bson.D{{Key: "$unwind", Value: "$" + path}}
}

func historyPipeline(userOID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "user", Value: userOID}}}},
		{{Key: "$sort", Value: bson.D{{Key: "borrowDate", Value: 1}, {Key: "_id", Value: 1}}}},
		lookupStage(database.BooksCollection, "book", "bookDetails"),
		unwindStage("bookDetails"),
		lookupStage(database.UsersCollection, "user", "userDetails"),
		unwindStage("userDetails"),
	}
}

func (r *MongoRepo) History(ctx context.Context, userID string) ([]Detail, error) {
	oid, ok := database.ObjectID(userID)
	if !ok {
		return []Detail{}, nil
	}
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	cur, err := r.borrows.Aggregate(timeoutCtx, historyPipeline(oid))
	if err != nil {
		return nil, fmt.Errorf("aggregate history: %w", err)
	}
	var rows []historyRow
	if err := cur.All(timeoutCtx, &rows); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	history := make([]Detail, 0, len(rows))
	for _, row := range rows {
		history = append(history, Detail{
			Record: row.Document.Record(),
			Book:   row.BookDetails.Book(),
			User:   row.UserDetails.User(),
		})
	}
	return history, nil
}

// rankingPipeline groups borrows by field, counts them and joins the details
// from the given collection. Ties sort by the grouped id.
func rankingPipeline(match bson.D, field, from string, limit int) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if len(match) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: match}})
	}
	return append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
		lookupStage(from, "_id", "details"),
		unwindStage("details"),
	)
}

func (r *MongoRepo) MostBorrowed(ctx context.Context, limit int) ([]BookCount, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	cur, err := r.borrows.Aggregate(timeoutCtx, rankingPipeline(nil, "book", database.BooksCollection, limit))
	if err != nil {
		return nil, fmt.Errorf("aggregate most borrowed: %w", err)
	}
	var rows []struct {
		Count   int           `bson:"count"`
		Details book.Document `bson:"details"`
	}
	if err := cur.All(timeoutCtx, &rows); err != nil {
		return nil, fmt.Errorf("decode most borrowed: %w", err)
	}

	result := make([]BookCount, 0, len(rows))
	for _, row := range rows {
		result = append(result, BookCount{Book: row.Details.Book(), Count: row.Count})
	}
	return result, nil
}

func (r *MongoRepo) ActiveMembers(ctx context.Context, limit int) ([]MemberCount, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	match := bson.D{{Key: "isReturned", Value: true}}
	cur, err := r.borrows.Aggregate(timeoutCtx, rankingPipeline(match, "user", database.UsersCollection, limit))
	if err != nil {
		return nil, fmt.Errorf("aggregate active members: %w", err)
	}
	var rows []struct {
		Count   int           `bson:"count"`
		Details user.Document `bson:"details"`
	}
	if err := cur.All(timeoutCtx, &rows); err != nil {
		return nil, fmt.Errorf("decode active members: %w", err)
	}

	result := make([]MemberCount, 0, len(rows))
	for _, row := range rows {
		result = append(result, MemberCount{User: row.Details.User(), Count: row.Count})
	}
	return result, nil
}

func (r *MongoRepo) Availability(ctx context.Context) (Availability, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$totalCopies"}}},
			{Key: "available", Value: bson.D{{Key: "$sum", Value: "$copies"}}},
		}}},
	}
	cur, err := r.books.Aggregate(timeoutCtx, pipeline)
	if err != nil {
		return Availability{}, fmt.Errorf("aggregate availability: %w", err)
	}
	var rows []struct {
		Total     int `bson:"total"`
		Available int `bson:"available"`
	}
	if err := cur.All(timeoutCtx, &rows); err != nil {
		return Availability{}, fmt.Errorf("decode availability: %w", err)
	}
	if len(rows) == 0 {
		return NewAvailability(0, 0), nil
	}
	return NewAvailability(rows[0].Total, rows[0].Available), nil
}
