package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/model"
)

const BooksCollection = "books"

type bookDocument struct {
	ID            string    `bson:"_id"`
	Title         string    `bson:"title"`
	Author        string    `bson:"author"`
	PublishedYear int       `bson:"publishedYear"`
	ISBN          string    `bson:"ISBN"`
	Genre         string    `bson:"genre"`
	StockCount    int       `bson:"stockCount"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func toDocument(b *model.Book) bookDocument {
	return bookDocument{
		ID:            b.ID.String(),
		Title:         b.Title,
		Author:        b.Author,
		PublishedYear: b.PublishedYear,
		ISBN:          b.ISBN,
		Genre:         b.Genre,
		StockCount:    b.StockCount,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (d bookDocument) toModel() (model.Book, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.Book{}, fmt.Errorf("decode book id %q: %w", d.ID, err)
	}
	return model.Book{
		ID:            id,
		Title:         d.Title,
		Author:        d.Author,
		PublishedYear: d.PublishedYear,
		ISBN:          d.ISBN,
		Genre:         d.Genre,
		StockCount:    d.StockCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

// MongoBookRepository keeps one document per book, keyed by the book UUID.
type MongoBookRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoBookRepository(client *mongo.Client, database string) *MongoBookRepository {
	return &MongoBookRepository{
		client: client,
		coll:   client.Database(database).Collection(BooksCollection),
	}
}

// EnsureIndexes creates the unique ISBN index and the compound text index
// over title, author, genre and ISBN.
func (r *MongoBookRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ISBN", Value: 1}},
			Options: options.Index().SetName("isbn_unique").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "author", Value: "text"},
				{Key: "genre", Value: "text"},
				{Key: "ISBN", Value: "text"},
			},
			Options: options.Index().SetName("book_text"),
		},
	})
	if err != nil {
		return fmt.Errorf("create book indexes: %w", err)
	}
	return nil
}

func (r *MongoBookRepository) Create(ctx context.Context, book *model.Book) error {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	book.CreatedAt = now
	book.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, toDocument(book)); err != nil {
		return translateMongoError(err)
	}
	return nil
}

func (r *MongoBookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *MongoBookRepository) FindByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	return r.findOne(ctx, bson.M{"ISBN": isbn})
}

func (r *MongoBookRepository) findOne(ctx context.Context, filter bson.M) (*model.Book, error) {
	var doc bookDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongoError(err)
	}

	book, err := doc.toModel()
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *MongoBookRepository) List(ctx context.Context) ([]model.Book, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bookDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	books := make([]model.Book, 0, len(docs))
	for _, d := range docs {
		b, err := d.toModel()
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

func (r *MongoBookRepository) Update(ctx context.Context, book *model.Book) error {
	book.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": book.ID.String()},
		bson.M{"$set": bson.M{
			"title":         book.Title,
			"author":        book.Author,
			"publishedYear": book.PublishedYear,
			"ISBN":          book.ISBN,
			"genre":         book.Genre,
			"stockCount":    book.StockCount,
			"updatedAt":     book.UpdatedAt,
		}},
	)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoBookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoBookRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func translateMongoError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicateISBN, err)
	}
	return err
}
