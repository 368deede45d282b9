package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/book-exchange/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type bookDoc struct {
	ID        string     `bson:"_id"`
	Title     string     `bson:"title"`
	ISBN      string     `bson:"isbn"`
	Year      string     `bson:"year"`
	Topic     string     `bson:"topic"`
	Author    string     `bson:"author"`
	Price     float64    `bson:"price"`
	Images    []imageDoc `bson:"images"`
	SellerID  string     `bson:"seller"`
	BuyerID   string     `bson:"buyer,omitempty"`
	CreatedAt time.Time  `bson:"createdAt"`
}

func (d *bookDoc) toDomain() *domain.Book {
	return &domain.Book{
		ID:        d.ID,
		Title:     d.Title,
		ISBN:      d.ISBN,
		Year:      d.Year,
		Topic:     d.Topic,
		Author:    d.Author,
		Price:     d.Price,
		Images:    fromImageDocs(d.Images),
		SellerID:  d.SellerID,
		BuyerID:   d.BuyerID,
		CreatedAt: d.CreatedAt,
	}
}

// bookRepo implements domain.BookRepository on the books collection. It also
// holds the users collection so Delete can pull the seller's reference.
type bookRepo struct {
	books *mongo.Collection
	users *mongo.Collection
}

func (r *bookRepo) Create(ctx context.Context, book *domain.Book) error {
	n, err := r.users.CountDocuments(ctx, bson.M{"_id": book.SellerID})
	if err != nil {
		return fmt.Errorf("check seller: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("seller %s: %w", book.SellerID, domain.ErrNotFound)
	}

	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc := bookDoc{
		ID:        book.ID,
		Title:     book.Title,
		ISBN:      book.ISBN,
		Year:      book.Year,
		Topic:     book.Topic,
		Author:    book.Author,
		Price:     book.Price,
		Images:    toImageDocs(book.Images),
		SellerID:  book.SellerID,
		BuyerID:   book.BuyerID,
		CreatedAt: now,
	}
	if _, err := r.books.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}

	book.CreatedAt = now
	return nil
}

func (r *bookRepo) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	var doc bookDoc
	if err := r.books.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *bookRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Book, error) {
	if len(ids) == 0 {
		return []domain.Book{}, nil
	}

	cur, err := r.books.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	byID := make(map[string]*bookDoc, len(docs))
	for i := range docs {
		byID[docs[i].ID] = &docs[i]
	}
	books := make([]domain.Book, 0, len(ids))
	for _, id := range ids {
		if d, ok := byID[id]; ok {
			books = append(books, *d.toDomain())
		}
	}
	return books, nil
}

func (r *bookRepo) List(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	query := bson.M{}
	if filter.Query != "" {
		re := bson.M{"$regex": regexp.QuoteMeta(filter.Query), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"author": re},
			bson.M{"topic": re},
			bson.M{"isbn": re},
		}
	}

	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	switch filter.Sort {
	case domain.SortPriceAsc:
		sort = bson.D{{Key: "price", Value: 1}, {Key: "createdAt", Value: -1}}
	case domain.SortPriceDesc:
		sort = bson.D{{Key: "price", Value: -1}, {Key: "createdAt", Value: -1}}
	}

	cur, err := r.books.Find(ctx, query, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	var docs []bookDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	books := make([]domain.Book, len(docs))
	for i := range docs {
		books[i] = *docs[i].toDomain()
	}
	return books, nil
}

func (r *bookRepo) Update(ctx context.Context, id string, patch domain.BookPatch) error {
	update := bson.M{}
	if patch.BuyerID != nil {
		if *patch.BuyerID == "" {
			update["$unset"] = bson.M{"buyer": ""}
		} else {
			update["$set"] = bson.M{"buyer": *patch.BuyerID}
		}
	}
	if len(update) == 0 {
		_, err := r.GetByID(ctx, id)
		return err
	}

	res, err := r.books.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the book document, then pulls its id from the seller's
// sellBooks array. The two writes touch different documents and are not
// atomic.
func (r *bookRepo) Delete(ctx context.Context, id string) (*domain.Book, error) {
	var doc bookDoc
	if err := r.books.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("delete book: %w", err)
	}

	if _, err := r.users.UpdateOne(ctx,
		bson.M{"_id": doc.SellerID},
		bson.M{"$pull": bson.M{"sellBooks": id}},
	); err != nil {
		return nil, fmt.Errorf("pull sell listing: %w", err)
	}
	return doc.toDomain(), nil
}
