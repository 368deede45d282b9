package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/book-exchange/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type nameDoc struct {
	First string `bson:"firstName"`
	Last  string `bson:"lastName"`
}

type addressDoc struct {
	HouseNo    string `bson:"houseNo"`
	Street     string `bson:"street"`
	Landmark   string `bson:"landmark"`
	City       string `bson:"city"`
	Country    string `bson:"country"`
	PostalCode string `bson:"pinCode"`
}

type userDoc struct {
	ID               string     `bson:"_id"`
	Username         string     `bson:"username"`
	Email            string     `bson:"email"`
	Name             nameDoc    `bson:"name"`
	Phone            string     `bson:"phoneNo"`
	Address          addressDoc `bson:"address"`
	ProfileCompleted bool       `bson:"profileCompleted"`
	Avatar           imageDoc   `bson:"avatar"`
	SellBooks        []string   `bson:"sellBooks"`
	BuyBooks         []string   `bson:"buyBooks"`
	PasswordHash     string     `bson:"passwordHash"`
	CreatedAt        time.Time  `bson:"createdAt"`
	UpdatedAt        time.Time  `bson:"updatedAt"`
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:               d.ID,
		Username:         d.Username,
		Email:            d.Email,
		Name:             domain.PersonName(d.Name),
		Phone:            d.Phone,
		Address:          domain.Address(d.Address),
		ProfileCompleted: d.ProfileCompleted,
		Avatar:           domain.ImageRef(d.Avatar),
		SellBooks:        d.SellBooks,
		BuyBooks:         d.BuyBooks,
		PasswordHash:     d.PasswordHash,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	if u.SellBooks == nil {
		u.SellBooks = []string{}
	}
	if u.BuyBooks == nil {
		u.BuyBooks = []string{}
	}
	return u
}

// userRepo implements domain.UserRepository on the users collection.
type userRepo struct {
	users *mongo.Collection
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Avatar.Key == "" {
		user.Avatar = domain.DefaultAvatar
	}
	if user.SellBooks == nil {
		user.SellBooks = []string{}
	}
	if user.BuyBooks == nil {
		user.BuyBooks = []string{}
	}

	now := time.Now().UTC()
	doc := userDoc{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		Name:             nameDoc(user.Name),
		Phone:            user.Phone,
		Address:          addressDoc(user.Address),
		ProfileCompleted: user.ProfileCompleted,
		Avatar:           imageDoc(user.Avatar),
		SellBooks:        user.SellBooks,
		BuyBooks:         user.BuyBooks,
		PasswordHash:     user.PasswordHash,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateUsername
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *userRepo) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *userRepo) Update(ctx context.Context, id string, patch domain.UserPatch) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = nameDoc(*patch.Name)
	}
	if patch.Phone != nil {
		set["phoneNo"] = *patch.Phone
	}
	if patch.Address != nil {
		set["address"] = addressDoc(*patch.Address)
	}
	if patch.Avatar != nil {
		set["avatar"] = imageDoc(*patch.Avatar)
	}
	if patch.ProfileCompleted != nil {
		set["profileCompleted"] = *patch.ProfileCompleted
	}

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepo) AppendListing(ctx context.Context, userID, bookID string, kind domain.ListingKind) error {
	field := "sellBooks"
	if kind == domain.ListingBuy {
		field = "buyBooks"
	}

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{field: bookID}},
	)
	if err != nil {
		return fmt.Errorf("append %s listing: %w", kind, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
