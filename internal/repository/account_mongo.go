package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/art-gallery/internal/model"
)

// AccountsCollection is the collection holding account documents.
const AccountsCollection = "users"

// accountDoc mirrors a document in the users collection.
type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"userName"`
	Email        string             `bson:"email"`
	FirstName    string             `bson:"firstName"`
	LastName     string             `bson:"lastName"`
	PhoneNumber  string             `bson:"phoneNumber"`
	Address      string             `bson:"address"`
	Avatar       string             `bson:"avatar,omitempty"`
	PasswordHash string             `bson:"passwordHash"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d accountDoc) toModel() *model.Account {
	return &model.Account{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		PhoneNumber:  d.PhoneNumber,
		Address:      d.Address,
		Avatar:       d.Avatar,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// mongoAccountField maps lookup fields to document keys.
var mongoAccountField = map[Field]string{
	FieldID:       "_id",
	FieldUsername: "userName",
	FieldEmail:    "email",
}

// MongoAccountRepo stores accounts in MongoDB.
type MongoAccountRepo struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoAccountRepo(db *mongo.Database) *MongoAccountRepo {
	return &MongoAccountRepo{collection: db.Collection(AccountsCollection), now: time.Now}
}

// EnsureIndexes creates the unique indexes that make the store the final
// arbiter of username and email uniqueness.
func (r *MongoAccountRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userName", Value: 1}},
			Options: options.Index().SetName("ux_accounts_username").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("ux_accounts_email").SetUnique(true),
		},
	})
	return errors.Wrap(err, "create account indexes")
}

func (r *MongoAccountRepo) FindByField(ctx context.Context, field Field, value string) (*model.Account, error) {
	key, ok := mongoAccountField[field]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownField, "field %q", field)
	}
	var filter bson.M
	switch field {
	case FieldID:
		oid, err := primitive.ObjectIDFromHex(value)
		if err != nil {
			return nil, ErrNotFound
		}
		filter = bson.M{key: oid}
	case FieldEmail:
		filter = bson.M{key: NormalizeEmail(value)}
	default:
		filter = bson.M{key: value}
	}

	var doc accountDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find account by %s", field)
	}
	return doc.toModel(), nil
}

func (r *MongoAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	return r.FindByField(ctx, FieldID, id)
}

// Insert stores a new account and returns it with its generated id.
func (r *MongoAccountRepo) Insert(ctx context.Context, a *model.Account) (*model.Account, error) {
	now := r.now().UTC()
	doc := accountDoc{
		ID:           primitive.NewObjectID(),
		Username:     a.Username,
		Email:        NormalizeEmail(a.Email),
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		PhoneNumber:  a.PhoneNumber,
		Address:      a.Address,
		Avatar:       a.Avatar,
		PasswordHash: a.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "insert account")
	}
	return doc.toModel(), nil
}

// UpdateFields applies patch to the account and returns the updated record.
func (r *MongoAccountRepo) UpdateFields(ctx context.Context, id string, patch model.AccountPatch) (*model.Account, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": r.now().UTC()}
	if patch.FirstName != nil {
		set["firstName"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["lastName"] = *patch.LastName
	}
	if patch.Email != nil {
		set["email"] = NormalizeEmail(*patch.Email)
	}
	if patch.PhoneNumber != nil {
		set["phoneNumber"] = *patch.PhoneNumber
	}
	if patch.Address != nil {
		set["address"] = *patch.Address
	}
	if patch.Avatar != nil {
		set["avatar"] = *patch.Avatar
	}

	var doc accountDoc
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, ErrDuplicate
	case err != nil:
		return nil, errors.Wrap(err, "update account")
	}
	return doc.toModel(), nil
}
