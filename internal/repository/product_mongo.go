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

// ProductsCollection is the collection holding catalog documents.
const ProductsCollection = "products"

type productDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Description   string             `bson:"description"`
	Price         float64            `bson:"price"`
	Color         string             `bson:"color,omitempty"`
	Dimensions    string             `bson:"dimensions,omitempty"`
	Type          string             `bson:"type,omitempty"`
	ImageURL      string             `bson:"productImage,omitempty"`
	OwnerUsername string             `bson:"associatedUsername"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d productDoc) toModel() model.Product {
	return model.Product{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Description:   d.Description,
		Price:         d.Price,
		Color:         d.Color,
		Dimensions:    d.Dimensions,
		Type:          d.Type,
		ImageURL:      d.ImageURL,
		OwnerUsername: d.OwnerUsername,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// MongoProductRepo stores products in MongoDB.
type MongoProductRepo struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoProductRepo(db *mongo.Database) *MongoProductRepo {
	return &MongoProductRepo{collection: db.Collection(ProductsCollection), now: time.Now}
}

// EnsureIndexes adds the secondary indexes used by listings.
func (r *MongoProductRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "type", Value: 1}}, Options: options.Index().SetName("ix_products_type")},
		{Keys: bson.D{{Key: "associatedUsername", Value: 1}}, Options: options.Index().SetName("ix_products_owner")},
	})
	return errors.Wrap(err, "create product indexes")
}

func (r *MongoProductRepo) Insert(ctx context.Context, p *model.Product) (*model.Product, error) {
	now := r.now().UTC()
	doc := productDoc{
		ID:            primitive.NewObjectID(),
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price,
		Color:         p.Color,
		Dimensions:    p.Dimensions,
		Type:          p.Type,
		ImageURL:      p.ImageURL,
		OwnerUsername: p.OwnerUsername,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return nil, errors.Wrap(err, "insert product")
	}
	out := doc.toModel()
	return &out, nil
}

func (r *MongoProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc productDoc
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find product")
	}
	out := doc.toModel()
	return &out, nil
}

// List returns products matching f, newest first.
func (r *MongoProductRepo) List(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.Owner != "" {
		filter["associatedUsername"] = f.Owner
	}
	cur, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer cur.Close(ctx)

	out := []model.Product{}
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decode product")
		}
		out = append(out, doc.toModel())
	}
	return out, errors.Wrap(cur.Err(), "iterate products")
}

func (r *MongoProductRepo) UpdateFields(ctx context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": r.now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Color != nil {
		set["color"] = *patch.Color
	}
	if patch.Dimensions != nil {
		set["dimensions"] = *patch.Dimensions
	}
	if patch.Type != nil {
		set["type"] = *patch.Type
	}
	if patch.ImageURL != nil {
		set["productImage"] = *patch.ImageURL
	}

	var doc productDoc
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	out := doc.toModel()
	return &out, nil
}
