package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// ProductRepository handles the products collection.
type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(database.Products)}
}

func categoryFilter(category string) bson.M {
	if category == "" {
		return bson.M{}
	}
	return bson.M{"category": category}
}

// patchUpdate builds the $set document for a partial update.
func patchUpdate(p models.ProductPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Name != "" {
		set["name"] = p.Name
	}
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.Description != "" {
		set["description"] = p.Description
	}
	if p.Category != "" {
		set["category"] = p.Category
	}
	if p.Images != nil {
		set["images"] = p.Images
	}
	return bson.M{"$set": set}
}

// List returns all products, filtered by exact category when non-empty.
func (r *ProductRepository) List(ctx context.Context, category string) ([]models.Product, error) {
	defer metrics.ObserveDBQuery(database.Products, "find", time.Now())

	cur, err := r.col.Find(ctx, categoryFilter(category))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}

	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for i := range products {
		products[i].Normalize()
	}
	return products, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	defer metrics.ObserveDBQuery(database.Products, "find_one", time.Now())

	var p models.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	p.Normalize()
	return &p, nil
}

// FindMany returns the products with the given ids keyed by id. Missing ids
// are simply absent from the map.
func (r *ProductRepository) FindMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error) {
	out := make(map[primitive.ObjectID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	defer metrics.ObserveDBQuery(database.Products, "find", time.Now())

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var products []models.Product
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for _, p := range products {
		p.Normalize()
		out[p.ID] = p
	}
	return out, nil
}

// Create inserts p and sets its id and timestamps.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveDBQuery(database.Products, "insert", time.Now())

	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Normalize()

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert product: %w", translate(err))
	}
	return nil
}

// Update applies patch and returns the updated document.
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error) {
	defer metrics.ObserveDBQuery(database.Products, "update", time.Now())

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, patchUpdate(patch, time.Now().UTC()), opts).Decode(&p)
	if err != nil {
		return nil, translate(err)
	}
	p.Normalize()
	return &p, nil
}

// AddImage appends url to the product's images.
func (r *ProductRepository) AddImage(ctx context.Context, id primitive.ObjectID, url string) (*models.Product, error) {
	defer metrics.ObserveDBQuery(database.Products, "update", time.Now())

	update := bson.M{
		"$push": bson.M{"images": url},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p models.Product
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&p); err != nil {
		return nil, translate(err)
	}
	p.Normalize()
	return &p, nil
}

// Delete removes the product. ErrNotFound when nothing matched.
func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer metrics.ObserveDBQuery(database.Products, "delete", time.Now())

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveDBQuery(database.Products, "count", time.Now())
	return r.col.CountDocuments(ctx, bson.M{})
}
