// Package services holds the business rules behind each endpoint. Services
// depend on the store interfaces below, satisfied by app/repositories.
package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
)

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// ProductLookup is the read side of the catalog used by the order flow.
type ProductLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Product, error)
}

type ProductStore interface {
	ProductLookup
	List(ctx context.Context, category string) ([]models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, patch models.ProductPatch) (*models.Product, error)
	AddImage(ctx context.Context, id primitive.ObjectID, url string) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
}
