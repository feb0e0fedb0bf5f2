package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Images      []string           `bson:"images" json:"images"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Normalize replaces a nil image list with an empty one so it encodes as [].
func (p *Product) Normalize() {
	if p.Images == nil {
		p.Images = []string{}
	}
}

// ProductPatch carries the fields of a partial update. Nil and empty values
// are left unchanged.
type ProductPatch struct {
	Name        string
	Price       *float64
	Description string
	Category    string
	Images      []string
}

// ProductSummary is the subset of a product embedded in expanded order
// line items.
type ProductSummary struct {
	ID          primitive.ObjectID `json:"_id"`
	Name        string             `json:"name"`
	Price       float64            `json:"price"`
	Description string             `json:"description"`
	Category    string             `json:"category,omitempty"`
	Images      []string           `json:"images"`
}

// Summary returns the embeddable view of p. Category is only carried when
// withCategory is set.
func (p Product) Summary(withCategory bool) *ProductSummary {
	s := &ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Images:      p.Images,
	}
	if s.Images == nil {
		s.Images = []string{}
	}
	if withCategory {
		s.Category = p.Category
	}
	return s
}
