package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// LineItem is one (product, quantity) pair of an order.
type LineItem struct {
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// Order is a placed order. TotalPrice is computed server-side at creation
// and the line items never change afterwards.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User            primitive.ObjectID `bson:"user" json:"user"`
	Products        []LineItem         `bson:"products" json:"products"`
	TotalPrice      float64            `bson:"totalPrice" json:"totalPrice"`
	Status          string             `bson:"status" json:"status"`
	ShippingAddress string             `bson:"shippingAddress" json:"shippingAddress"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ExpandedLineItem is a line item whose product reference has been
// resolved. Product is nil when the product no longer exists.
type ExpandedLineItem struct {
	Product  *ProductSummary `json:"productId"`
	Quantity int             `json:"quantity"`
}

// OrderView is an order with expanded line items.
type OrderView struct {
	ID              primitive.ObjectID `json:"_id"`
	User            primitive.ObjectID `json:"user"`
	Products        []ExpandedLineItem `json:"products"`
	TotalPrice      float64            `json:"totalPrice"`
	Status          string             `json:"status"`
	ShippingAddress string             `json:"shippingAddress"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Expand resolves every line item against products. withCategory controls
// whether the embedded summaries carry the category.
func (o Order) Expand(products map[primitive.ObjectID]Product, withCategory bool) OrderView {
	items := make([]ExpandedLineItem, 0, len(o.Products))
	for _, li := range o.Products {
		item := ExpandedLineItem{Quantity: li.Quantity}
		if p, ok := products[li.ProductID]; ok {
			item.Product = p.Summary(withCategory)
		}
		items = append(items, item)
	}
	return OrderView{
		ID:              o.ID,
		User:            o.User,
		Products:        items,
		TotalPrice:      o.TotalPrice,
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ProductIDs returns the distinct product references of orders.
func ProductIDs(orders ...Order) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, o := range orders {
		for _, li := range o.Products {
			if _, ok := seen[li.ProductID]; ok {
				continue
			}
			seen[li.ProductID] = struct{}{}
			ids = append(ids, li.ProductID)
		}
	}
	return ids
}
