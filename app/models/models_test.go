package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserPasswordNeverEncoded(t *testing.T) {
	b, err := json.Marshal(User{Name: "Ann", Email: "ann@example.com", Password: "$2a$10$hash"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "password")
	assert.NotContains(t, string(b), "$2a$10$hash")
}

func TestProductNormalizeEncodesEmptyImages(t *testing.T) {
	p := Product{Name: "Lamp"}
	p.Normalize()

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"images":[]`)
}

func TestOrderExpand(t *testing.T) {
	lamp := Product{ID: primitive.NewObjectID(), Name: "Lamp", Price: 10, Category: "home"}
	gone := primitive.NewObjectID()
	order := Order{
		ID:       primitive.NewObjectID(),
		Products: []LineItem{{ProductID: lamp.ID, Quantity: 2}, {ProductID: gone, Quantity: 1}},
		Status:   StatusPending,
	}

	view := order.Expand(map[primitive.ObjectID]Product{lamp.ID: lamp}, true)

	require.Len(t, view.Products, 2)
	require.NotNil(t, view.Products[0].Product)
	assert.Equal(t, "Lamp", view.Products[0].Product.Name)
	assert.Equal(t, "home", view.Products[0].Product.Category)
	assert.Equal(t, []string{}, view.Products[0].Product.Images)
	assert.Nil(t, view.Products[1].Product)

	b, err := json.Marshal(view)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"productId":null`)

	withoutCategory := order.Expand(map[primitive.ObjectID]Product{lamp.ID: lamp}, false)
	assert.Empty(t, withoutCategory.Products[0].Product.Category)
}

func TestProductIDsDistinct(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	orders := []Order{
		{Products: []LineItem{{ProductID: a}, {ProductID: b}}},
		{Products: []LineItem{{ProductID: a}}},
	}
	assert.Equal(t, []primitive.ObjectID{a, b}, ProductIDs(orders...))
}
