package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// CreateOrderInput is the order payload. Both fields stay raw so a
// wrong-typed value is reported by the field rules instead of failing the
// whole body.
type CreateOrderInput struct {
	Products        json.RawMessage `json:"products"`
	ShippingAddress json.RawMessage `json:"shippingAddress"`
}

// orderItemInput is one requested line item. Zero values count as missing.
type orderItemInput struct {
	ProductID interface{} `json:"productId" validate:"required,objectid"`
	Quantity  interface{} `json:"quantity"  validate:"required,integer,gte=1,lte=2147483647"`
}

// OrderService places orders and reads them back for their owner.
type OrderService struct {
	orders   OrderStore
	products ProductLookup
	tokens   *auth.TokenService
}

func NewOrderService(orders OrderStore, products ProductLookup, tokens *auth.TokenService) *OrderService {
	return &OrderService{orders: orders, products: products, tokens: tokens}
}

// Authenticate resolves the caller from an Authorization header value. It
// runs before the order body is read.
func (s *OrderService) Authenticate(authorization string) (*auth.Claims, error) {
	token, ok := auth.BearerToken(authorization)
	if !ok {
		return nil, apperr.Unauthorized("Authentication required. Bearer token missing.")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "Invalid or expired token", err)
	}
	if !validate.ObjectID(claims.ID) {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}
	return claims, nil
}

// Create places an order for caller. Prices come from the catalog, never
// from the client.
func (s *OrderService) Create(ctx context.Context, caller *auth.Claims, in CreateOrderInput) (*models.Order, error) {
	items, err := decodeItems(in.Products)
	if err != nil {
		return nil, err
	}
	address, err := shippingAddress(in.ShippingAddress)
	if err != nil {
		return nil, err
	}

	var (
		total     float64
		lineItems = make([]models.LineItem, 0, len(items))
	)
	for _, item := range items {
		li, price, err := s.resolve(ctx, item)
		if err != nil {
			return nil, err
		}
		total += price * float64(li.Quantity)
		lineItems = append(lineItems, li)
	}

	userID, err := primitive.ObjectIDFromHex(caller.ID)
	if err != nil {
		return nil, fmt.Errorf("token subject %q: %w", caller.ID, err)
	}

	order := &models.Order{
		User:            userID,
		Products:        lineItems,
		TotalPrice:      total,
		Status:          models.StatusPending,
		ShippingAddress: address,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	metrics.RecordOrder(total)
	return order, nil
}

// decodeItems checks that products is a non-empty JSON array.
func decodeItems(raw json.RawMessage) ([]orderItemInput, error) {
	invalid := apperr.Validation("Products are required and must be an array")
	if len(raw) == 0 {
		return nil, invalid
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || len(elems) == 0 {
		return nil, invalid
	}
	items := make([]orderItemInput, len(elems))
	for i, e := range elems {
		// Non-object elements decode to a zero item and fail item validation.
		_ = json.Unmarshal(e, &items[i])
	}
	return items, nil
}

// shippingAddress accepts a non-empty string. Numbers and true are stored
// as their text form; null, false, zero, objects and arrays are missing.
func shippingAddress(raw json.RawMessage) (string, error) {
	missing := apperr.Validation("Shipping address is required")

	var v interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return "", missing
	}
	switch a := v.(type) {
	case string:
		if a != "" {
			return a, nil
		}
	case float64:
		if a != 0 {
			return strconv.FormatFloat(a, 'f', -1, 64), nil
		}
	case bool:
		if a {
			return "true", nil
		}
	}
	return "", missing
}

// resolve validates one item and looks its product up.
func (s *OrderService) resolve(ctx context.Context, item orderItemInput) (models.LineItem, float64, error) {
	errs := validate.Struct(item)
	if _, badQty := errs["quantity"]; badQty || errs.Failed("required") {
		return models.LineItem{}, 0, apperr.Validation("Each product must have a valid productId and quantity greater than 0")
	}
	hex, ok := item.ProductID.(string)
	if errs.HasErrors() || !ok {
		return models.LineItem{}, 0, apperr.Validation("Invalid product ID format")
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return models.LineItem{}, 0, apperr.Validation("Invalid product ID format")
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.LineItem{}, 0, apperr.NotFound(fmt.Sprintf("Product with ID %s not found", hex))
		}
		return models.LineItem{}, 0, fmt.Errorf("lookup product %s: %w", hex, err)
	}

	return models.LineItem{ProductID: id, Quantity: int(item.Quantity.(float64))}, product.Price, nil
}

// List returns the caller's orders newest first with products expanded.
func (s *OrderService) List(ctx context.Context, token string) ([]models.OrderView, error) {
	claims, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}
	userID, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, fmt.Errorf("token subject %q: %w", claims.ID, err)
	}

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	products, err := s.products.FindMany(ctx, models.ProductIDs(orders...))
	if err != nil {
		return nil, err
	}

	views := make([]models.OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, o.Expand(products, true))
	}
	return views, nil
}

// Get returns one order if the caller owns it. The id is checked before the
// token.
func (s *OrderService) Get(ctx context.Context, token, id string) (*models.OrderView, error) {
	if !validate.ObjectID(id) {
		return nil, apperr.Validation("Invalid order ID format")
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperr.Validation("Invalid order ID format")
	}

	claims, err := s.authenticate(token)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		return nil, err
	}
	if order.User.Hex() != claims.ID {
		return nil, apperr.Forbidden("Not authorized to access this order")
	}

	products, err := s.products.FindMany(ctx, models.ProductIDs(*order))
	if err != nil {
		return nil, err
	}
	view := order.Expand(products, false)
	return &view, nil
}

func (s *OrderService) authenticate(token string) (*auth.Claims, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Authentication required")
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, "Invalid token", err)
	}
	if !validate.ObjectID(claims.ID) {
		return nil, apperr.Unauthorized("Invalid token")
	}
	return claims, nil
}
