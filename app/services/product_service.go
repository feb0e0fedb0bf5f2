package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// MaxImageBytes caps a single product image upload.
const MaxImageBytes = 5 << 20

// ProductInput is the create/update payload. Price stays raw so its JSON
// type can be checked.
type ProductInput struct {
	Name        string          `json:"name"`
	Price       json.RawMessage `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Images      []string        `json:"images"`
}

// ImageUpload is one uploaded image file.
type ImageUpload struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// ProductService manages the catalog.
type ProductService struct {
	products ProductStore
	disk     storage.Disk
}

// NewProductService returns a ProductService. disk may be nil, in which
// case image uploads fail as internal errors.
func NewProductService(products ProductStore, disk storage.Disk) *ProductService {
	return &ProductService{products: products, disk: disk}
}

func (s *ProductService) List(ctx context.Context, category string) ([]models.Product, error) {
	return s.products.List(ctx, category)
}

func (s *ProductService) Get(ctx context.Context, id string) (*models.Product, error) {
	oid, err := productID(id)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, oid)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// Create validates in and inserts a product. Images default to empty.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	raw := parsePrice(in.Price)
	if in.Name == "" || in.Description == "" || in.Category == "" || raw.falsy() {
		return nil, apperr.Validation("All fields are required")
	}
	price, ok := raw.positive()
	if !ok {
		return nil, apperr.Validation("Price must be a positive number")
	}

	p := &models.Product{
		Name:        in.Name,
		Price:       price,
		Description: in.Description,
		Category:    in.Category,
		Images:      in.Images,
	}
	p.Normalize()
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the non-empty fields of in. The price is re-validated when
// present.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	oid, err := productID(id)
	if err != nil {
		return nil, err
	}

	patch := models.ProductPatch{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Images:      in.Images,
	}
	if raw := parsePrice(in.Price); raw.present {
		price, ok := raw.positive()
		if !ok {
			return nil, apperr.Validation("Price must be a positive number")
		}
		patch.Price = &price
	}

	p, err := s.products.Update(ctx, oid, patch)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	oid, err := productID(id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, oid); err != nil {
		return notFound(err)
	}
	return nil
}

// AddImage stores an uploaded image under products/<id>/ on the configured
// disk and appends its public URL to the product.
func (s *ProductService) AddImage(ctx context.Context, id string, up ImageUpload) (*models.Product, error) {
	oid, err := productID(id)
	if err != nil {
		return nil, err
	}
	if up.Body == nil {
		return nil, apperr.Validation("Image file is required")
	}
	if !strings.HasPrefix(up.ContentType, "image/") {
		return nil, apperr.Validation("Only image uploads are allowed")
	}
	if up.Size > MaxImageBytes {
		return nil, apperr.Validation("Image must be at most 5 MB")
	}
	if _, err := s.products.FindByID(ctx, oid); err != nil {
		return nil, notFound(err)
	}
	if s.disk == nil {
		return nil, errors.New("no storage disk configured")
	}

	key := imageKey(oid, up.Filename, up.ContentType)
	if err := s.disk.Put(ctx, key, up.Body, up.ContentType); err != nil {
		return nil, err
	}

	p, err := s.products.AddImage(ctx, oid, s.disk.URL(key))
	if err != nil {
		_ = s.disk.Delete(ctx, key)
		return nil, notFound(err)
	}
	return p, nil
}

func imageKey(id primitive.ObjectID, filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	return fmt.Sprintf("products/%s/%s%s", id.Hex(), uuid.NewString(), ext)
}

func productID(id string) (primitive.ObjectID, error) {
	if !validate.ObjectID(id) {
		return primitive.NilObjectID, apperr.Validation("Invalid product ID format")
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid product ID format")
	}
	return oid, nil
}

// notFound maps the store's ErrNotFound to the product 404.
func notFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound("Product not found")
	}
	return err
}

type priceValue struct {
	present bool
	value   interface{}
}

func parsePrice(raw json.RawMessage) priceValue {
	if len(raw) == 0 {
		return priceValue{}
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return priceValue{present: true, value: string(raw)}
	}
	return priceValue{present: true, value: v}
}

// falsy reports absent, null, 0, "" and false.
func (p priceValue) falsy() bool {
	if !p.present || p.value == nil {
		return true
	}
	switch v := p.value.(type) {
	case float64:
		return v == 0
	case string:
		return v == ""
	case bool:
		return !v
	}
	return false
}

// positive returns the price when it is a JSON number greater than zero.
func (p priceValue) positive() (float64, bool) {
	f, ok := p.value.(float64)
	return f, ok && f > 0
}
