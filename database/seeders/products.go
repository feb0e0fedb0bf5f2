package seeders

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

func init() {
	Register("products", SeedProducts)
}

// DemoCatalog is the starter catalog written into an empty database.
func DemoCatalog() []models.Product {
	return []models.Product{
		{Name: "Desk Lamp", Price: 29.99, Description: "Adjustable arm, warm LED.", Category: "lighting"},
		{Name: "Floor Lamp", Price: 89.00, Description: "Linen shade on a walnut base.", Category: "lighting"},
		{Name: "Stoneware Mug", Price: 14.50, Description: "Holds 350 ml, dishwasher safe.", Category: "kitchen"},
		{Name: "Chef's Knife", Price: 74.00, Description: "20 cm carbon steel blade.", Category: "kitchen"},
		{Name: "Wool Throw", Price: 59.95, Description: "Merino, 130 x 170 cm.", Category: "textiles"},
		{Name: "Linen Cushion", Price: 24.00, Description: "Stonewashed cover with feather insert.", Category: "textiles"},
	}
}

// SeedProducts inserts DemoCatalog when the catalog is empty. A catalog that
// already has products is left alone.
func SeedProducts(ctx context.Context, s Stores) error {
	n, err := s.Products.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		logger.Info("catalog already seeded", "products", n)
		return nil
	}

	for _, p := range DemoCatalog() {
		p := p
		if err := s.Products.Create(ctx, &p); err != nil {
			return fmt.Errorf("create %q: %w", p.Name, err)
		}
	}
	return nil
}
