package seeders

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services/servicetest"
)

func TestSeedProductsFillsEmptyCatalog(t *testing.T) {
	products := servicetest.NewProducts()

	require.NoError(t, SeedProducts(context.Background(), Stores{Products: products}))
	assert.Equal(t, len(DemoCatalog()), products.Len())

	list, err := products.List(context.Background(), "lighting")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, p := range list {
		assert.NotNil(t, p.Images)
	}
}

func TestSeedProductsLeavesExistingCatalog(t *testing.T) {
	products := servicetest.NewProducts(models.Product{Name: "Existing", Price: 1, Description: "d", Category: "c"})

	require.NoError(t, SeedProducts(context.Background(), Stores{Products: products}))
	assert.Equal(t, 1, products.Len())
}

func TestRunAllStopsOnError(t *testing.T) {
	products := servicetest.NewProducts()
	products.Err = errors.New("db down")

	var out bytes.Buffer
	err := RunAll(context.Background(), Stores{Products: products}, &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `seeder "products"`)
	assert.Contains(t, out.String(), "FAILED")
}

func TestProductsSeederIsRegistered(t *testing.T) {
	assert.Contains(t, Names(), "products")
}
