package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medatechnology/storefront/catalog"
)

// seedCatalog loads a small coffee shop into the catalog. Fixed ids keep the
// demo readable; a real storefront would mint uuids for products the same
// way orders and reviews do here.
func seedCatalog(repo catalog.Repository) error {
	fmt.Println("\n--- Seeding Catalog ---")

	now := time.Now().UTC()
	cat := catalog.Category{
		ID:      uuid.NewString(),
		Name:    "Coffee Gear",
		Slug:    "coffee-gear",
		Created: now,
		Updated: now,
	}
	if err := repo.InsertCategory(cat); err != nil {
		return err
	}

	products := []catalog.Product{
		{
			ID:         "beans",
			CategoryID: cat.ID,
			Name:       "Coffee Beans",
			Slug:       "coffee-beans",
			Price:      decimal.RequireFromString("19.99"),
			Stock:      25,
			Available:  true,
		},
		{
			ID:            "grinder",
			CategoryID:    cat.ID,
			Name:          "Burr Grinder",
			Slug:          "burr-grinder",
			Price:         decimal.RequireFromString("89.00"),
			DiscountPrice: decimal.RequireFromString("74.50"),
			Stock:         8,
			Available:     true,
		},
		{
			ID:         "kettle",
			CategoryID: cat.ID,
			Name:       "Gooseneck Kettle",
			Slug:       "gooseneck-kettle",
			Price:      decimal.RequireFromString("45.50"),
			Stock:      12,
			Available:  true,
		},
	}
	for i := range products {
		products[i].Created = now
		products[i].Updated = now
		if err := repo.InsertProduct(products[i]); err != nil {
			// Re-running against a persistent backend hits the unique slug,
			// the existing rows are fine to demo with.
			if _, lookupErr := repo.ProductBySlug(products[i].Slug); lookupErr == nil {
				continue
			}
			return err
		}
	}

	fmt.Printf("✓ Seeded %d products in %s\n", len(products), cat.Name)
	return nil
}
