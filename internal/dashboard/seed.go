package dashboard

import (
	"context"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Demo data
// ---------------------------------------------------------------------------

// SeedDemo creates one store owned by userID, populated with a small apparel
// catalog and a single paid order. Intended for fresh environments; running
// it twice creates a second store, it never touches existing rows.
func (s *Service) SeedDemo(ctx context.Context, userID string) (Store, error) {
	store, err := s.createStore(ctx, userID, "Demo Store")
	if err != nil {
		return Store{}, fmt.Errorf("seed store: %w", err)
	}

	bb, err := s.createBillboard(ctx, store.ID, BillboardInput{
		Label:    "Summer Collection",
		ImageURL: "https://images.example.com/billboards/summer.jpg",
	})
	if err != nil {
		return Store{}, fmt.Errorf("seed billboard: %w", err)
	}

	var categories []Category
	for _, name := range []string{"Shirts", "Pants"} {
		c, err := s.createCategory(ctx, store.ID, CategoryInput{Name: name, BillboardID: bb.ID})
		if err != nil {
			return Store{}, fmt.Errorf("seed category %q: %w", name, err)
		}
		categories = append(categories, c)
	}

	var colors []Color
	for _, c := range []ColorInput{
		{Name: "Black", Value: "#000000"},
		{Name: "White", Value: "#ffffff"},
		{Name: "Navy", Value: "#1f2a44"},
	} {
		created, err := s.createColor(ctx, store.ID, c)
		if err != nil {
			return Store{}, fmt.Errorf("seed color %q: %w", c.Name, err)
		}
		colors = append(colors, created)
	}

	var sizes []Size
	for _, sz := range []SizeInput{
		{Name: "Small", Value: "S"},
		{Name: "Medium", Value: "M"},
		{Name: "Large", Value: "L"},
	} {
		created, err := s.createSize(ctx, store.ID, sz)
		if err != nil {
			return Store{}, fmt.Errorf("seed size %q: %w", sz.Name, err)
		}
		sizes = append(sizes, created)
	}

	products := []ProductInput{
		{Name: "Linen Shirt", Price: 49.99, CategoryID: categories[0].ID, ColorID: colors[1].ID, SizeID: sizes[1].ID, IsFeatured: true},
		{Name: "Oxford Shirt", Price: 59.00, CategoryID: categories[0].ID, ColorID: colors[2].ID, SizeID: sizes[2].ID},
		{Name: "Chino Pants", Price: 79.50, CategoryID: categories[1].ID, ColorID: colors[0].ID, SizeID: sizes[1].ID, IsFeatured: true},
	}
	var productIDs []string
	for _, in := range products {
		slug := strings.ToLower(strings.ReplaceAll(in.Name, " ", "-"))
		in.Images = []ImageInput{{URL: fmt.Sprintf("https://images.example.com/products/%s.jpg", slug)}}
		p, err := s.createProduct(ctx, store.ID, in)
		if err != nil {
			return Store{}, fmt.Errorf("seed product %q: %w", in.Name, err)
		}
		productIDs = append(productIDs, p.ID)
	}

	if _, err := s.createPaidOrder(ctx, store.ID, productIDs[:2],
		"1 Market St, San Francisco, CA, 94105, US", "+14155550100"); err != nil {
		return Store{}, fmt.Errorf("seed order: %w", err)
	}

	return store, nil
}
