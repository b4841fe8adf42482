package sqlstore

import (
	"errors"

	"github.com/medatechnology/storefront/catalog"

	store "github.com/medatechnology/storefront"
)

func productFromRecord(rec store.DBRecord) catalog.Product {
	d := rec.Data
	return catalog.Product{
		ID:            asString(d["id"]),
		CategoryID:    asString(d["category_id"]),
		Name:          asString(d["name"]),
		Slug:          asString(d["slug"]),
		Description:   asString(d["description"]),
		Image:         asString(d["image"]),
		Price:         asDecimal(d["price"]),
		DiscountPrice: asDecimal(d["discount_price"]),
		Stock:         asInt(d["stock"]),
		Available:     asBool(d["available"]),
		Created:       asTime(d["created"]),
		Updated:       asTime(d["updated"]),
	}
}

func productRecord(p catalog.Product) store.DBRecord {
	return store.DBRecord{
		TableName: p.TableName(),
		Data: map[string]interface{}{
			"id":             p.ID,
			"category_id":    p.CategoryID,
			"name":           p.Name,
			"slug":           p.Slug,
			"description":    p.Description,
			"image":          p.Image,
			"price":          p.Price.String(),
			"discount_price": p.DiscountPrice.String(),
			"stock":          p.Stock,
			"available":      p.Available,
			"created":        formatTime(p.Created),
			"updated":        formatTime(p.Updated),
		},
	}
}

func categoryFromRecord(rec store.DBRecord) catalog.Category {
	d := rec.Data
	return catalog.Category{
		ID:          asString(d["id"]),
		Name:        asString(d["name"]),
		Slug:        asString(d["slug"]),
		Description: asString(d["description"]),
		Image:       asString(d["image"]),
		Created:     asTime(d["created"]),
		Updated:     asTime(d["updated"]),
	}
}

func categoryRecord(c catalog.Category) store.DBRecord {
	return store.DBRecord{
		TableName: c.TableName(),
		Data: map[string]interface{}{
			"id":          c.ID,
			"name":        c.Name,
			"slug":        c.Slug,
			"description": c.Description,
			"image":       c.Image,
			"created":     formatTime(c.Created),
			"updated":     formatTime(c.Updated),
		},
	}
}

func (s *Store) Product(id string) (catalog.Product, error) {
	rec, err := s.selectRecord(`SELECT * FROM products WHERE id = ?`, id)
	if errors.Is(err, store.ErrSQLNoRows) {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	if err != nil {
		return catalog.Product{}, err
	}
	return productFromRecord(rec), nil
}

func (s *Store) ProductBySlug(slug string) (catalog.Product, error) {
	rec, err := s.selectRecord(`SELECT * FROM products WHERE slug = ?`, slug)
	if errors.Is(err, store.ErrSQLNoRows) {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	if err != nil {
		return catalog.Product{}, err
	}
	return productFromRecord(rec), nil
}

func (s *Store) Products() ([]catalog.Product, error) {
	recs, err := s.selectRecords(`SELECT * FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return productsFromRecords(recs), nil
}

func (s *Store) AvailableProducts() ([]catalog.Product, error) {
	recs, err := s.selectRecords(
		`SELECT * FROM products WHERE available = ? AND stock > 0 ORDER BY name`, true)
	if err != nil {
		return nil, err
	}
	return productsFromRecords(recs), nil
}

func (s *Store) ProductsByCategory(categoryID string) ([]catalog.Product, error) {
	recs, err := s.selectRecords(
		`SELECT * FROM products WHERE category_id = ? ORDER BY name`, categoryID)
	if err != nil {
		return nil, err
	}
	return productsFromRecords(recs), nil
}

func productsFromRecords(recs store.DBRecords) []catalog.Product {
	out := make([]catalog.Product, len(recs))
	for i, rec := range recs {
		out[i] = productFromRecord(rec)
	}
	return out
}

func (s *Store) InsertProduct(p catalog.Product) error {
	res := s.db.InsertOneDBRecord(productRecord(p), false)
	return res.Error
}

func (s *Store) UpdateProduct(p catalog.Product) error {
	_, err := s.exec(
		`UPDATE products SET category_id = ?, name = ?, slug = ?, description = ?,
			image = ?, price = ?, discount_price = ?, stock = ?, available = ?, updated = ?
		 WHERE id = ?`,
		p.CategoryID, p.Name, p.Slug, p.Description, p.Image,
		p.Price.String(), p.DiscountPrice.String(), p.Stock, p.Available,
		formatTime(p.Updated), p.ID)
	return err
}

func (s *Store) DeleteProduct(id string) error {
	res, err := s.exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func (s *Store) Category(id string) (catalog.Category, error) {
	rec, err := s.selectRecord(`SELECT * FROM categories WHERE id = ?`, id)
	if errors.Is(err, store.ErrSQLNoRows) {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	if err != nil {
		return catalog.Category{}, err
	}
	return categoryFromRecord(rec), nil
}

func (s *Store) CategoryBySlug(slug string) (catalog.Category, error) {
	rec, err := s.selectRecord(`SELECT * FROM categories WHERE slug = ?`, slug)
	if errors.Is(err, store.ErrSQLNoRows) {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	if err != nil {
		return catalog.Category{}, err
	}
	return categoryFromRecord(rec), nil
}

func (s *Store) Categories() ([]catalog.Category, error) {
	recs, err := s.selectRecords(`SELECT * FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Category, len(recs))
	for i, rec := range recs {
		out[i] = categoryFromRecord(rec)
	}
	return out, nil
}

func (s *Store) InsertCategory(c catalog.Category) error {
	res := s.db.InsertOneDBRecord(categoryRecord(c), false)
	return res.Error
}
