// Package catalog holds the product and category records plus the
// repository contract the cart and order packages read from.
package catalog

import (
	"time"

	"github.com/medatechnology/goutil/medaerror"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound  medaerror.MedaError = medaerror.MedaError{Message: "product not found"}
	ErrCategoryNotFound medaerror.MedaError = medaerror.MedaError{Message: "category not found"}
)

// Category groups products for browsing.
type Category struct {
	ID          string    `json:"id"            db:"id"`
	Name        string    `json:"name"          db:"name"`
	Slug        string    `json:"slug"          db:"slug"`
	Description string    `json:"description"   db:"description"`
	Image       string    `json:"image"         db:"image"`
	Created     time.Time `json:"created"       db:"created"`
	Updated     time.Time `json:"updated"       db:"updated"`
}

func (c Category) TableName() string {
	return "categories"
}

// Product is one sellable item. Price and DiscountPrice are exact decimals,
// serialized as strings at every boundary (blob, DB, JSON). Stock can never
// go below zero, the schema carries a CHECK for it.
type Product struct {
	ID            string          `json:"id"             db:"id"`
	CategoryID    string          `json:"category_id"    db:"category_id"`
	Name          string          `json:"name"           db:"name"`
	Slug          string          `json:"slug"           db:"slug"`
	Description   string          `json:"description"    db:"description"`
	Image         string          `json:"image"          db:"image"`
	Price         decimal.Decimal `json:"price"          db:"price"`
	DiscountPrice decimal.Decimal `json:"discount_price" db:"discount_price"`
	Stock         int             `json:"stock"          db:"stock"`
	Available     bool            `json:"available"      db:"available"`
	Created       time.Time       `json:"created"        db:"created"`
	Updated       time.Time       `json:"updated"        db:"updated"`
}

func (p Product) TableName() string {
	return "products"
}

// InStock reports whether the product can currently be bought.
func (p Product) InStock() bool {
	return p.Available && p.Stock > 0
}

// HasDiscount reports whether a positive discount price lower than the list
// price is set.
func (p Product) HasDiscount() bool {
	return p.DiscountPrice.IsPositive() && p.DiscountPrice.LessThan(p.Price)
}

// EffectivePrice is the price a buyer pays right now: the discount price
// when one applies, the list price otherwise.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.HasDiscount() {
		return p.DiscountPrice
	}
	return p.Price
}

// DiscountPercent returns the rounded percentage off the list price, zero
// when no discount applies.
func (p Product) DiscountPercent() int {
	if !p.HasDiscount() || !p.Price.IsPositive() {
		return 0
	}
	off := p.Price.Sub(p.DiscountPrice).Div(p.Price).Mul(decimal.NewFromInt(100))
	return int(off.Round(0).IntPart())
}

// Repository is the read/write surface over the catalog tables. sqlstore
// and memstore implement it.
type Repository interface {
	Product(id string) (Product, error)
	ProductBySlug(slug string) (Product, error)
	Products() ([]Product, error)
	AvailableProducts() ([]Product, error)
	ProductsByCategory(categoryID string) ([]Product, error)
	InsertProduct(p Product) error
	UpdateProduct(p Product) error
	DeleteProduct(id string) error

	Category(id string) (Category, error)
	CategoryBySlug(slug string) (Category, error)
	Categories() ([]Category, error)
	InsertCategory(c Category) error
}
