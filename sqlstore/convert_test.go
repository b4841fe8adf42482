package sqlstore

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/order"
	"github.com/medatechnology/storefront/review"
)

func TestConvertersAcceptBothBackendShapes(t *testing.T) {
	// PostgreSQL hands back int64/bool/[]byte, RQLite hands back
	// float64/0-1 numbers/strings.
	if asInt(int64(7)) != 7 || asInt(float64(7)) != 7 || asInt("7") != 7 {
		t.Error("asInt disagrees across shapes")
	}
	if asInt(nil) != 0 {
		t.Error("asInt(nil) != 0")
	}

	for _, v := range []interface{}{true, int64(1), float64(1), "true", "t", "1"} {
		if !asBool(v) {
			t.Errorf("asBool(%v) = false", v)
		}
	}
	for _, v := range []interface{}{false, int64(0), float64(0), "false", "", nil} {
		if asBool(v) {
			t.Errorf("asBool(%v) = true", v)
		}
	}

	if asString([]byte("19.99")) != "19.99" || asString(nil) != "" {
		t.Error("asString mishandles bytes or nil")
	}

	if !asDecimal("19.99").Equal(decimal.RequireFromString("19.99")) {
		t.Error("asDecimal(string)")
	}
	if !asDecimal([]byte("45.50")).Equal(decimal.RequireFromString("45.5")) {
		t.Error("asDecimal(bytes)")
	}
	if !asDecimal(nil).IsZero() || !asDecimal("garbage").IsZero() {
		t.Error("asDecimal fallback is not zero")
	}

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if got := asTime(formatTime(now)); !got.Equal(now) {
		t.Errorf("asTime round trip = %v, want %v", got, now)
	}
	if got := asTime("2026-08-30 12:00:00"); got.IsZero() {
		t.Error("asTime rejects the space-separated format")
	}
	if !asTime("nonsense").IsZero() {
		t.Error("asTime invented a time from garbage")
	}
}

func TestProductRecordRoundTrip(t *testing.T) {
	p := catalog.Product{
		ID:            "p1",
		CategoryID:    "c1",
		Name:          "Coffee Beans",
		Slug:          "coffee-beans",
		Description:   "dark roast",
		Image:         "beans.jpg",
		Price:         decimal.RequireFromString("19.99"),
		DiscountPrice: decimal.RequireFromString("15.50"),
		Stock:         10,
		Available:     true,
		Created:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Updated:       time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
	}

	rec := productRecord(p)
	if rec.TableName != "products" {
		t.Errorf("table = %s", rec.TableName)
	}
	// Money is stored as exact strings.
	if rec.Data["price"] != "19.99" || rec.Data["discount_price"] != "15.5" {
		t.Errorf("stored prices = %v / %v", rec.Data["price"], rec.Data["discount_price"])
	}

	got := productFromRecord(rec)
	if got.ID != p.ID || got.Name != p.Name || got.Stock != p.Stock || got.Available != p.Available {
		t.Errorf("round trip = %+v", got)
	}
	if !got.Price.Equal(p.Price) || !got.DiscountPrice.Equal(p.DiscountPrice) {
		t.Errorf("prices = %s / %s", got.Price, got.DiscountPrice)
	}
	if !got.Created.Equal(p.Created) {
		t.Errorf("created = %v, want %v", got.Created, p.Created)
	}
}

func TestOrderRecordRoundTrip(t *testing.T) {
	o := order.Order{
		ID:     "o1",
		UserID: "u1",
		Shipping: order.Shipping{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			Address: "1 Analytical Way", PostalCode: "10115", City: "Berlin",
		},
		Paid:    true,
		Status:  order.StatusProcessing,
		Created: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Updated: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	got := orderFromRecord(orderRecord(o))
	if got.ID != o.ID || got.UserID != o.UserID || got.Status != o.Status || !got.Paid {
		t.Errorf("round trip = %+v", got)
	}
	if got.Shipping != o.Shipping {
		t.Errorf("shipping = %+v", got.Shipping)
	}

	it := order.OrderItem{
		ID: "i1", OrderID: "o1", ProductID: "p1",
		Name: "Coffee Beans", Price: decimal.RequireFromString("19.99"), Quantity: 3,
	}
	gotItem := itemFromRecord(itemRecord(it))
	if gotItem.ID != it.ID || gotItem.Quantity != 3 || !gotItem.Price.Equal(it.Price) {
		t.Errorf("item round trip = %+v", gotItem)
	}
	if want := "59.97"; gotItem.Subtotal().String() != want {
		t.Errorf("subtotal = %s, want %s", gotItem.Subtotal().String(), want)
	}
}

func TestReviewRecordRoundTrip(t *testing.T) {
	r := review.Review{
		ID: "r1", ProductID: "p1", UserID: "u1",
		Rating: 4, Title: "solid", Body: "does the job", Active: true,
		Created: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		Updated: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	got := reviewFromRecord(reviewRecord(r))
	if got.ID != r.ID || got.Rating != 4 || got.Title != "solid" || !got.Active {
		t.Errorf("round trip = %+v", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("pq: duplicate key value violates unique constraint \"reviews_product_id_user_id_key\""), true},
		{errors.New("UNIQUE constraint failed: reviews.product_id, reviews.user_id"), true},
		{errors.New("connection refused"), false},
	}
	for _, c := range cases {
		if got := isUniqueViolation(c.err); got != c.want {
			t.Errorf("isUniqueViolation(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestIsCheckViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New(`pq: new row for relation "products" violates check constraint "products_stock_check"`), true},
		{errors.New("CHECK constraint failed: products"), true},
		{errors.New("connection refused"), false},
	}
	for _, c := range cases {
		if got := isCheckViolation(c.err); got != c.want {
			t.Errorf("isCheckViolation(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestSchemaCarriesConstraints(t *testing.T) {
	ddl := strings.Join(Schema(), "\n")
	for _, want := range []string{
		"CHECK (stock >= 0)",
		"CHECK (rating BETWEEN 1 AND 5)",
		"UNIQUE (product_id, user_id)",
		"FOREIGN KEY (product_id) REFERENCES products (id)",
		"PRIMARY KEY (review_id, user_id)",
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("schema missing %q", want)
		}
	}
}
