package sqlstore

import (
	store "github.com/medatechnology/storefront"
)

// The DDL sticks to what PostgreSQL and SQLite share: TEXT ids assigned by
// the application, prices and timestamps as TEXT (exact decimal strings and
// RFC3339), and CHECK constraints as the last line of defense. The stock
// CHECK matters most: on the RQLite backend a transaction's conditional
// UPDATE cannot report its row count before commit, so an overdrawn
// decrement is caught by this constraint failing the whole batch.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		slug        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		image       TEXT NOT NULL DEFAULT '',
		created     TEXT NOT NULL,
		updated     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id             TEXT PRIMARY KEY,
		category_id    TEXT NOT NULL DEFAULT '',
		name           TEXT NOT NULL,
		slug           TEXT NOT NULL UNIQUE,
		description    TEXT NOT NULL DEFAULT '',
		image          TEXT NOT NULL DEFAULT '',
		price          TEXT NOT NULL,
		discount_price TEXT NOT NULL DEFAULT '0',
		stock          INTEGER NOT NULL CHECK (stock >= 0),
		available      BOOLEAN NOT NULL DEFAULT TRUE,
		created        TEXT NOT NULL,
		updated        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_category ON products (category_id)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		first_name  TEXT NOT NULL DEFAULT '',
		last_name   TEXT NOT NULL DEFAULT '',
		email       TEXT NOT NULL DEFAULT '',
		address     TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		city        TEXT NOT NULL DEFAULT '',
		paid        BOOLEAN NOT NULL DEFAULT FALSE,
		status      TEXT NOT NULL,
		created     TEXT NOT NULL,
		updated     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user ON orders (user_id)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL,
		product_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		price      TEXT NOT NULL,
		quantity   INTEGER NOT NULL CHECK (quantity > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		title      TEXT NOT NULL DEFAULT '',
		body       TEXT NOT NULL DEFAULT '',
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		created    TEXT NOT NULL,
		updated    TEXT NOT NULL,
		UNIQUE (product_id, user_id),
		FOREIGN KEY (product_id) REFERENCES products (id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews (product_id)`,
	`CREATE TABLE IF NOT EXISTS review_votes (
		review_id TEXT NOT NULL,
		user_id   TEXT NOT NULL,
		created   TEXT NOT NULL,
		PRIMARY KEY (review_id, user_id)
	)`,
}

// Schema returns the DDL statements in dependency order.
func Schema() []string {
	out := make([]string, len(schemaStatements))
	copy(out, schemaStatements)
	return out
}

// EnsureSchema creates all tables and indexes, a no-op when they exist.
func EnsureSchema(db store.Database) error {
	results, err := db.ExecManySQL(Schema())
	if err != nil {
		return store.WrapError(err, "SCHEMA", "")
	}
	for _, res := range results {
		if res.Error != nil {
			return store.WrapError(res.Error, "SCHEMA", "")
		}
	}
	return nil
}
