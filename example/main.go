package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/medatechnology/storefront/cart"
	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/memstore"
	"github.com/medatechnology/storefront/order"
	"github.com/medatechnology/storefront/postgres"
	"github.com/medatechnology/storefront/review"
	"github.com/medatechnology/storefront/sqlstore"

	store "github.com/medatechnology/storefront"
)

// Repositories is the trio every demo below runs against, backed either by
// memstore (default) or by sqlstore over PostgreSQL when DB_HOST is set.
type Repositories interface {
	catalog.Repository
	order.Repository
	review.Repository
}

func main() {
	fmt.Println("=== Storefront Example ===")

	repos, cleanup := buildRepositories()
	defer cleanup()

	blobs := buildBlobStore()
	carts := cart.NewService(repos, blobs, nil)
	engine := order.NewEngine(repos, nil)
	ledger := review.NewLedger(repos, repos, nil)

	if err := seedCatalog(repos); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	runCartDemo(carts)
	runCheckoutDemo(carts, engine)
	runCancelDemo(carts, engine)
	runReviewDemo(ledger)

	fmt.Println("\n=== Done ===")
}

// buildRepositories picks the backend: PostgreSQL via sqlstore when DB_HOST
// is set, in-memory otherwise so the example runs with no servers at all.
func buildRepositories() (Repositories, func()) {
	if getEnv("DB_HOST", "") == "" {
		fmt.Println("✓ Using in-memory repositories (set DB_HOST for PostgreSQL)")
		return memstore.New(), func() {}
	}

	config := postgres.NewConfig(
		getEnv("DB_HOST", "localhost"),
		getEnvInt("DB_PORT", 5432),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "storefront"),
	)
	config.WithSSLMode("disable").
		WithApplicationName("storefront-example")

	db, err := postgres.NewDatabase(*config)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	if err := sqlstore.EnsureSchema(db); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	fmt.Println("✓ Connected to PostgreSQL")
	return sqlstore.New(db, store.GetDefaultLogger()), func() { db.Close() }
}

// buildBlobStore keeps carts in Redis when REDIS_ADDR is set, in memory
// otherwise.
func buildBlobStore() cart.BlobStore {
	addr := getEnv("REDIS_ADDR", "")
	if addr == "" {
		fmt.Println("✓ Using in-memory cart store (set REDIS_ADDR for Redis)")
		return cart.NewMemoryBlobStore()
	}
	blobs, err := cart.NewRedisBlobStore(cart.RedisConfig{
		Addr:     addr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	fmt.Println("✓ Connected to Redis for cart sessions")
	return blobs
}

const (
	sessionKey = "demo-session"
	userID     = "demo-user"
)

var demoShipping = order.Shipping{
	FirstName:  "Alice",
	LastName:   "Johnson",
	Email:      "alice@example.com",
	Address:    "42 Market Street",
	PostalCode: "94103",
	City:       "San Francisco",
}

func runCartDemo(carts *cart.Service) {
	fmt.Println("\n--- Example 1: Session Cart ---")
	ctx := context.Background()

	if err := carts.Add(ctx, sessionKey, "beans", 3, false); err != nil {
		log.Printf("Add failed: %v", err)
		return
	}
	if err := carts.Add(ctx, sessionKey, "grinder", 1, false); err != nil {
		log.Printf("Add failed: %v", err)
		return
	}
	fmt.Println("✓ Added 3x Coffee Beans and 1x Burr Grinder")

	// Asking for more than the stock fails and leaves the cart as-is.
	if err := carts.Add(ctx, sessionKey, "grinder", 99, false); err != nil {
		fmt.Printf("✓ Oversized add rejected: %v\n", err)
	}

	sum, err := carts.Summary(ctx, sessionKey)
	if err != nil {
		log.Printf("Summary failed: %v", err)
		return
	}
	fmt.Printf("✓ Cart: %d items, total $%.2f\n", sum.TotalItems, sum.TotalPrice)
	for _, l := range sum.Lines {
		fmt.Printf("  - %dx %s @ $%.2f = $%.2f\n", l.Quantity, l.Name, l.Price, l.Subtotal)
	}
}

func runCheckoutDemo(carts *cart.Service, engine *order.Engine) {
	fmt.Println("\n--- Example 2: Checkout ---")
	ctx := context.Background()

	o, skipped, err := engine.Checkout(ctx, carts, sessionKey, userID, demoShipping)
	if err != nil {
		log.Printf("Checkout failed: %v", err)
		return
	}
	fmt.Printf("✓ Order %s placed: %d items, total $%s\n", o.ID, len(o.Items), o.Total())
	for _, skip := range skipped {
		fmt.Printf("  - skipped %s: %s\n", skip.Line.Name, skip.Reason)
	}

	n, _ := carts.TotalItems(ctx, sessionKey)
	fmt.Printf("✓ Cart cleared after checkout (%d items left)\n", n)

	if err := engine.MarkPaid(userID, o.ID); err != nil {
		log.Printf("MarkPaid failed: %v", err)
		return
	}
	fmt.Println("✓ Order marked paid")

	orders, err := engine.Orders(userID)
	if err != nil {
		log.Printf("Orders failed: %v", err)
		return
	}
	fmt.Printf("✓ User has %d order(s) on file\n", len(orders))
}

func runCancelDemo(carts *cart.Service, engine *order.Engine) {
	fmt.Println("\n--- Example 3: Cancel and Stock Restore ---")
	ctx := context.Background()

	if err := carts.Add(ctx, sessionKey, "kettle", 2, false); err != nil {
		log.Printf("Add failed: %v", err)
		return
	}
	o, _, err := engine.Checkout(ctx, carts, sessionKey, userID, demoShipping)
	if err != nil {
		log.Printf("Checkout failed: %v", err)
		return
	}
	fmt.Printf("✓ Order %s placed for 2x Gooseneck Kettle\n", o.ID)

	if err := engine.CancelOrder(userID, o.ID); err != nil {
		log.Printf("Cancel failed: %v", err)
		return
	}
	fmt.Println("✓ Order cancelled, stock returned")

	// Cancelling again is an invalid lifecycle transition.
	if err := engine.CancelOrder(userID, o.ID); err != nil {
		fmt.Printf("✓ Second cancel rejected: %v\n", err)
	}
}

func runReviewDemo(ledger *review.Ledger) {
	fmt.Println("\n--- Example 4: Reviews ---")

	r, err := ledger.AddReview(userID, "beans", 5, "Excellent roast", "Best beans I have had in years.")
	if err != nil {
		log.Printf("AddReview failed: %v", err)
		return
	}
	fmt.Printf("✓ Review %s added\n", r.ID)

	// One review per user per product.
	if _, err := ledger.AddReview(userID, "beans", 1, "Changed my mind", ""); err != nil {
		fmt.Printf("✓ Duplicate review rejected: %v\n", err)
	}

	if _, err := ledger.AddReview("other-user", "beans", 4, "Pretty good", ""); err != nil {
		log.Printf("AddReview failed: %v", err)
		return
	}

	voted, count, err := ledger.ToggleHelpful("other-user", r.ID)
	if err != nil {
		log.Printf("ToggleHelpful failed: %v", err)
		return
	}
	fmt.Printf("✓ Helpful vote toggled on (voted=%v, count=%d)\n", voted, count)

	sum, err := ledger.AverageRating("beans")
	if err != nil {
		log.Printf("AverageRating failed: %v", err)
		return
	}
	fmt.Printf("✓ Coffee Beans: %d review(s), average %.1f stars\n", sum.Count, sum.Average)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intValue int
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}
