package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/medatechnology/storefront/cart"
	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/memstore"
	"github.com/medatechnology/storefront/order"
)

var testShipping = order.Shipping{
	FirstName:  "Ada",
	LastName:   "Lovelace",
	Email:      "ada@example.com",
	Address:    "1 Analytical Way",
	PostalCode: "10115",
	City:       "Berlin",
}

func seed(t *testing.T, repo *memstore.Store, id, name, price string, stock int, available bool) catalog.Product {
	t.Helper()
	p := catalog.Product{
		ID:        id,
		Name:      name,
		Slug:      id,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Available: available,
	}
	if err := repo.InsertProduct(p); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return p
}

func line(id, name, price string, qty int) cart.Line {
	return cart.Line{
		ProductID: id,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func TestCreateOrderRoundTrip(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)
	seed(t, repo, "p1", "Coffee Beans", "19.99", 10, true)
	seed(t, repo, "p2", "Grinder", "45.50", 5, true)

	lines := []cart.Line{
		line("p1", "Coffee Beans", "19.99", 3),
		line("p2", "Grinder", "45.50", 1),
	}
	o, skipped, err := engine.CreateOrder("user-1", lines, testShipping)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("skipped = %+v, want none", skipped)
	}
	if o.Status != order.StatusPending {
		t.Fatalf("status = %s, want pending", o.Status)
	}
	if len(o.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(o.Items))
	}
	if want := "105.47"; o.Total().String() != want {
		t.Fatalf("total = %s, want %s", o.Total().String(), want)
	}

	// Stock was taken.
	p1, _ := repo.Product("p1")
	if p1.Stock != 7 {
		t.Fatalf("p1 stock = %d, want 7", p1.Stock)
	}

	// The order reads back with its items and shipping details.
	got, err := engine.Order("user-1", o.ID)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got.Shipping != testShipping {
		t.Fatalf("shipping = %+v", got.Shipping)
	}
	if len(got.Items) != 2 {
		t.Fatalf("read back items = %d, want 2", len(got.Items))
	}
}

func TestCreateOrderEmptyCart(t *testing.T) {
	engine := order.NewEngine(memstore.New(), nil)
	_, _, err := engine.CreateOrder("user-1", nil, testShipping)
	if !errors.Is(err, order.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestCreateOrderSkipsInvalidLines(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)
	seed(t, repo, "p1", "Coffee Beans", "19.99", 10, true)
	seed(t, repo, "p3", "Kettle", "30.00", 5, false)

	lines := []cart.Line{
		line("p1", "Coffee Beans", "19.99", 2),
		line("gone", "Ghost", "1.00", 1),
		line("p3", "Kettle", "30.00", 1),
		line("p1", "Coffee Beans", "19.99", 0),
		line("", "No ID", "5.00", 1),
		line("p1", "Coffee Beans", "0", 1),
	}
	o, skipped, err := engine.CreateOrder("user-1", lines, testShipping)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if len(o.Items) != 1 || o.Items[0].ProductID != "p1" {
		t.Fatalf("items = %+v, want only p1", o.Items)
	}
	if len(skipped) != 5 {
		t.Fatalf("skipped = %+v, want 5 entries", skipped)
	}
}

func TestCreateOrderAllLinesInvalid(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)

	lines := []cart.Line{line("gone", "Ghost", "1.00", 1)}
	_, skipped, err := engine.CreateOrder("user-1", lines, testShipping)
	if !errors.Is(err, order.ErrNoValidItems) {
		t.Fatalf("err = %v, want ErrNoValidItems", err)
	}
	if len(skipped) != 1 {
		t.Fatalf("skipped = %+v, want the ghost line", skipped)
	}
}

func TestCreateOrderCollectsAllShortages(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)
	seed(t, repo, "p1", "Coffee Beans", "19.99", 1, true)
	seed(t, repo, "p2", "Grinder", "45.50", 0, true)
	seed(t, repo, "p3", "Kettle", "30.00", 10, true)

	lines := []cart.Line{
		line("p1", "Coffee Beans", "19.99", 3),
		line("p2", "Grinder", "45.50", 1),
		line("p3", "Kettle", "30.00", 2),
	}
	_, _, err := engine.CreateOrder("user-1", lines, testShipping)
	var ce *order.CheckoutError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CheckoutError", err)
	}
	if len(ce.Shortages) != 2 {
		t.Fatalf("shortages = %+v, want both p1 and p2", ce.Shortages)
	}

	// Nothing was persisted, stock untouched.
	p3, _ := repo.Product("p3")
	if p3.Stock != 10 {
		t.Fatalf("p3 stock = %d, want 10", p3.Stock)
	}
	orders, _ := engine.Orders("user-1")
	if len(orders) != 0 {
		t.Fatalf("orders = %+v, want none", orders)
	}
}

func TestConcurrentCheckoutsNeverOversell(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)
	seed(t, repo, "p1", "Coffee Beans", "19.99", 5, true)

	const buyers = 10
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = engine.CreateOrder("user", []cart.Line{
				line("p1", "Coffee Beans", "19.99", 1),
			}, testShipping)
		}(i)
	}
	wg.Wait()

	placed := 0
	for _, err := range errs {
		if err == nil {
			placed++
			continue
		}
		var ce *order.CheckoutError
		if !errors.As(err, &ce) {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if placed != 5 {
		t.Fatalf("placed = %d, want exactly 5", placed)
	}
	p1, _ := repo.Product("p1")
	if p1.Stock != 0 {
		t.Fatalf("stock = %d, want 0", p1.Stock)
	}
}

func TestCheckoutClearsCart(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)
	carts := cart.NewService(repo, cart.NewMemoryBlobStore(), nil)
	ctx := context.Background()
	seed(t, repo, "p1", "Coffee Beans", "19.99", 10, true)

	if err := carts.Add(ctx, "sess", "p1", 2, false); err != nil {
		t.Fatalf("add: %v", err)
	}
	o, _, err := engine.Checkout(ctx, carts, "sess", "user-1", testShipping)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(o.Items) != 1 {
		t.Fatalf("items = %+v", o.Items)
	}
	n, _ := carts.TotalItems(ctx, "sess")
	if n != 0 {
		t.Fatalf("cart items after checkout = %d, want 0", n)
	}
}

func TestCancelOrderRestoresStock(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)
	seed(t, repo, "p1", "Coffee Beans", "19.99", 10, true)

	o, _, err := engine.CreateOrder("user-1", []cart.Line{
		line("p1", "Coffee Beans", "19.99", 4),
	}, testShipping)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p1, _ := repo.Product("p1")
	if p1.Stock != 6 {
		t.Fatalf("stock = %d, want 6", p1.Stock)
	}

	if err := engine.CancelOrder("user-1", o.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	p1, _ = repo.Product("p1")
	if p1.Stock != 10 {
		t.Fatalf("stock after cancel = %d, want 10", p1.Stock)
	}
	got, _ := engine.Order("user-1", o.ID)
	if got.Status != order.StatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}

	// A second cancel is an invalid transition.
	err = engine.CancelOrder("user-1", o.ID)
	var ite *order.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("second cancel err = %v, want InvalidTransitionError", err)
	}
}

func TestCancelOrderOwnership(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)
	seed(t, repo, "p1", "Coffee Beans", "19.99", 10, true)

	o, _, err := engine.CreateOrder("user-1", []cart.Line{
		line("p1", "Coffee Beans", "19.99", 1),
	}, testShipping)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := engine.CancelOrder("someone-else", o.ID); !errors.Is(err, order.ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
	// Stock untouched by the failed cancel.
	p1, _ := repo.Product("p1")
	if p1.Stock != 9 {
		t.Fatalf("stock = %d, want 9", p1.Stock)
	}
}

func TestStatusMachine(t *testing.T) {
	cases := []struct {
		from, to order.Status
		ok       bool
	}{
		{order.StatusPending, order.StatusProcessing, true},
		{order.StatusPending, order.StatusCancelled, true},
		{order.StatusPending, order.StatusCompleted, false},
		{order.StatusProcessing, order.StatusCompleted, true},
		{order.StatusProcessing, order.StatusCancelled, true},
		{order.StatusProcessing, order.StatusPending, false},
		{order.StatusCompleted, order.StatusCancelled, false},
		{order.StatusCancelled, order.StatusPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.ok {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestSetStatusAndMarkPaid(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)
	seed(t, repo, "p1", "Coffee Beans", "19.99", 10, true)

	o, _, err := engine.CreateOrder("user-1", []cart.Line{
		line("p1", "Coffee Beans", "19.99", 1),
	}, testShipping)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := engine.MarkPaid("user-1", o.ID); err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	got, _ := engine.Order("user-1", o.ID)
	if !got.Paid {
		t.Fatal("order not marked paid")
	}

	if err := engine.SetStatus("user-1", o.ID, order.StatusProcessing); err != nil {
		t.Fatalf("to processing: %v", err)
	}
	if err := engine.SetStatus("user-1", o.ID, order.StatusCompleted); err != nil {
		t.Fatalf("to completed: %v", err)
	}

	var ite *order.InvalidTransitionError
	if err := engine.SetStatus("user-1", o.ID, order.StatusProcessing); !errors.As(err, &ite) {
		t.Fatalf("completed -> processing err = %v, want InvalidTransitionError", err)
	}
	if err := engine.CancelOrder("user-1", o.ID); !errors.As(err, &ite) {
		t.Fatalf("cancel completed err = %v, want InvalidTransitionError", err)
	}
}

func TestFrozenPriceSurvivesCatalogChange(t *testing.T) {
	repo := memstore.New()
	engine := order.NewEngine(repo, nil)
	p := seed(t, repo, "p1", "Coffee Beans", "19.99", 10, true)

	o, _, err := engine.CreateOrder("user-1", []cart.Line{
		line("p1", "Coffee Beans", "19.99", 2),
	}, testShipping)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	p.Price = decimal.RequireFromString("99.99")
	if err := repo.UpdateProduct(p); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := engine.Order("user-1", o.ID)
	if want := "39.98"; got.Total().String() != want {
		t.Fatalf("total = %s, want %s", got.Total().String(), want)
	}
}
