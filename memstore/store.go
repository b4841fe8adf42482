// Package memstore keeps the whole catalog, order and review state in
// process memory. It backs tests and single-process demos; transactions are
// a snapshot of the mutated maps restored on rollback.
package memstore

import (
	"sort"
	"sync"

	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/order"
	"github.com/medatechnology/storefront/review"
)

type Store struct {
	mu         sync.Mutex
	products   map[string]catalog.Product
	categories map[string]catalog.Category
	orders     map[string]order.Order
	reviews    map[string]review.Review
	votes      map[string]map[string]review.HelpfulVote // review id -> user id
}

var (
	_ catalog.Repository = (*Store)(nil)
	_ order.Repository   = (*Store)(nil)
	_ review.Repository  = (*Store)(nil)
)

func New() *Store {
	return &Store{
		products:   make(map[string]catalog.Product),
		categories: make(map[string]catalog.Category),
		orders:     make(map[string]order.Order),
		reviews:    make(map[string]review.Review),
		votes:      make(map[string]map[string]review.HelpfulVote),
	}
}

// ---- catalog.Repository ----

func (s *Store) Product(id string) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.product(id)
}

func (s *Store) product(id string) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (s *Store) ProductBySlug(slug string) (catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return catalog.Product{}, catalog.ErrProductNotFound
}

func (s *Store) Products() ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listProducts(func(catalog.Product) bool { return true }), nil
}

func (s *Store) AvailableProducts() ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listProducts(func(p catalog.Product) bool { return p.InStock() }), nil
}

func (s *Store) ProductsByCategory(categoryID string) ([]catalog.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listProducts(func(p catalog.Product) bool { return p.CategoryID == categoryID }), nil
}

func (s *Store) listProducts(keep func(catalog.Product) bool) []catalog.Product {
	out := make([]catalog.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) InsertProduct(p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	return nil
}

func (s *Store) UpdateProduct(p catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID]; !ok {
		return catalog.ErrProductNotFound
	}
	s.products[p.ID] = p
	return nil
}

func (s *Store) DeleteProduct(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) Category(id string) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	return c, nil
}

func (s *Store) CategoryBySlug(slug string) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return catalog.Category{}, catalog.ErrCategoryNotFound
}

func (s *Store) Categories() ([]catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) InsertCategory(c catalog.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

// ---- order.Repository ----

// WithinTransaction serializes all transactions behind the store mutex and
// snapshots the product and order maps first, so an error from fn restores
// the exact state as if nothing ran.
func (s *Store) WithinTransaction(fn func(tx order.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	productSnap := make(map[string]catalog.Product, len(s.products))
	for id, p := range s.products {
		productSnap[id] = p
	}
	orderSnap := make(map[string]order.Order, len(s.orders))
	for id, o := range s.orders {
		orderSnap[id] = o
	}

	if err := fn(&memTx{store: s}); err != nil {
		s.products = productSnap
		s.orders = orderSnap
		return err
	}
	return nil
}

// memTx mutates the store directly, the snapshot in WithinTransaction is
// the rollback. The store mutex is already held.
type memTx struct {
	store *Store
}

func (t *memTx) Product(id string) (catalog.Product, error) {
	return t.store.product(id)
}

func (t *memTx) Order(id string) (order.Order, error) {
	o, ok := t.store.orders[id]
	if !ok {
		return order.Order{}, order.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (t *memTx) InsertOrder(o order.Order) error {
	t.store.orders[o.ID] = cloneOrder(o)
	return nil
}

func (t *memTx) InsertItems(items []order.OrderItem) error {
	for _, it := range items {
		o, ok := t.store.orders[it.OrderID]
		if !ok {
			return order.ErrOrderNotFound
		}
		o.Items = append(o.Items, it)
		t.store.orders[it.OrderID] = o
	}
	return nil
}

func (t *memTx) DecrementStock(productID string, qty int) error {
	p, err := t.store.product(productID)
	if err != nil {
		return err
	}
	if p.Stock < qty {
		return order.ErrStockConflict
	}
	p.Stock -= qty
	t.store.products[productID] = p
	return nil
}

func (t *memTx) RestoreStock(orderID, productID string, qty int) error {
	o, ok := t.store.orders[orderID]
	if !ok {
		return order.ErrOrderNotFound
	}
	// Same guard as the SQL stores: stock only comes back while the order
	// is still cancellable.
	if !o.Status.CanTransition(order.StatusCancelled) {
		return nil
	}
	p, err := t.store.product(productID)
	if err != nil {
		return err
	}
	p.Stock += qty
	t.store.products[productID] = p
	return nil
}

func (t *memTx) SetStatus(orderID string, to order.Status, from ...order.Status) error {
	return t.store.setStatusLocked(orderID, to, from)
}

func cloneOrder(o order.Order) order.Order {
	items := make([]order.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}

func (s *Store) Order(id string) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return order.Order{}, order.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) OrdersByUser(userID string) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]order.Order, 0)
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out, nil
}

func (s *Store) SetStatus(orderID string, to order.Status, from ...order.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStatusLocked(orderID, to, from)
}

// setStatusLocked is the compare-and-set behind both SetStatus paths. The
// caller holds the store mutex.
func (s *Store) setStatusLocked(orderID string, to order.Status, from []order.Status) error {
	o, ok := s.orders[orderID]
	if !ok {
		return order.ErrOrderNotFound
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = to
			s.orders[orderID] = o
			return nil
		}
	}
	return &order.InvalidTransitionError{From: o.Status, To: to}
}

func (s *Store) SetPaid(orderID string, paid bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return order.ErrOrderNotFound
	}
	o.Paid = paid
	s.orders[orderID] = o
	return nil
}

// ---- review.Repository ----

func (s *Store) InsertReview(r review.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews {
		if existing.ProductID == r.ProductID && existing.UserID == r.UserID {
			return review.ErrDuplicateReview
		}
	}
	r.HelpfulCount = 0
	s.reviews[r.ID] = r
	return nil
}

func (s *Store) Review(id string) (review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return review.Review{}, review.ErrReviewNotFound
	}
	r.HelpfulCount = len(s.votes[id])
	return r, nil
}

func (s *Store) UpdateReview(r review.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[r.ID]; !ok {
		return review.ErrReviewNotFound
	}
	r.HelpfulCount = 0
	s.reviews[r.ID] = r
	return nil
}

func (s *Store) DeleteReview(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return review.ErrReviewNotFound
	}
	delete(s.reviews, id)
	delete(s.votes, id)
	return nil
}

func (s *Store) ReviewsByProduct(productID string) ([]review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listReviews(func(r review.Review) bool { return r.ProductID == productID && r.Active }), nil
}

func (s *Store) ReviewsByUser(userID string) ([]review.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listReviews(func(r review.Review) bool { return r.UserID == userID }), nil
}

func (s *Store) listReviews(keep func(review.Review) bool) []review.Review {
	out := make([]review.Review, 0)
	for id, r := range s.reviews {
		if keep(r) {
			r.HelpfulCount = len(s.votes[id])
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out
}

func (s *Store) HasReview(productID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reviews {
		if r.ProductID == productID && r.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) InsertVote(v review.HelpfulVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.votes[v.ReviewID] == nil {
		s.votes[v.ReviewID] = make(map[string]review.HelpfulVote)
	}
	s.votes[v.ReviewID][v.UserID] = v
	return nil
}

func (s *Store) DeleteVote(reviewID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.votes[reviewID], userID)
	return nil
}

func (s *Store) HasVote(reviewID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.votes[reviewID][userID]
	return ok, nil
}

func (s *Store) HelpfulCount(reviewID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.votes[reviewID]), nil
}

func (s *Store) Rating(productID string) (review.RatingSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, count := 0, 0
	for _, r := range s.reviews {
		if r.ProductID == productID && r.Active {
			sum += r.Rating
			count++
		}
	}
	out := review.RatingSummary{ProductID: productID, Count: count}
	if count > 0 {
		out.Average = float64(sum) / float64(count)
	}
	return out, nil
}
