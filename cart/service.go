package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/medatechnology/storefront/catalog"

	store "github.com/medatechnology/storefront"
)

// Service is the cart API. Every call loads the blob for the session key,
// mutates the cart value and writes it back, so the blob store is the only
// state and any instance can serve any session.
type Service struct {
	catalog catalog.Repository
	blobs   BlobStore
	log     store.Logger
}

func NewService(cat catalog.Repository, blobs BlobStore, log store.Logger) *Service {
	if log == nil {
		log = store.GetDefaultLogger()
	}
	return &Service{catalog: cat, blobs: blobs, log: log}
}

// load returns the cart for key. A missing blob is an empty cart. A blob
// that does not decode is discarded the same way, the session keeps working
// with a fresh cart instead of being wedged forever.
func (s *Service) load(ctx context.Context, key string) (Cart, error) {
	blob, err := s.blobs.Load(ctx, key)
	if errors.Is(err, ErrBlobNotFound) {
		return NewCart(), nil
	}
	if err != nil {
		return Cart{}, err
	}
	var c Cart
	if err := json.Unmarshal(blob, &c); err != nil {
		s.log.Warn("discarding unreadable cart blob",
			store.String("session", key), store.Error(err))
		return NewCart(), nil
	}
	if c.Lines == nil {
		c.Lines = make(map[string]Line)
	}
	return c, nil
}

// save writes the cart back, deleting the blob outright when the cart is
// empty so abandoned sessions leave nothing behind.
func (s *Service) save(ctx context.Context, key string, c Cart) error {
	if c.IsEmpty() {
		return s.blobs.Delete(ctx, key)
	}
	blob, err := json.Marshal(c)
	if err != nil {
		return store.WrapError(err, "CART:ENCODE", "")
	}
	return s.blobs.Save(ctx, key, blob)
}

// Add changes the quantity of a product in the cart. With override false the
// quantity, which may be negative, is added to any existing line; with
// override true it replaces it. A resulting quantity of zero or less removes
// the line as a side effect, not an error. A new line snapshots the product's
// name, price and image; later adds only touch the quantity, the snapshot
// stays what the visitor was shown. The resulting quantity is checked against
// current stock before anything is written, a failed add leaves the cart
// exactly as it was.
func (s *Service) Add(ctx context.Context, key, productID string, quantity int, override bool) error {
	c, err := s.load(ctx, key)
	if err != nil {
		return err
	}

	existing, present := c.Lines[productID]
	newQuantity := quantity
	if !override && present {
		newQuantity += existing.Quantity
	}
	if newQuantity <= 0 {
		c.remove(productID)
		return s.save(ctx, key, c)
	}

	p, err := s.catalog.Product(productID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		return ErrUnknownProduct
	}
	if err != nil {
		return err
	}
	if !p.Available {
		return ErrUnavailable
	}
	if newQuantity > p.Stock {
		return &OutOfStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: newQuantity,
			Available: p.Stock,
		}
	}

	if present {
		existing.Quantity = newQuantity
		c.set(existing)
	} else {
		c.set(Line{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.EffectivePrice(),
			Quantity:  newQuantity,
			Image:     p.Image,
		})
	}
	return s.save(ctx, key, c)
}

// Remove deletes the line for productID. Removing a product that is not in
// the cart is a no-op.
func (s *Service) Remove(ctx context.Context, key, productID string) error {
	c, err := s.load(ctx, key)
	if err != nil {
		return err
	}
	if _, ok := c.Lines[productID]; !ok {
		return nil
	}
	c.remove(productID)
	return s.save(ctx, key, c)
}

// Clear drops the whole cart. Clearing an absent cart is a no-op.
func (s *Service) Clear(ctx context.Context, key string) error {
	return s.blobs.Delete(ctx, key)
}

// Items returns the cart lines as stored: name, price and image are the
// snapshot taken when the line was added, never re-read from the catalog, so
// the visitor keeps seeing the price they put in the cart. The only join
// with the live catalog drops lines whose product no longer resolves; when
// that happens the shrunken cart is persisted, so the stored blob heals
// itself on read. Products that merely went out of stock or off sale stay in
// the cart and are reported at checkout. Lines come back sorted by product
// name.
func (s *Service) Items(ctx context.Context, key string) ([]Line, error) {
	c, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	changed := false
	lines := make([]Line, 0, len(c.Lines))
	for id, l := range c.Lines {
		if _, err := s.catalog.Product(id); err != nil {
			if !errors.Is(err, catalog.ErrProductNotFound) {
				return nil, err
			}
			s.log.Warn("dropping cart line, product no longer exists",
				store.String("session", key), store.String("product_id", id))
			c.remove(id)
			changed = true
			continue
		}
		lines = append(lines, l)
	}

	if changed {
		if err := s.save(ctx, key, c); err != nil {
			// Reads still succeed when the heal cannot be written back,
			// the next read reconciles again.
			s.log.Warn("could not persist reconciled cart",
				store.String("session", key), store.Error(err))
		}
	}

	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines, nil
}

// TotalItems is the reconciled sum of quantities in the cart.
func (s *Service) TotalItems(ctx context.Context, key string) (int, error) {
	lines, err := s.Items(ctx, key)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n, nil
}

// TotalPrice is the reconciled, exact cart total.
func (s *Service) TotalPrice(ctx context.Context, key string) (decimal.Decimal, error) {
	lines, err := s.Items(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total, nil
}

// LineSummary is one cart line shaped for a JSON response. Prices are
// floats here and only here; arithmetic stays decimal everywhere else.
type LineSummary struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

// Summary is the whole cart shaped for a JSON response.
type Summary struct {
	Lines      []LineSummary `json:"lines"`
	TotalItems int           `json:"total_items"`
	TotalPrice float64       `json:"total_price"`
}

// Summary returns the reconciled cart as a JSON-friendly value.
func (s *Service) Summary(ctx context.Context, key string) (Summary, error) {
	lines, err := s.Items(ctx, key)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Lines: make([]LineSummary, 0, len(lines))}
	total := decimal.Zero
	for _, l := range lines {
		sub := l.Subtotal()
		sum.Lines = append(sum.Lines, LineSummary{
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.Price.InexactFloat64(),
			Quantity:  l.Quantity,
			Subtotal:  sub.InexactFloat64(),
		})
		sum.TotalItems += l.Quantity
		total = total.Add(sub)
	}
	sum.TotalPrice = total.InexactFloat64()
	return sum, nil
}
