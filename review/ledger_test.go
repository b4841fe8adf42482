package review_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/medatechnology/storefront/catalog"
	"github.com/medatechnology/storefront/memstore"
	"github.com/medatechnology/storefront/review"
)

// newTestLedger seeds the given products and builds a ledger on memstore,
// which backs both the review repository and the catalog lookup.
func newTestLedger(t *testing.T, productIDs ...string) (*review.Ledger, *memstore.Store) {
	t.Helper()
	m := memstore.New()
	for _, id := range productIDs {
		p := catalog.Product{
			ID:        id,
			Name:      "Product " + id,
			Slug:      id,
			Price:     decimal.NewFromInt(10),
			Stock:     5,
			Available: true,
		}
		if err := m.InsertProduct(p); err != nil {
			t.Fatalf("seed product %s: %v", id, err)
		}
	}
	return review.NewLedger(m, m, nil), m
}

func TestAddReviewValidatesRating(t *testing.T) {
	ledger, _ := newTestLedger(t, "p1", "p2", "p3", "p4", "p5")
	for _, rating := range []int{0, -1, 6, 100} {
		if _, err := ledger.AddReview("u1", "p1", rating, "t", "b"); !errors.Is(err, review.ErrInvalidRating) {
			t.Errorf("rating %d err = %v, want ErrInvalidRating", rating, err)
		}
	}
	for rating := review.MinRating; rating <= review.MaxRating; rating++ {
		product := "p" + string(rune('0'+rating))
		if _, err := ledger.AddReview("u1", product, rating, "t", "b"); err != nil {
			t.Errorf("rating %d err = %v, want nil", rating, err)
		}
	}
}

func TestAddReviewUnknownProduct(t *testing.T) {
	ledger, _ := newTestLedger(t)
	if _, err := ledger.AddReview("u1", "ghost", 4, "t", "b"); !errors.Is(err, catalog.ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
}

func TestAddReviewOncePerProduct(t *testing.T) {
	ledger, _ := newTestLedger(t, "p1", "p2")
	if _, err := ledger.AddReview("u1", "p1", 5, "great", "loved it"); err != nil {
		t.Fatalf("first review: %v", err)
	}
	if _, err := ledger.AddReview("u1", "p1", 3, "changed my mind", ""); !errors.Is(err, review.ErrDuplicateReview) {
		t.Fatalf("err = %v, want ErrDuplicateReview", err)
	}
	// Another user and another product are both fine.
	if _, err := ledger.AddReview("u2", "p1", 4, "", ""); err != nil {
		t.Fatalf("other user: %v", err)
	}
	if _, err := ledger.AddReview("u1", "p2", 4, "", ""); err != nil {
		t.Fatalf("other product: %v", err)
	}
}

func TestEditReviewOwnership(t *testing.T) {
	ledger, _ := newTestLedger(t, "p1")
	r, err := ledger.AddReview("u1", "p1", 4, "ok", "fine")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, err := ledger.EditReview("u2", r.ID, 1, "sabotage", ""); !errors.Is(err, review.ErrNotOwner) {
		t.Fatalf("edit by stranger err = %v, want ErrNotOwner", err)
	}
	if _, err := ledger.EditReview("u1", r.ID, 9, "", ""); !errors.Is(err, review.ErrInvalidRating) {
		t.Fatalf("bad rating err = %v, want ErrInvalidRating", err)
	}

	edited, err := ledger.EditReview("u1", r.ID, 5, "better", "much better")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Rating != 5 || edited.Title != "better" {
		t.Fatalf("edited = %+v", edited)
	}
	if !edited.Updated.After(r.Updated) && !edited.Updated.Equal(r.Updated) {
		t.Fatalf("updated not bumped: %v -> %v", r.Updated, edited.Updated)
	}
}

func TestDeleteReview(t *testing.T) {
	ledger, _ := newTestLedger(t, "p1")
	r, err := ledger.AddReview("u1", "p1", 4, "", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := ledger.DeleteReview("u2", r.ID); !errors.Is(err, review.ErrNotOwner) {
		t.Fatalf("delete by stranger err = %v, want ErrNotOwner", err)
	}
	if err := ledger.DeleteReview("u1", r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ledger.DeleteReview("u1", r.ID); !errors.Is(err, review.ErrReviewNotFound) {
		t.Fatalf("second delete err = %v, want ErrReviewNotFound", err)
	}
	// The author can review the product again after deleting.
	if _, err := ledger.AddReview("u1", "p1", 2, "", ""); err != nil {
		t.Fatalf("re-review after delete: %v", err)
	}
}

func TestToggleHelpful(t *testing.T) {
	ledger, _ := newTestLedger(t, "p1")
	r, err := ledger.AddReview("author", "p1", 5, "", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, _, err := ledger.ToggleHelpful("author", r.ID); !errors.Is(err, review.ErrSelfVote) {
		t.Fatalf("self vote err = %v, want ErrSelfVote", err)
	}

	voted, count, err := ledger.ToggleHelpful("reader", r.ID)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !voted || count != 1 {
		t.Fatalf("after vote: voted=%v count=%d, want true 1", voted, count)
	}

	voted, count, err = ledger.ToggleHelpful("reader", r.ID)
	if err != nil {
		t.Fatalf("unvote: %v", err)
	}
	if voted || count != 0 {
		t.Fatalf("after unvote: voted=%v count=%d, want false 0", voted, count)
	}

	// Votes from different readers add up.
	if _, _, err := ledger.ToggleHelpful("reader", r.ID); err != nil {
		t.Fatalf("revote: %v", err)
	}
	if _, count, err = ledger.ToggleHelpful("reader2", r.ID); err != nil || count != 2 {
		t.Fatalf("second reader: count=%d err=%v, want 2", count, err)
	}
}

func TestListingsAndHelpfulCounts(t *testing.T) {
	ledger, _ := newTestLedger(t, "p1", "p2")
	r1, _ := ledger.AddReview("u1", "p1", 5, "first", "")
	if _, err := ledger.AddReview("u2", "p1", 3, "second", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := ledger.AddReview("u1", "p2", 4, "other product", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := ledger.ToggleHelpful("u3", r1.ID); err != nil {
		t.Fatalf("vote: %v", err)
	}

	byProduct, err := ledger.ProductReviews("p1")
	if err != nil {
		t.Fatalf("product reviews: %v", err)
	}
	if len(byProduct) != 2 {
		t.Fatalf("p1 reviews = %d, want 2", len(byProduct))
	}
	for _, r := range byProduct {
		if r.ID == r1.ID && r.HelpfulCount != 1 {
			t.Fatalf("r1 helpful count = %d, want 1", r.HelpfulCount)
		}
	}

	byUser, err := ledger.UserReviews("u1")
	if err != nil {
		t.Fatalf("user reviews: %v", err)
	}
	if len(byUser) != 2 {
		t.Fatalf("u1 reviews = %d, want 2", len(byUser))
	}
}

func TestAverageRating(t *testing.T) {
	ledger, _ := newTestLedger(t, "p1")

	empty, err := ledger.AverageRating("p1")
	if err != nil {
		t.Fatalf("empty rating: %v", err)
	}
	if empty.Count != 0 || empty.Average != 0 {
		t.Fatalf("empty = %+v, want zeroes", empty)
	}

	if _, err := ledger.AddReview("u1", "p1", 5, "", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := ledger.AddReview("u2", "p1", 2, "", ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	sum, err := ledger.AverageRating("p1")
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if sum.Count != 2 || sum.Average != 3.5 {
		t.Fatalf("summary = %+v, want count 2 average 3.5", sum)
	}
}

func TestSetActiveHidesReview(t *testing.T) {
	ledger, _ := newTestLedger(t, "p1")

	r1, err := ledger.AddReview("u1", "p1", 5, "great", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := ledger.AddReview("u2", "p1", 1, "awful", ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := ledger.SetActive(r1.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	listed, err := ledger.ProductReviews("p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].UserID != "u2" {
		t.Fatalf("listed = %+v, want only u2's review", listed)
	}

	sum, err := ledger.AverageRating("p1")
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if sum.Count != 1 || sum.Average != 1 {
		t.Fatalf("summary = %+v, want count 1 average 1", sum)
	}

	// The slot stays taken, no re-posting around a takedown.
	if _, err := ledger.AddReview("u1", "p1", 5, "again", ""); !errors.Is(err, review.ErrDuplicateReview) {
		t.Fatalf("re-add err = %v, want ErrDuplicateReview", err)
	}

	if err := ledger.SetActive(r1.ID, true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	listed, err = ledger.ProductReviews("p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("listed = %d reviews after reactivation, want 2", len(listed))
	}
}
