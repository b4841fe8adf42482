package review

import (
	"time"

	"github.com/google/uuid"

	store "github.com/medatechnology/storefront"
	"github.com/medatechnology/storefront/catalog"
)

// Ledger is the review API on top of a Repository. It checks products
// against the catalog so reviews only attach to products that exist.
type Ledger struct {
	repo    Repository
	catalog catalog.Repository
	log     store.Logger
}

func NewLedger(repo Repository, cat catalog.Repository, log store.Logger) *Ledger {
	if log == nil {
		log = store.GetDefaultLogger()
	}
	return &Ledger{repo: repo, catalog: cat, log: log}
}

// AddReview records a user's review of a product. The rating must be
// between 1 and 5, the product must exist, and a user gets one review per
// product; the second attempt fails with ErrDuplicateReview, edit the
// existing one instead. The unique constraint on the reviews table backs
// the duplicate check when two inserts race.
func (l *Ledger) AddReview(userID, productID string, rating int, title, body string) (Review, error) {
	if rating < MinRating || rating > MaxRating {
		return Review{}, ErrInvalidRating
	}
	if _, err := l.catalog.Product(productID); err != nil {
		return Review{}, err
	}
	taken, err := l.repo.HasReview(productID, userID)
	if err != nil {
		return Review{}, err
	}
	if taken {
		return Review{}, ErrDuplicateReview
	}
	now := time.Now().UTC()
	r := Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Title:     title,
		Body:      body,
		Active:    true,
		Created:   now,
		Updated:   now,
	}
	if err := l.repo.InsertReview(r); err != nil {
		return Review{}, err
	}
	l.log.Info("review added",
		store.String("review_id", r.ID),
		store.String("product_id", productID),
		store.Int("rating", rating))
	return r, nil
}

// EditReview updates the rating, title and body of the user's own review.
func (l *Ledger) EditReview(userID, reviewID string, rating int, title, body string) (Review, error) {
	if rating < MinRating || rating > MaxRating {
		return Review{}, ErrInvalidRating
	}
	r, err := l.repo.Review(reviewID)
	if err != nil {
		return Review{}, err
	}
	if r.UserID != userID {
		return Review{}, ErrNotOwner
	}
	r.Rating = rating
	r.Title = title
	r.Body = body
	r.Updated = time.Now().UTC()
	if err := l.repo.UpdateReview(r); err != nil {
		return Review{}, err
	}
	return r, nil
}

// DeleteReview removes the user's own review, votes included.
func (l *Ledger) DeleteReview(userID, reviewID string) error {
	r, err := l.repo.Review(reviewID)
	if err != nil {
		return err
	}
	if r.UserID != userID {
		return ErrNotOwner
	}
	return l.repo.DeleteReview(reviewID)
}

// SetActive flips a review's moderation flag. Deactivated reviews drop out
// of product listings and the rating aggregate but keep their slot in the
// one-review-per-user constraint, so the author cannot re-post around a
// takedown.
func (l *Ledger) SetActive(reviewID string, active bool) error {
	r, err := l.repo.Review(reviewID)
	if err != nil {
		return err
	}
	if r.Active == active {
		return nil
	}
	r.Active = active
	r.Updated = time.Now().UTC()
	return l.repo.UpdateReview(r)
}

// ToggleHelpful flips the user's helpful vote on a review: first call adds
// the vote, the next takes it back. Authors cannot vote on their own
// reviews. It returns whether the vote is now set and the new count.
func (l *Ledger) ToggleHelpful(userID, reviewID string) (bool, int, error) {
	r, err := l.repo.Review(reviewID)
	if err != nil {
		return false, 0, err
	}
	if r.UserID == userID {
		return false, 0, ErrSelfVote
	}

	voted, err := l.repo.HasVote(reviewID, userID)
	if err != nil {
		return false, 0, err
	}
	if voted {
		if err := l.repo.DeleteVote(reviewID, userID); err != nil {
			return false, 0, err
		}
	} else {
		v := HelpfulVote{ReviewID: reviewID, UserID: userID, Created: time.Now().UTC()}
		if err := l.repo.InsertVote(v); err != nil {
			return false, 0, err
		}
	}

	count, err := l.repo.HelpfulCount(reviewID)
	if err != nil {
		return !voted, 0, err
	}
	return !voted, count, nil
}

// ProductReviews lists a product's reviews newest first, helpful counts
// included.
func (l *Ledger) ProductReviews(productID string) ([]Review, error) {
	return l.repo.ReviewsByProduct(productID)
}

// UserReviews lists everything one user has written, newest first.
func (l *Ledger) UserReviews(userID string) ([]Review, error) {
	return l.repo.ReviewsByUser(userID)
}

// AverageRating aggregates a product's reviews. A product with no reviews
// comes back with Count 0 and Average 0.
func (l *Ledger) AverageRating(productID string) (RatingSummary, error) {
	return l.repo.Rating(productID)
}
