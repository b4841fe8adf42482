package review

// Repository persists reviews and helpful votes. Implementations return
// ErrReviewNotFound for unknown ids and ErrDuplicateReview when an insert
// hits the one-review-per-user-per-product constraint.
type Repository interface {
	InsertReview(r Review) error
	Review(id string) (Review, error)
	UpdateReview(r Review) error
	DeleteReview(id string) error

	// ReviewsByProduct returns a product's active reviews newest first,
	// each with its HelpfulCount filled in. Deactivated reviews stay out of
	// product listings and the rating aggregate but still count toward the
	// one-review-per-user constraint.
	ReviewsByProduct(productID string) ([]Review, error)
	// ReviewsByUser returns everything one user wrote, newest first.
	ReviewsByUser(userID string) ([]Review, error)
	// HasReview reports whether the user already reviewed the product.
	HasReview(productID, userID string) (bool, error)

	InsertVote(v HelpfulVote) error
	DeleteVote(reviewID, userID string) error
	HasVote(reviewID, userID string) (bool, error)
	HelpfulCount(reviewID string) (int, error)

	// Rating aggregates the product's active reviews into count and average.
	Rating(productID string) (RatingSummary, error)
}
