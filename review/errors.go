package review

import (
	"github.com/medatechnology/goutil/medaerror"
)

var (
	// ErrInvalidRating is returned for ratings outside MinRating..MaxRating.
	ErrInvalidRating medaerror.MedaError = medaerror.MedaError{Message: "rating must be between 1 and 5"}
	// ErrDuplicateReview is returned when the user already reviewed the
	// product.
	ErrDuplicateReview medaerror.MedaError = medaerror.MedaError{Message: "product already reviewed by this user"}
	// ErrReviewNotFound is returned when the review id does not exist.
	ErrReviewNotFound medaerror.MedaError = medaerror.MedaError{Message: "review not found"}
	// ErrNotOwner is returned when a user edits or deletes someone else's
	// review.
	ErrNotOwner medaerror.MedaError = medaerror.MedaError{Message: "review belongs to another user"}
	// ErrSelfVote is returned when a user votes their own review helpful.
	ErrSelfVote medaerror.MedaError = medaerror.MedaError{Message: "cannot vote own review helpful"}
)
