// Package review keeps product reviews and their helpful votes: one review
// per user per product, ratings 1 to 5, votes that toggle, and aggregate
// ratings derived from the stored rows.
package review

import (
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's take on a product. The (product, user) pair is
// unique, a second review from the same user is rejected.
type Review struct {
	ID        string    `json:"id"         db:"id"`
	ProductID string    `json:"product_id" db:"product_id"`
	UserID    string    `json:"user_id"    db:"user_id"`
	Rating    int       `json:"rating"     db:"rating"`
	Title     string    `json:"title"      db:"title"`
	Body      string    `json:"body"       db:"body"`
	Active    bool      `json:"active"     db:"active"`
	Created   time.Time `json:"created"    db:"created"`
	Updated   time.Time `json:"updated"    db:"updated"`

	// HelpfulCount is derived from the votes table, not stored on the row.
	HelpfulCount int `json:"helpful_count" db:"-"`
}

func (r Review) TableName() string {
	return "reviews"
}

// HelpfulVote marks a review as helpful. One vote per user per review;
// voting again takes the vote back.
type HelpfulVote struct {
	ReviewID string    `json:"review_id" db:"review_id"`
	UserID   string    `json:"user_id"   db:"user_id"`
	Created  time.Time `json:"created"   db:"created"`
}

func (v HelpfulVote) TableName() string {
	return "review_votes"
}

// RatingSummary aggregates the reviews of one product.
type RatingSummary struct {
	ProductID string  `json:"product_id"`
	Count     int     `json:"count"`
	Average   float64 `json:"average"`
}
