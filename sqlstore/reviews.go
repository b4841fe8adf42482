package sqlstore

import (
	"errors"
	"strings"

	"github.com/medatechnology/storefront/review"

	store "github.com/medatechnology/storefront"
)

func reviewFromRecord(rec store.DBRecord) review.Review {
	d := rec.Data
	return review.Review{
		ID:        asString(d["id"]),
		ProductID: asString(d["product_id"]),
		UserID:    asString(d["user_id"]),
		Rating:    asInt(d["rating"]),
		Title:     asString(d["title"]),
		Body:      asString(d["body"]),
		Active:    asBool(d["active"]),
		Created:   asTime(d["created"]),
		Updated:   asTime(d["updated"]),
	}
}

func reviewRecord(r review.Review) store.DBRecord {
	return store.DBRecord{
		TableName: r.TableName(),
		Data: map[string]interface{}{
			"id":         r.ID,
			"product_id": r.ProductID,
			"user_id":    r.UserID,
			"rating":     r.Rating,
			"title":      r.Title,
			"body":       r.Body,
			"active":     r.Active,
			"created":    formatTime(r.Created),
			"updated":    formatTime(r.Updated),
		},
	}
}

// isUniqueViolation matches the unique-constraint wording of both backends:
// lib/pq says "duplicate key value violates unique constraint", SQLite says
// "UNIQUE constraint failed".
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// isCheckViolation matches the CHECK-constraint wording of both backends:
// lib/pq says "violates check constraint", SQLite says "CHECK constraint
// failed".
func isCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint")
}

func (s *Store) InsertReview(r review.Review) error {
	res := s.db.InsertOneDBRecord(reviewRecord(r), false)
	if isUniqueViolation(res.Error) {
		return review.ErrDuplicateReview
	}
	return res.Error
}

func (s *Store) Review(id string) (review.Review, error) {
	rec, err := s.selectRecord(`SELECT * FROM reviews WHERE id = ?`, id)
	if errors.Is(err, store.ErrSQLNoRows) {
		return review.Review{}, review.ErrReviewNotFound
	}
	if err != nil {
		return review.Review{}, err
	}
	r := reviewFromRecord(rec)
	count, err := s.HelpfulCount(id)
	if err != nil {
		return review.Review{}, err
	}
	r.HelpfulCount = count
	return r, nil
}

func (s *Store) UpdateReview(r review.Review) error {
	res, err := s.exec(
		`UPDATE reviews SET rating = ?, title = ?, body = ?, active = ?, updated = ? WHERE id = ?`,
		r.Rating, r.Title, r.Body, r.Active, formatTime(r.Updated), r.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return review.ErrReviewNotFound
	}
	return nil
}

func (s *Store) DeleteReview(id string) error {
	if _, err := s.exec(`DELETE FROM review_votes WHERE review_id = ?`, id); err != nil {
		return err
	}
	res, err := s.exec(`DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return review.ErrReviewNotFound
	}
	return nil
}

// ReviewsByProduct skips deactivated reviews; they stay on disk so the
// one-review-per-user constraint still holds.
func (s *Store) ReviewsByProduct(productID string) ([]review.Review, error) {
	return s.reviews(
		`SELECT * FROM reviews WHERE product_id = ? AND active = ? ORDER BY created DESC`,
		productID, true)
}

func (s *Store) ReviewsByUser(userID string) ([]review.Review, error) {
	return s.reviews(`SELECT * FROM reviews WHERE user_id = ? ORDER BY created DESC`, userID)
}

func (s *Store) reviews(query string, values ...interface{}) ([]review.Review, error) {
	recs, err := s.selectRecords(query, values...)
	if err != nil {
		return nil, err
	}
	out := make([]review.Review, len(recs))
	for i, rec := range recs {
		out[i] = reviewFromRecord(rec)
		count, err := s.HelpfulCount(out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].HelpfulCount = count
	}
	return out, nil
}

func (s *Store) HasReview(productID, userID string) (bool, error) {
	rec, err := s.selectRecord(
		`SELECT COUNT(*) AS n FROM reviews WHERE product_id = ? AND user_id = ?`,
		productID, userID)
	if err != nil {
		return false, err
	}
	return asInt(rec.Data["n"]) > 0, nil
}

func (s *Store) InsertVote(v review.HelpfulVote) error {
	res := s.db.InsertOneDBRecord(store.DBRecord{
		TableName: v.TableName(),
		Data: map[string]interface{}{
			"review_id": v.ReviewID,
			"user_id":   v.UserID,
			"created":   formatTime(v.Created),
		},
	}, false)
	return res.Error
}

func (s *Store) DeleteVote(reviewID, userID string) error {
	_, err := s.exec(
		`DELETE FROM review_votes WHERE review_id = ? AND user_id = ?`, reviewID, userID)
	return err
}

func (s *Store) HasVote(reviewID, userID string) (bool, error) {
	rec, err := s.selectRecord(
		`SELECT COUNT(*) AS n FROM review_votes WHERE review_id = ? AND user_id = ?`,
		reviewID, userID)
	if err != nil {
		return false, err
	}
	return asInt(rec.Data["n"]) > 0, nil
}

func (s *Store) HelpfulCount(reviewID string) (int, error) {
	rec, err := s.selectRecord(
		`SELECT COUNT(*) AS n FROM review_votes WHERE review_id = ?`, reviewID)
	if err != nil {
		return 0, err
	}
	return asInt(rec.Data["n"]), nil
}

// Rating aggregates in SQL so the average reflects every active review even
// when listings are paginated.
func (s *Store) Rating(productID string) (review.RatingSummary, error) {
	rec, err := s.selectRecord(
		`SELECT COUNT(*) AS n, COALESCE(AVG(rating), 0) AS avg_rating
		 FROM reviews WHERE product_id = ? AND active = ?`, productID, true)
	if err != nil {
		return review.RatingSummary{}, err
	}
	count := asInt(rec.Data["n"])
	avg := 0.0
	if count > 0 {
		switch t := rec.Data["avg_rating"].(type) {
		case float64:
			avg = t
		default:
			avg = asDecimal(t).InexactFloat64()
		}
	}
	return review.RatingSummary{ProductID: productID, Count: count, Average: avg}, nil
}
