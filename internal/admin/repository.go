package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository handles review persistence. Reviews are append-only, a
// verification can accumulate several over its lifetime.
type Repository interface {
	CreateReview(ctx context.Context, review *Review) error
	ListReviewsByVerification(ctx context.Context, verificationID string) ([]Review, error)
	ListReviewsSince(ctx context.Context, since time.Time) ([]Review, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a review repository
func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateReview(ctx context.Context, review *Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO verification_reviews (id, verification_id, reviewer_id, decision, notes, created_at)
		VALUES (:id, :verification_id, :reviewer_id, :decision, :notes, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, review)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *postgresRepository) ListReviewsByVerification(ctx context.Context, verificationID string) ([]Review, error) {
	var reviews []Review
	err := r.db.SelectContext(ctx, &reviews,
		`SELECT id, verification_id, reviewer_id, decision, notes, created_at
		 FROM verification_reviews
		 WHERE verification_id = $1
		 ORDER BY created_at DESC`,
		verificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (r *postgresRepository) ListReviewsSince(ctx context.Context, since time.Time) ([]Review, error) {
	var reviews []Review
	err := r.db.SelectContext(ctx, &reviews,
		`SELECT id, verification_id, reviewer_id, decision, notes, created_at
		 FROM verification_reviews
		 WHERE created_at >= $1
		 ORDER BY created_at DESC`,
		since)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
