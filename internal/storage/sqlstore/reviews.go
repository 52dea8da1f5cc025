package sqlstore

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/yxshee/biteback/services/api/internal/reviews"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(store *Store) *ReviewRepository {
	return &ReviewRepository{db: store.db}
}

var _ reviews.Repository = (*ReviewRepository)(nil)

const reviewColumns = `id, restaurant_id, customer_id, rating, comment, created_at, updated_at`

func (r *ReviewRepository) Create(ctx context.Context, review reviews.Review) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (`+reviewColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		review.ID, review.RestaurantID, review.CustomerID, review.Rating, review.Comment,
		timestamp(review.CreatedAt), timestamp(review.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return reviews.ErrAlreadyReviewed
	}
	return errors.Wrap(err, "sqlstore: insert review")
}

func (r *ReviewRepository) ByID(ctx context.Context, reviewID string) (reviews.Review, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, reviewID)
	return scanReview(row)
}

func (r *ReviewRepository) ByCustomerAndRestaurant(ctx context.Context, customerID, restaurantID string) (reviews.Review, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE customer_id = $1 AND restaurant_id = $2`,
		customerID, restaurantID,
	)
	return scanReview(row)
}

func (r *ReviewRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]reviews.Review, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE restaurant_id = $1 ORDER BY created_at DESC, id`,
		restaurantID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore: list reviews")
	}
	defer func() { _ = rows.Close() }()

	items := make([]reviews.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, review)
	}
	return items, errors.Wrap(rows.Err(), "sqlstore: list reviews")
}

func (r *ReviewRepository) Update(ctx context.Context, review reviews.Review) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET rating = $1, comment = $2, updated_at = $3 WHERE id = $4`,
		review.Rating, review.Comment, timestamp(review.UpdatedAt), review.ID,
	)
	if err != nil {
		return errors.Wrap(err, "sqlstore: update review")
	}
	return affectedOrNotFound(result, reviews.ErrReviewNotFound)
}

func (r *ReviewRepository) Delete(ctx context.Context, reviewID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID)
	if err != nil {
		return errors.Wrap(err, "sqlstore: delete review")
	}
	return affectedOrNotFound(result, reviews.ErrReviewNotFound)
}

func scanReview(row scanner) (reviews.Review, error) {
	var review reviews.Review
	err := row.Scan(
		&review.ID, &review.RestaurantID, &review.CustomerID, &review.Rating, &review.Comment,
		&review.CreatedAt, &review.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return reviews.Review{}, reviews.ErrReviewNotFound
	}
	if err != nil {
		return reviews.Review{}, errors.Wrap(err, "sqlstore: scan review")
	}
	review.CreatedAt = review.CreatedAt.UTC()
	review.UpdatedAt = review.UpdatedAt.UTC()
	return review, nil
}
