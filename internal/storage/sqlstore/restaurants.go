package sqlstore

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/yxshee/biteback/services/api/internal/restaurants"
)

type RestaurantRepository struct {
	db *sql.DB
}

func NewRestaurantRepository(store *Store) *RestaurantRepository {
	return &RestaurantRepository{db: store.db}
}

var _ restaurants.Repository = (*RestaurantRepository)(nil)

const restaurantColumns = `id, name, cuisine, address, description, staff_id, owner_id, created_at, updated_at`

func (r *RestaurantRepository) Create(ctx context.Context, restaurant restaurants.Restaurant) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO restaurants (`+restaurantColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		restaurant.ID, restaurant.Name, restaurant.Cuisine, restaurant.Address, restaurant.Description,
		restaurant.StaffID, restaurant.OwnerID, timestamp(restaurant.CreatedAt), timestamp(restaurant.UpdatedAt),
	)
	return errors.Wrap(err, "sqlstore: insert restaurant")
}

func (r *RestaurantRepository) ByID(ctx context.Context, restaurantID string) (restaurants.Restaurant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+restaurantColumns+` FROM restaurants WHERE id = $1`, restaurantID)
	restaurant, err := scanRestaurant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return restaurants.Restaurant{}, restaurants.ErrRestaurantNotFound
	}
	return restaurant, err
}

func (r *RestaurantRepository) List(ctx context.Context, filter restaurants.ListFilter) ([]restaurants.Restaurant, error) {
	query := `SELECT ` + restaurantColumns + ` FROM restaurants`
	args := make([]interface{}, 0, 2)
	switch {
	case filter.Cuisine != "" && filter.StaffID != "":
		query += ` WHERE cuisine = $1 AND staff_id = $2`
		args = append(args, filter.Cuisine, filter.StaffID)
	case filter.Cuisine != "":
		query += ` WHERE cuisine = $1`
		args = append(args, filter.Cuisine)
	case filter.StaffID != "":
		query += ` WHERE staff_id = $1`
		args = append(args, filter.StaffID)
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore: list restaurants")
	}
	defer func() { _ = rows.Close() }()

	items := make([]restaurants.Restaurant, 0)
	for rows.Next() {
		restaurant, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, restaurant)
	}
	return items, errors.Wrap(rows.Err(), "sqlstore: list restaurants")
}

func (r *RestaurantRepository) Update(ctx context.Context, restaurant restaurants.Restaurant) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE restaurants SET name = $1, cuisine = $2, address = $3, description = $4, staff_id = $5, owner_id = $6, updated_at = $7 WHERE id = $8`,
		restaurant.Name, restaurant.Cuisine, restaurant.Address, restaurant.Description,
		restaurant.StaffID, restaurant.OwnerID, timestamp(restaurant.UpdatedAt), restaurant.ID,
	)
	if err != nil {
		return errors.Wrap(err, "sqlstore: update restaurant")
	}
	return affectedOrNotFound(result, restaurants.ErrRestaurantNotFound)
}

func (r *RestaurantRepository) Delete(ctx context.Context, restaurantID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM restaurants WHERE id = $1`, restaurantID)
	if err != nil {
		return errors.Wrap(err, "sqlstore: delete restaurant")
	}
	return affectedOrNotFound(result, restaurants.ErrRestaurantNotFound)
}

func scanRestaurant(row scanner) (restaurants.Restaurant, error) {
	var restaurant restaurants.Restaurant
	err := row.Scan(
		&restaurant.ID, &restaurant.Name, &restaurant.Cuisine, &restaurant.Address, &restaurant.Description,
		&restaurant.StaffID, &restaurant.OwnerID, &restaurant.CreatedAt, &restaurant.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return restaurants.Restaurant{}, err
	}
	if err != nil {
		return restaurants.Restaurant{}, errors.Wrap(err, "sqlstore: scan restaurant")
	}
	restaurant.CreatedAt = restaurant.CreatedAt.UTC()
	restaurant.UpdatedAt = restaurant.UpdatedAt.UTC()
	return restaurant, nil
}
