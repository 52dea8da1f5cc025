package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/yxshee/biteback/services/api/internal/reservations"
)

type ReservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(store *Store) *ReservationRepository {
	return &ReservationRepository{db: store.db}
}

var _ reservations.Repository = (*ReservationRepository)(nil)

const reservationColumns = `id, user_id, restaurant_id, reserved_at, party_size, notes, status, created_at, updated_at`

func (r *ReservationRepository) Create(ctx context.Context, reservation reservations.Reservation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reservations (`+reservationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		reservation.ID, reservation.UserID, reservation.RestaurantID, timestamp(reservation.ReservedAt),
		reservation.PartySize, reservation.Notes, string(reservation.Status),
		timestamp(reservation.CreatedAt), timestamp(reservation.UpdatedAt),
	)
	return errors.Wrap(err, "sqlstore: insert reservation")
}

func (r *ReservationRepository) ByID(ctx context.Context, reservationID string) (reservations.Reservation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, reservationID)
	reservation, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return reservations.Reservation{}, reservations.ErrReservationNotFound
	}
	return reservation, err
}

func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]reservations.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id = $1 ORDER BY reserved_at, id`, userID)
}

func (r *ReservationRepository) ListByRestaurant(ctx context.Context, restaurantID string) ([]reservations.Reservation, error) {
	return r.list(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE restaurant_id = $1 ORDER BY reserved_at, id`, restaurantID)
}

func (r *ReservationRepository) Update(ctx context.Context, reservation reservations.Reservation, expected reservations.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET reserved_at = $1, party_size = $2, notes = $3, status = $4, updated_at = $5 WHERE id = $6 AND status = $7`,
		timestamp(reservation.ReservedAt), reservation.PartySize, reservation.Notes,
		string(reservation.Status), timestamp(reservation.UpdatedAt), reservation.ID, string(expected),
	)
	if err != nil {
		return errors.Wrap(err, "sqlstore: update reservation")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlstore: update reservation")
	}
	if affected > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = $1`, reservation.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return reservations.ErrReservationNotFound
	}
	if err != nil {
		return errors.Wrap(err, "sqlstore: update reservation")
	}
	return reservations.ErrStatusChanged
}

func (r *ReservationRepository) ExpirePendingBefore(ctx context.Context, cutoff, now time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = $1, updated_at = $2 WHERE status = $3 AND reserved_at < $4`,
		string(reservations.StatusExpired), timestamp(now), string(reservations.StatusPending), timestamp(cutoff),
	)
	if err != nil {
		return 0, errors.Wrap(err, "sqlstore: expire reservations")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "sqlstore: expire reservations")
	}
	return int(affected), nil
}

func (r *ReservationRepository) list(ctx context.Context, query string, arg string) ([]reservations.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore: list reservations")
	}
	defer func() { _ = rows.Close() }()

	items := make([]reservations.Reservation, 0)
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, reservation)
	}
	return items, errors.Wrap(rows.Err(), "sqlstore: list reservations")
}

func scanReservation(row scanner) (reservations.Reservation, error) {
	var (
		reservation reservations.Reservation
		status      string
	)
	err := row.Scan(
		&reservation.ID, &reservation.UserID, &reservation.RestaurantID, &reservation.ReservedAt,
		&reservation.PartySize, &reservation.Notes, &status, &reservation.CreatedAt, &reservation.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return reservations.Reservation{}, err
	}
	if err != nil {
		return reservations.Reservation{}, errors.Wrap(err, "sqlstore: scan reservation")
	}
	reservation.Status = reservations.Status(status)
	reservation.ReservedAt = reservation.ReservedAt.UTC()
	reservation.CreatedAt = reservation.CreatedAt.UTC()
	reservation.UpdatedAt = reservation.UpdatedAt.UTC()
	return reservation, nil
}
