package booking

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"voiceline/internal/audit"
	"voiceline/pkg/utils"
)

// PostgresStore persists reservations, restaurants and voice turns.
//
// Assumed tables:
//
//	restaurants(id BIGINT PRIMARY KEY, name, phone_number, address,
//	            opening_time, closing_time, capacity INT, created_at)
//	reservations(id UUID PRIMARY KEY, restaurant_id BIGINT REFERENCES restaurants,
//	             customer_name, customer_phone, customer_email,
//	             party_size INT, booking_date DATE, booking_time TEXT,
//	             special_requests, status, created_at, updated_at)
//	voice_turns(id UUID PRIMARY KEY, call_id, transcript, response_text,
//	            reservation_id TEXT DEFAULT '', created_at)
//
// plus the audit_log table documented in internal/audit.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Restaurant(ctx context.Context, id int64) (Restaurant, error) {
	const q = `
SELECT id, name, phone_number, address, opening_time, closing_time, capacity, created_at
FROM restaurants
WHERE id = $1
`
	var r Restaurant
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&r.ID,
		&r.Name,
		&r.PhoneNumber,
		&r.Address,
		&r.OpeningTime,
		&r.ClosingTime,
		&r.Capacity,
		&r.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Restaurant{}, ErrNotFound
		}
		return Restaurant{}, err
	}
	return r, nil
}

func (s *PostgresStore) SaveRestaurant(ctx context.Context, r Restaurant) error {
	const q = `
INSERT INTO restaurants (id, name, phone_number, address, opening_time, closing_time, capacity, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  phone_number = EXCLUDED.phone_number,
  address = EXCLUDED.address,
  opening_time = EXCLUDED.opening_time,
  closing_time = EXCLUDED.closing_time,
  capacity = EXCLUDED.capacity
`
	_, err := s.db.ExecContext(ctx, q,
		r.ID, r.Name, r.PhoneNumber, r.Address, r.OpeningTime, r.ClosingTime, r.Capacity, r.CreatedAt)
	return err
}

// CreateReservation writes the reservation row and its audit entry in one
// transaction. Either both are durable or neither is.
func (s *PostgresStore) CreateReservation(ctx context.Context, res Reservation, entry audit.Entry) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
INSERT INTO reservations (id, restaurant_id, customer_name, customer_phone, customer_email,
                          party_size, booking_date, booking_time, special_requests, status,
                          created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`
		if _, err := tx.ExecContext(ctx, q,
			res.ID, res.RestaurantID, res.CustomerName, res.CustomerPhone, res.CustomerEmail,
			res.PartySize, res.Date, res.Time, res.SpecialRequests, res.Status,
			res.CreatedAt, res.UpdatedAt); err != nil {
			return err
		}
		return appendAuditTx(ctx, tx, entry)
	})
}

func (s *PostgresStore) Reservation(ctx context.Context, id string) (Reservation, error) {
	const q = `
SELECT id, restaurant_id, customer_name, customer_phone, customer_email,
       party_size, booking_date, booking_time, special_requests, status,
       created_at, updated_at
FROM reservations
WHERE id = $1
`
	var r Reservation
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&r.ID,
		&r.RestaurantID,
		&r.CustomerName,
		&r.CustomerPhone,
		&r.CustomerEmail,
		&r.PartySize,
		&r.Date,
		&r.Time,
		&r.SpecialRequests,
		&r.Status,
		&r.CreatedAt,
		&r.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, err
	}
	return r, nil
}

func (s *PostgresStore) ListReservations(ctx context.Context, f ListFilter) ([]Reservation, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, clause+"$"+strconv.Itoa(len(args)))
	}

	if f.Status != "" {
		add("status = ", f.Status)
	}
	if !f.DateFrom.IsZero() {
		add("booking_date >= ", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("booking_date < ", f.DateTo)
	}

	q := `SELECT id, restaurant_id, customer_name, customer_phone, customer_email,
       party_size, booking_date, booking_time, special_requests, status,
       created_at, updated_at
FROM reservations`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit)
	q += " ORDER BY booking_date DESC, booking_time DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		var r Reservation
		if err := rows.Scan(
			&r.ID, &r.RestaurantID, &r.CustomerName, &r.CustomerPhone, &r.CustomerEmail,
			&r.PartySize, &r.Date, &r.Time, &r.SpecialRequests, &r.Status,
			&r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateReservationStatus(ctx context.Context, id string, status ReservationStatus, updatedAt time.Time, entry audit.Entry) error {
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		const q = `
UPDATE reservations SET status = $1, updated_at = $2 WHERE id = $3
`
		res, err := tx.ExecContext(ctx, q, status, updatedAt, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return appendAuditTx(ctx, tx, entry)
	})
}

func (s *PostgresStore) AppendVoiceTurn(ctx context.Context, turn VoiceTurn) error {
	const q = `
INSERT INTO voice_turns (id, call_id, transcript, response_text, reservation_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := s.db.ExecContext(ctx, q,
		turn.ID, turn.CallID, turn.Transcript, turn.ResponseText, turn.ReservationID, turn.CreatedAt)
	return err
}

// appendAuditTx writes to the same audit_log table as audit.PostgresRepo so
// reservation writes and their audit entries share a transaction.
func appendAuditTx(ctx context.Context, tx *sql.Tx, e audit.Entry) error {
	const q = `
INSERT INTO audit_log (id, action, entity_type, entity_id, description, data, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := tx.ExecContext(ctx, q, e.ID, e.Action, e.EntityType, e.EntityID, e.Description, e.Data, e.CreatedAt)
	return err
}
