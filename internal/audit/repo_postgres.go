package audit

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// PostgresRepo persists audit entries.
//
// Assumed table:
//
//	CREATE TABLE audit_log (
//	    id          UUID PRIMARY KEY,
//	    action      TEXT NOT NULL,
//	    entity_type TEXT NOT NULL,
//	    entity_id   TEXT NOT NULL DEFAULT '',
//	    description TEXT NOT NULL,
//	    data        TEXT NOT NULL DEFAULT '',
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	const q = `
INSERT INTO audit_log (id, action, entity_type, entity_id, description, data, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.Action, e.EntityType, e.EntityID, e.Description, e.Data, e.CreatedAt)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, clause+"$"+strconv.Itoa(len(args)))
	}

	if f.Action != "" {
		add("action = ", f.Action)
	}
	if f.EntityType != "" {
		add("entity_type = ", f.EntityType)
	}
	if f.EntityID != "" {
		add("entity_id = ", f.EntityID)
	}
	if !f.From.IsZero() {
		add("created_at >= ", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < ", f.To)
	}

	q := "SELECT id, action, entity_type, entity_id, description, data, created_at FROM audit_log"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit)
	q += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created time.Time
		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &e.Description, &e.Data, &created); err != nil {
			return nil, err
		}
		e.CreatedAt = created
		out = append(out, e)
	}
	return out, rows.Err()
}
