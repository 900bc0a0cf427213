package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository stores the outcome of every lead processing attempt.
type Repository struct {
	db DB
}

func New(db DB) *Repository {
	return &Repository{db: db}
}

// LogEntry is one row of lead_processing_log.
type LogEntry struct {
	ID             uuid.UUID `json:"id"`
	LeadID         string    `json:"leadId"`
	Source         string    `json:"source"`
	LeadFormat     string    `json:"leadFormat"`
	Success        bool      `json:"success"`
	Confidence     string    `json:"confidence"`
	ErrorKind      string    `json:"errorKind,omitempty"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	BookingID      string    `json:"bookingId,omitempty"`
	BookingNumber  string    `json:"bookingNumber,omitempty"`
	Attempts       int       `json:"attempts"`
	EstimatedPrice int64     `json:"estimatedPrice"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Record inserts entry. A zero ID is replaced with a new UUID.
func (r *Repository) Record(ctx context.Context, entry LogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_processing_log (
			id, lead_id, source, lead_format, success, confidence,
			error_kind, error_message, booking_id, booking_number,
			attempts, estimated_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		entry.ID, entry.LeadID, entry.Source, entry.LeadFormat, entry.Success, entry.Confidence,
		entry.ErrorKind, entry.ErrorMessage, entry.BookingID, entry.BookingNumber,
		entry.Attempts, entry.EstimatedPrice,
	)
	return err
}

// Recent returns the newest entries first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, lead_id, source, lead_format, success, confidence,
			error_kind, error_message, booking_id, booking_number,
			attempts, estimated_price, created_at
		FROM lead_processing_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]LogEntry, 0)
	for rows.Next() {
		var e LogEntry
		var id string
		if err := rows.Scan(
			&id, &e.LeadID, &e.Source, &e.LeadFormat, &e.Success, &e.Confidence,
			&e.ErrorKind, &e.ErrorMessage, &e.BookingID, &e.BookingNumber,
			&e.Attempts, &e.EstimatedPrice, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, err
		}
		items = append(items, e)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

// FailedLeadIDs returns distinct lead IDs whose latest attempt failed with
// a retryable kind since the given time.
func (r *Repository) FailedLeadIDs(ctx context.Context, since time.Time, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT lead_id FROM (
			SELECT DISTINCT ON (lead_id) lead_id, success, error_kind, created_at
			FROM lead_processing_log
			WHERE lead_id <> '' AND created_at >= $1
			ORDER BY lead_id, created_at DESC
		) latest
		WHERE success = false AND error_kind = 'transient'
		ORDER BY created_at ASC
		LIMIT $2
	`, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return ids, nil
}
