// Package referral records which booking pages the assistant handed users off to.
package referral

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Proton-105/weva-assistant/internal/domain"
	apperrors "github.com/Proton-105/weva-assistant/internal/errors"
)

// Referral is one booking page hand-off.
type Referral struct {
	SessionID    string
	ServiceID    domain.ID
	ServiceName  string
	CenterID     domain.ID
	DepartmentID domain.ID
	Locale       domain.Locale
	URL          string
	OpenedAt     time.Time
}

// ServiceCount aggregates hand-offs per service.
type ServiceCount struct {
	ServiceID   domain.ID
	ServiceName string
	Count       int64
}

// Store persists referrals in Postgres.
type Store struct {
	db *sql.DB
}

// NewStore creates a referral store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const insertReferral = `INSERT INTO booking_referrals
    (session_id, service_id, service_name, center_id, department_id, locale, url, opened_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Record stores r.
func (s *Store) Record(ctx context.Context, r Referral) error {
	if s == nil || s.db == nil {
		return nil
	}

	openedAt := r.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, insertReferral,
		r.SessionID,
		r.ServiceID.String(),
		r.ServiceName,
		r.CenterID.String(),
		r.DepartmentID.String(),
		r.Locale.String(),
		r.URL,
		openedAt,
	)
	if err != nil {
		return apperrors.NewDatabaseError(fmt.Errorf("insert booking referral: %w", err))
	}

	return nil
}

const topServices = `SELECT service_id, MAX(service_name), COUNT(*) AS opened
FROM booking_referrals
WHERE opened_at >= $1
GROUP BY service_id
ORDER BY opened DESC, service_id
LIMIT $2`

// TopServices returns the most opened services since the given time.
func (s *Store) TopServices(ctx context.Context, since time.Time, limit int) ([]ServiceCount, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, topServices, since, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError(fmt.Errorf("query top services: %w", err))
	}
	defer rows.Close()

	var out []ServiceCount
	for rows.Next() {
		var (
			id    string
			count ServiceCount
		)
		if err := rows.Scan(&id, &count.ServiceName, &count.Count); err != nil {
			return nil, apperrors.NewDatabaseError(fmt.Errorf("scan top services: %w", err))
		}
		count.ServiceID = domain.ID(id)
		out = append(out, count)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseError(fmt.Errorf("iterate top services: %w", err))
	}

	return out, nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("referral store is not configured")
	}
	return s.db.PingContext(ctx)
}
