package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// TableCounts holds the number of active rows per entity table.
type TableCounts struct {
	Users       int `db:"users" json:"users"`
	Departments int `db:"departments" json:"departments"`
	Courses     int `db:"courses" json:"courses"`
	Schedules   int `db:"schedules" json:"schedules"`
	Complaints  int `db:"complaints" json:"complaints"`
}

// HealthRepository runs connectivity probes against the database.
type HealthRepository struct {
	db *sqlx.DB
}

// NewHealthRepository creates a new instance of HealthRepository.
func NewHealthRepository(db *sqlx.DB) *HealthRepository {
	return &HealthRepository{db: db}
}

// Ping verifies the connection and returns the round trip latency.
func (r *HealthRepository) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("ping database: %w", err)
	}
	return time.Since(start), nil
}

// Counts returns the row totals reported by the database health probe.
func (r *HealthRepository) Counts(ctx context.Context) (*TableCounts, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM users WHERE is_active = TRUE) AS users,
		(SELECT COUNT(*) FROM departments WHERE is_active = TRUE) AS departments,
		(SELECT COUNT(*) FROM courses WHERE is_active = TRUE) AS courses,
		(SELECT COUNT(*) FROM schedules) AS schedules,
		(SELECT COUNT(*) FROM complaints) AS complaints`
	var counts TableCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("count tables: %w", err)
	}
	return &counts, nil
}
