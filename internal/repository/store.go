package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/pkg/database"
)

// QueryObserver receives database timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// Entity binds a descriptor to its table layout.
type Entity struct {
	models.Descriptor
	Table string
	Alias string
	// Joins is appended after the FROM clause for every read.
	Joins   string
	Columns []string
	// Sortable maps client sort keys to qualified columns.
	Sortable  map[string]string
	InsertSQL string
	UpdateSQL string
}

// Store implements the create/read/update/remove operations shared by every entity.
type Store[T any] struct {
	db       *sqlx.DB
	entity   Entity
	observer QueryObserver
}

// NewStore builds a store for the entity.
func NewStore[T any](db *sqlx.DB, entity Entity, observer QueryObserver) *Store[T] {
	return &Store[T]{db: db, entity: entity, observer: observer}
}

// Descriptor returns the CRUD capabilities of the entity.
func (s *Store[T]) Descriptor() models.Descriptor {
	return s.entity.Descriptor
}

// DB exposes the pool for repositories running their own transactions.
func (s *Store[T]) DB() *sqlx.DB {
	return s.db
}

// FindOne returns the active row matching the identifier.
func (s *Store[T]) FindOne(ctx context.Context, identifier string) (*T, error) {
	defer s.observe("find_one", time.Now())
	return s.findOne(ctx, identifier, true)
}

// FindOneAny returns the row matching the identifier regardless of its active flag.
func (s *Store[T]) FindOneAny(ctx context.Context, identifier string) (*T, error) {
	defer s.observe("find_one_any", time.Now())
	return s.findOne(ctx, identifier, false)
}

func (s *Store[T]) findOne(ctx context.Context, identifier string, activeOnly bool) (*T, error) {
	query := fmt.Sprintf("%s WHERE %s = $1", s.selectFrom(), s.column(s.entity.Identifier))
	if activeOnly {
		query += s.activeClause()
	}
	query += " LIMIT 1"

	var record T
	if err := s.db.GetContext(ctx, &record, query, identifier); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find %s: %w", s.entity.Name, err)
	}
	return &record, nil
}

// FindAll returns every active row in the requested order.
func (s *Store[T]) FindAll(ctx context.Context, opts models.ListOptions) ([]T, error) {
	defer s.observe("find_all", time.Now())
	query := fmt.Sprintf("%s WHERE 1=1%s ORDER BY %s", s.selectFrom(), s.activeClause(), s.orderClause(opts))
	records := make([]T, 0)
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.entity.Name, err)
	}
	return records, nil
}

// FindPage returns one page of active rows plus the total active count.
func (s *Store[T]) FindPage(ctx context.Context, opts models.ListOptions) ([]T, int, error) {
	defer s.observe("find_page", time.Now())
	opts = opts.Normalize()
	query := fmt.Sprintf("%s WHERE 1=1%s ORDER BY %s LIMIT %d OFFSET %d",
		s.selectFrom(), s.activeClause(), s.orderClause(opts), opts.Limit, opts.Offset())

	records := make([]T, 0)
	if err := s.db.SelectContext(ctx, &records, query); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", s.entity.Name, err)
	}
	total, err := s.count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Count returns the number of active rows.
func (s *Store[T]) Count(ctx context.Context) (int, error) {
	defer s.observe("count", time.Now())
	return s.count(ctx)
}

func (s *Store[T]) count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s WHERE 1=1%s", s.entity.Table, s.entity.Alias, s.activeClause())
	var total int
	if err := s.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.entity.Name, err)
	}
	return total, nil
}

// ExistsBy reports whether any row, active or not, holds value in column.
// A non-empty excludeIdentifier skips the row carrying that identifier.
func (s *Store[T]) ExistsBy(ctx context.Context, column, value, excludeIdentifier string) (bool, error) {
	defer s.observe("exists", time.Now())
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1", s.entity.Table, column)
	args := []interface{}{value}
	if excludeIdentifier != "" {
		query += fmt.Sprintf(" AND %s <> $2", s.entity.Identifier)
		args = append(args, excludeIdentifier)
	}
	query += ")"

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("check %s %s: %w", s.entity.Name, column, err)
	}
	return exists, nil
}

// Insert stamps and stores a new row.
func (s *Store[T]) Insert(ctx context.Context, record *T) error {
	defer s.observe("insert", time.Now())
	return s.InsertWith(ctx, s.db, record)
}

// InsertWith stores a new row through exec, which may be a transaction.
func (s *Store[T]) InsertWith(ctx context.Context, exec sqlx.ExtContext, record *T) error {
	stamp(record)
	if _, err := sqlx.NamedExecContext(ctx, exec, s.entity.InsertSQL, record); err != nil {
		return fmt.Errorf("create %s: %w", s.entity.Name, err)
	}
	return nil
}

// BulkInsertError identifies the record that aborted an InsertAll.
type BulkInsertError struct {
	Index int
	Err   error
}

func (e *BulkInsertError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *BulkInsertError) Unwrap() error {
	return e.Err
}

// InsertAll stores every record in one transaction. Nothing is committed when any insert fails.
func (s *Store[T]) InsertAll(ctx context.Context, records []*T) error {
	defer s.observe("insert_all", time.Now())
	return database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for i, record := range records {
			if err := s.InsertWith(ctx, tx, record); err != nil {
				return &BulkInsertError{Index: i, Err: err}
			}
		}
		return nil
	})
}

// Existing returns which of values already appear in column, across active and inactive rows.
func (s *Store[T]) Existing(ctx context.Context, column string, values []string) (map[string]bool, error) {
	defer s.observe("existing", time.Now())
	found := make(map[string]bool)
	if len(values) == 0 {
		return found, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ANY($1)", column, s.entity.Table, column)
	var rows []string
	if err := s.db.SelectContext(ctx, &rows, query, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("lookup %s %s: %w", s.entity.Name, column, err)
	}
	for _, v := range rows {
		found[v] = true
	}
	return found, nil
}

// Update writes the mutable columns of an existing row, matched by id.
func (s *Store[T]) Update(ctx context.Context, record *T) error {
	defer s.observe("update", time.Now())
	stamp(record)
	res, err := s.db.NamedExecContext(ctx, s.entity.UpdateSQL, record)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.entity.Name, err)
	}
	return requireAffected(res)
}

// Remove deactivates the row when the entity soft deletes and deletes it otherwise.
func (s *Store[T]) Remove(ctx context.Context, identifier string) error {
	defer s.observe("remove", time.Now())
	var (
		res sql.Result
		err error
	)
	if s.entity.SoftDelete {
		query := fmt.Sprintf("UPDATE %s SET is_active = FALSE, updated_at = $2 WHERE %s = $1", s.entity.Table, s.entity.Identifier)
		res, err = s.db.ExecContext(ctx, query, identifier, time.Now().UTC())
	} else {
		query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", s.entity.Table, s.entity.Identifier)
		res, err = s.db.ExecContext(ctx, query, identifier)
	}
	if err != nil {
		return fmt.Errorf("remove %s: %w", s.entity.Name, err)
	}
	return requireAffected(res)
}

// Select runs a filtered read using the entity projection. where is appended after WHERE.
func (s *Store[T]) Select(ctx context.Context, label, where, orderBy string, args ...interface{}) ([]T, error) {
	defer s.observe(label, time.Now())
	query := s.selectFrom() + " WHERE " + where
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}
	records := make([]T, 0)
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return records, nil
}

// SelectFrom returns the projection used by every read, for repositories composing their own queries.
func (s *Store[T]) SelectFrom() string {
	return s.selectFrom()
}

func (s *Store[T]) selectFrom() string {
	return fmt.Sprintf("SELECT %s FROM %s %s%s", strings.Join(s.entity.Columns, ", "), s.entity.Table, s.entity.Alias, s.entity.Joins)
}

func (s *Store[T]) activeClause() string {
	if !s.entity.SoftDelete {
		return ""
	}
	return " AND " + s.column("is_active") + " = TRUE"
}

func (s *Store[T]) column(name string) string {
	if s.entity.Alias == "" {
		return name
	}
	return s.entity.Alias + "." + name
}

func (s *Store[T]) orderClause(opts models.ListOptions) string {
	opts = opts.Normalize()
	column, ok := s.entity.Sortable[opts.OrderBy]
	direction := opts.OrderDirection
	if !ok {
		column = s.column(s.entity.DefaultSort)
		if direction == "" {
			direction = s.entity.DefaultOrder
		}
	}
	if direction == "" {
		direction = "ASC"
	}
	// id keeps pages stable when the sort column has duplicates.
	return fmt.Sprintf("%s %s, %s ASC", column, direction, s.column("id"))
}

func (s *Store[T]) observe(op string, start time.Time) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveDBQuery(s.entity.Table+"."+op, time.Since(start))
}

type stamper interface {
	Stamp(time.Time)
}

func stamp(record interface{}) {
	if st, ok := record.(stamper); ok {
		st.Stamp(time.Now().UTC())
	}
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
