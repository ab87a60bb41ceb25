package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courseflow-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

type recordingObserver struct {
	labels []string
}

func (o *recordingObserver) ObserveDBQuery(label string, _ time.Duration) {
	o.labels = append(o.labels, label)
}

var departmentColumns = []string{"id", "code", "name", "is_active", "created_at", "updated_at"}

func TestStoreFindOneFiltersInactive(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	observer := &recordingObserver{}
	repo := NewDepartmentRepository(db, observer)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT d.id, d.code, d.name, d.is_active, d.created_at, d.updated_at FROM departments d WHERE d.code = $1 AND d.is_active = TRUE LIMIT 1")).
		WithArgs("CS").
		WillReturnRows(sqlmock.NewRows(departmentColumns).AddRow("1", "CS", "Computer Science", true, now, now))

	dept, err := repo.FindOne(context.Background(), "CS")
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", dept.Name)
	assert.Equal(t, []string{"departments.find_one"}, observer.labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFindOneAnySkipsActiveFilter(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM departments d WHERE d.code = $1 LIMIT 1")).
		WithArgs("CS").
		WillReturnRows(sqlmock.NewRows(departmentColumns).AddRow("1", "CS", "Computer Science", false, now, now))

	dept, err := repo.FindOneAny(context.Background(), "CS")
	require.NoError(t, err)
	assert.False(t, dept.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFindOneNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	mock.ExpectQuery("FROM departments d WHERE d.code").
		WithArgs("XX").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindOne(context.Background(), "XX")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStoreFindPage(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM departments d WHERE 1=1 AND d.is_active = TRUE ORDER BY d.code DESC, d.id ASC LIMIT 2 OFFSET 2")).
		WillReturnRows(sqlmock.NewRows(departmentColumns).
			AddRow("3", "EE", "Electrical", true, now, now).
			AddRow("4", "CS", "Computer Science", true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM departments d WHERE 1=1 AND d.is_active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	rows, total, err := repo.FindPage(context.Background(), models.ListOptions{Page: 2, Limit: 2, OrderBy: "code", OrderDirection: "desc"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 5, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreOrderFallsBackToDefault(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY d.name ASC, d.id ASC")).
		WillReturnRows(sqlmock.NewRows(departmentColumns))

	rows, err := repo.FindAll(context.Background(), models.ListOptions{OrderBy: "password; DROP TABLE users"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreExistsByExcludesCurrentRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM departments WHERE name = $1 AND code <> $2)")).
		WithArgs("Physics", "PHY").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.ExistsBy(context.Background(), "name", "Physics", "PHY")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsertStampsRecord(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	mock.ExpectExec("INSERT INTO departments").
		WithArgs(sqlmock.AnyArg(), "CS", "Computer Science", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	dept := &models.Department{Code: "CS", Name: "Computer Science", IsActive: true}
	require.NoError(t, repo.Insert(context.Background(), dept))
	assert.NotEmpty(t, dept.ID)
	assert.False(t, dept.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreInsertAllRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	dbErr := errors.New("duplicate key")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO departments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO departments").WillReturnError(dbErr)
	mock.ExpectRollback()

	err := repo.InsertAll(context.Background(), []*models.Department{
		{Code: "CS", Name: "Computer Science", IsActive: true},
		{Code: "EE", Name: "Electrical", IsActive: true},
	})
	var bulkErr *BulkInsertError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, 1, bulkErr.Index)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRemoveSoftDeletes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE departments SET is_active = FALSE, updated_at = $2 WHERE code = $1")).
		WithArgs("CS", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Remove(context.Background(), "CS"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreRemoveHardDeletes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewComplaintRepository(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM complaints WHERE id = $1")).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Remove(context.Background(), "c-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreExistingUsesAnyArray(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT code FROM departments WHERE code = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow("CS"))

	found, err := repo.Existing(context.Background(), "code", []string{"CS", "EE"})
	require.NoError(t, err)
	assert.True(t, found["CS"])
	assert.False(t, found["EE"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
