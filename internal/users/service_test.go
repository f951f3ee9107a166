package users

import (
	"context"
	"regexp"
	"testing"

	"goods-return-service/internal/common/errors"
	"goods-return-service/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goods-return-service/internal/models"
)

var userColumns = []string{"id", "name", "last_name", "from", "age", "settings"}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewService(db, logger.NewTestLogger(t)), mock, func() { db.Close() }
}

func TestListUsersOlderThan(t *testing.T) {
	svc, mock, closeDB := newTestService(t)
	defer closeDB()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, last_name, "from", age, settings FROM users WHERE age > $1 ORDER BY id LIMIT $2`)).
		WithArgs(30, 10).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(1, "Ann", "Smith", "import", 42, `{"key":"k-1"}`).
			AddRow(2, "Bob", "Jones", "signup", 35, nil))

	users, err := svc.ListUsersOlderThan(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, models.UserRecord{ID: 1, Name: "Ann", LastName: "Smith", From: "import", Age: 42, Key: "k-1"}, users[0])
	assert.Equal(t, "", users[1].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersOlderThan_NegativeAge(t *testing.T) {
	svc, mock, closeDB := newTestService(t)
	defer closeDB()

	_, err := svc.ListUsersOlderThan(context.Background(), -1)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUsersByNames_SingleBatchedQuery(t *testing.T) {
	svc, mock, closeDB := newTestService(t)
	defer closeDB()

	names := []string{"a", "b", "c"}

	// Exactly one query regardless of list length.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, last_name, "from", age, settings FROM users WHERE name = ANY($1) ORDER BY id`)).
		WithArgs(pq.Array(names)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "a", "First", "web", 20, nil).
			AddRow(9, "c", "Third", "web", 25, nil))

	users, err := svc.GetUsersByNames(context.Background(), names)
	require.NoError(t, err)

	// Unknown name "b" is simply absent, not an error.
	require.Len(t, users, 2)
	assert.Equal(t, "a", users[0].Name)
	assert.Equal(t, "c", users[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUsersByNames_EmptyInput(t *testing.T) {
	svc, mock, closeDB := newTestService(t)
	defer closeDB()

	_, err := svc.GetUsersByNames(context.Background(), nil)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUsers_BulkInsertOneTransaction(t *testing.T) {
	svc, mock, closeDB := newTestService(t)
	defer closeDB()

	batch := []models.NewUser{
		{Name: "Ann", LastName: "Smith", Age: 42},
		{Name: "Bob", LastName: "Jones", Age: 35},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, last_name, age) VALUES ($1, $2, $3), ($4, $5, $6) RETURNING id`)).
		WithArgs("Ann", "Smith", 42, "Bob", "Jones", 35).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))
	mock.ExpectCommit()

	ids, err := svc.AddUsers(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 12}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUsers_InvalidRowCommitsNothing(t *testing.T) {
	svc, mock, closeDB := newTestService(t)
	defer closeDB()

	batch := []models.NewUser{
		{Name: "Ann", LastName: "Smith", Age: 42},
		{Name: "", LastName: "Jones", Age: 35}, // invalid: empty name
	}

	_, err := svc.AddUsers(context.Background(), batch)
	assert.True(t, errors.IsInvalidArgument(err))

	// Validation happens before any write: no Begin, no INSERT.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUsers_ConstraintViolationRollsBack(t *testing.T) {
	svc, mock, closeDB := newTestService(t)
	defer closeDB()

	batch := []models.NewUser{{Name: "Ann", LastName: "Smith", Age: 42}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, last_name, age) VALUES ($1, $2, $3) RETURNING id`)).
		WithArgs("Ann", "Smith", 42).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.AddUsers(context.Background(), batch)
	assert.True(t, errors.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddUsers_EmptyBatch(t *testing.T) {
	svc, mock, closeDB := newTestService(t)
	defer closeDB()

	_, err := svc.AddUsers(context.Background(), nil)
	assert.True(t, errors.IsInvalidArgument(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
