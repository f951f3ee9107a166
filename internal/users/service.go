// Package users exposes the user directory: reads by age threshold and name
// list, and transactional bulk creation.
package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"goods-return-service/internal/common/errors"
	"goods-return-service/internal/common/logger"
	"goods-return-service/internal/common/metrics"
	"goods-return-service/internal/models"

	"github.com/lib/pq"
)

// pageSize caps every age-threshold listing.
const pageSize = 10

const selectColumns = `id, name, last_name, "from", age, settings`

type Service struct {
	db     *sql.DB
	logger logger.Logger
}

func NewService(db *sql.DB, log logger.Logger) *Service {
	return &Service{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "user-directory"}),
	}
}

// ListUsersOlderThan returns users with age strictly greater than ageFrom,
// capped at pageSize, ordered by id.
func (s *Service) ListUsersOlderThan(ctx context.Context, ageFrom int) ([]models.UserRecord, error) {
	if ageFrom < 0 {
		metrics.UserDirectoryOps.WithLabelValues("list_older_than", "invalid").Inc()
		return nil, errors.NewInvalidArgumentError(
			"ageFrom must be a non-negative integer",
			fmt.Sprintf("ageFrom: %d", ageFrom),
		)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM users WHERE age > $1 ORDER BY id LIMIT $2`,
		ageFrom, pageSize)
	if err != nil {
		metrics.UserDirectoryOps.WithLabelValues("list_older_than", "error").Inc()
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		metrics.UserDirectoryOps.WithLabelValues("list_older_than", "error").Inc()
		return nil, err
	}

	metrics.UserDirectoryOps.WithLabelValues("list_older_than", "ok").Inc()
	return users, nil
}

// GetUsersByNames returns users matching any of the given names with a single
// batched lookup. Unknown names are simply absent from the result.
func (s *Service) GetUsersByNames(ctx context.Context, names []string) ([]models.UserRecord, error) {
	if len(names) == 0 {
		metrics.UserDirectoryOps.WithLabelValues("get_by_names", "invalid").Inc()
		return nil, errors.NewInvalidArgumentError("names must not be empty", "")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM users WHERE name = ANY($1) ORDER BY id`,
		pq.Array(names))
	if err != nil {
		metrics.UserDirectoryOps.WithLabelValues("get_by_names", "error").Inc()
		return nil, fmt.Errorf("get users by names: %w", err)
	}
	defer rows.Close()

	users, err := scanUsers(rows)
	if err != nil {
		metrics.UserDirectoryOps.WithLabelValues("get_by_names", "error").Inc()
		return nil, err
	}

	metrics.UserDirectoryOps.WithLabelValues("get_by_names", "ok").Inc()
	return users, nil
}

// AddUsers inserts the whole batch in one statement inside one transaction:
// all rows commit together or none do. Generated ids come back in input order.
func (s *Service) AddUsers(ctx context.Context, users []models.NewUser) (ids []int64, err error) {
	if len(users) == 0 {
		metrics.UserDirectoryOps.WithLabelValues("add_users", "invalid").Inc()
		return nil, errors.NewInvalidArgumentError("users must not be empty", "")
	}
	for i, u := range users {
		if u.Name == "" || u.LastName == "" || u.Age < 0 {
			metrics.UserDirectoryOps.WithLabelValues("add_users", "invalid").Inc()
			return nil, errors.NewInvalidArgumentError(
				"every user needs a non-empty name, lastName and non-negative age",
				fmt.Sprintf("index: %d", i),
			)
		}
	}

	query, args := buildBulkInsert(users)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.UserDirectoryOps.WithLabelValues("add_users", "error").Inc()
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.UserDirectoryOps.WithLabelValues("add_users", "error").Inc()
		return nil, mapInsertError(err)
	}

	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			rows.Close()
			metrics.UserDirectoryOps.WithLabelValues("add_users", "error").Inc()
			return nil, fmt.Errorf("scan inserted id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		metrics.UserDirectoryOps.WithLabelValues("add_users", "error").Inc()
		return nil, mapInsertError(err)
	}
	rows.Close()

	if err = tx.Commit(); err != nil {
		metrics.UserDirectoryOps.WithLabelValues("add_users", "error").Inc()
		return nil, mapInsertError(err)
	}

	metrics.UserDirectoryOps.WithLabelValues("add_users", "ok").Inc()
	s.logger.Info("users added", map[string]interface{}{"count": len(ids)})
	return ids, nil
}

func buildBulkInsert(users []models.NewUser) (string, []interface{}) {
	var b strings.Builder
	b.WriteString(`INSERT INTO users (name, last_name, age) VALUES `)

	args := make([]interface{}, 0, len(users)*3)
	for i, u := range users {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
		args = append(args, u.Name, u.LastName, u.Age)
	}
	b.WriteString(" RETURNING id")

	return b.String(), args
}

// mapInsertError surfaces integrity violations (pq class 23) as Conflict.
func mapInsertError(err error) error {
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Class() == "23" {
		return errors.NewConflictError("user batch violates a database constraint", err)
	}
	return fmt.Errorf("add users: %w", err)
}

func scanUsers(rows *sql.Rows) ([]models.UserRecord, error) {
	var users []models.UserRecord
	for rows.Next() {
		var (
			u        models.UserRecord
			settings sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.LastName, &u.From, &u.Age, &settings); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Key = settingsKey(settings)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("user rows: %w", err)
	}
	return users, nil
}

// settingsKey pulls the single exposed "key" entry out of the opaque settings
// document; malformed or missing settings yield "".
func settingsKey(settings sql.NullString) string {
	if !settings.Valid || settings.String == "" {
		return ""
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(settings.String), &parsed); err != nil {
		return ""
	}
	if key, ok := parsed["key"].(string); ok {
		return key
	}
	return ""
}
