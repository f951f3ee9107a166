// Package directory resolves the reseller, client and employee records a
// return operation references, plus the reseller's outbound mail settings.
package directory

import (
	"context"
	"database/sql"
	"fmt"

	"goods-return-service/internal/common/logger"
	"goods-return-service/internal/common/metrics"
	"goods-return-service/internal/models"
)

// EntityDirectory is the lookup collaborator injected into the handler.
// Lookups return (nil, nil) when the entity is absent; errors are transport
// failures only.
type EntityDirectory interface {
	SellerByID(ctx context.Context, id int) (*models.Seller, error)
	ClientByID(ctx context.Context, id int) (*models.Client, error)
	EmployeeByID(ctx context.Context, id int) (*models.Employee, error)

	// ResellerEmailFrom returns the reseller's outgoing address, "" when unset.
	ResellerEmailFrom(ctx context.Context, resellerID int) (string, error)
	// EmailsByPermit returns employee emails permitted for a notification kind.
	EmailsByPermit(ctx context.Context, resellerID int, permit string) ([]string, error)
}

// PostgresDirectory implements EntityDirectory on the relational store.
type PostgresDirectory struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresDirectory(db *sql.DB, log logger.Logger) *PostgresDirectory {
	return &PostgresDirectory{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "entity-directory"}),
	}
}

func (d *PostgresDirectory) SellerByID(ctx context.Context, id int) (*models.Seller, error) {
	metrics.DirectoryLookups.WithLabelValues("seller").Inc()

	var s models.Seller
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, full_name, email FROM sellers WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.FullName, &s.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("seller lookup: %w", err)
	}
	return &s, nil
}

func (d *PostgresDirectory) ClientByID(ctx context.Context, id int) (*models.Client, error) {
	metrics.DirectoryLookups.WithLabelValues("client").Inc()

	var c models.Client
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, full_name, email, mobile, type, reseller_id FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.FullName, &c.Email, &c.Mobile, &c.Type, &c.ResellerID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("client lookup: %w", err)
	}
	return &c, nil
}

func (d *PostgresDirectory) EmployeeByID(ctx context.Context, id int) (*models.Employee, error) {
	metrics.DirectoryLookups.WithLabelValues("employee").Inc()

	var e models.Employee
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, full_name, email FROM employees WHERE id = $1`, id).
		Scan(&e.ID, &e.Name, &e.FullName, &e.Email)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("employee lookup: %w", err)
	}
	return &e, nil
}

func (d *PostgresDirectory) ResellerEmailFrom(ctx context.Context, resellerID int) (string, error) {
	var emailFrom string
	err := d.db.QueryRowContext(ctx,
		`SELECT email_from FROM reseller_settings WHERE reseller_id = $1`, resellerID).
		Scan(&emailFrom)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reseller settings lookup: %w", err)
	}
	return emailFrom, nil
}

func (d *PostgresDirectory) EmailsByPermit(ctx context.Context, resellerID int, permit string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT e.email
		 FROM employees e
		 JOIN notification_permits p ON p.employee_id = e.id
		 WHERE p.reseller_id = $1 AND p.permit = $2 AND e.email <> ''
		 ORDER BY e.id`, resellerID, permit)
	if err != nil {
		return nil, fmt.Errorf("permit emails lookup: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("permit emails scan: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("permit emails rows: %w", err)
	}
	return emails, nil
}
