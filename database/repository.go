package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"property-desk/engine"

	"github.com/jmoiron/sqlx"
)

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx, so lookups can run
// inside the transaction of the mutation that needs them.
type Queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

// Repository resolves business keys to internal ids and allocates new keys.
type Repository struct {
	q Queryer
}

func NewRepository(q Queryer) *Repository {
	return &Repository{q: q}
}

// ==================== LOOKUPS ====================

func (r *Repository) ClientID(ctx context.Context, accountNumber string) (int64, error) {
	return r.lookupID(ctx, "client", accountNumber,
		`SELECT id FROM clients WHERE account_number = ?`)
}

func (r *Repository) PropertyID(ctx context.Context, propertyNumber string) (int64, error) {
	return r.lookupID(ctx, "property", propertyNumber,
		`SELECT id FROM properties WHERE property_number = ?`)
}

func (r *Repository) EmployeeID(ctx context.Context, employeeNumber string) (int64, error) {
	return r.lookupID(ctx, "employee", employeeNumber,
		`SELECT id FROM employees WHERE employee_number = ?`)
}

func (r *Repository) ServiceTypeID(ctx context.Context, code string) (int64, error) {
	return r.lookupID(ctx, "service type", code,
		`SELECT id FROM service_types WHERE code = ?`)
}

// ServiceStatus returns the order status of a recurring service.
func (r *Repository) ServiceStatus(ctx context.Context, serviceNumber int64) (string, error) {
	var status string
	err := sqlx.GetContext(ctx, r.q, &status,
		r.q.Rebind(`SELECT order_status FROM recurring_services WHERE service_number = ?`), serviceNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &engine.NotFoundError{Entity: "service", Key: fmt.Sprint(serviceNumber)}
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// EmployeeNumbersByName returns the employee numbers whose first and last
// name match, ignoring case.
func (r *Repository) EmployeeNumbersByName(ctx context.Context, first, last string) ([]string, error) {
	var numbers []string
	err := sqlx.SelectContext(ctx, r.q, &numbers, r.q.Rebind(`
		SELECT employee_number FROM employees
		WHERE LOWER(first_name) = LOWER(?) AND LOWER(last_name) = LOWER(?)
		ORDER BY employee_number
	`), first, last)
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

func (r *Repository) lookupID(ctx context.Context, entity, key, query string) (int64, error) {
	var id int64
	err := sqlx.GetContext(ctx, r.q, &id, r.q.Rebind(query), key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &engine.NotFoundError{Entity: entity, Key: key}
	}
	if err != nil {
		return 0, fmt.Errorf("lookup %s %s: %w", entity, key, err)
	}
	return id, nil
}

// ==================== KEY ALLOCATION ====================

// NextAccountNumber returns C followed by four digits, one past the highest in use.
func (r *Repository) NextAccountNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, "C", 4, "clients", "account_number")
}

// NextPropertyNumber returns P followed by three digits, one past the highest in use.
func (r *Repository) NextPropertyNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, "P", 3, "properties", "property_number")
}

// NextEmployeeNumber returns E followed by four digits, one past the highest in use.
func (r *Repository) NextEmployeeNumber(ctx context.Context) (string, error) {
	return r.nextNumber(ctx, "E", 4, "employees", "employee_number")
}

// table and column are fixed identifiers from this file, never caller input.
func (r *Repository) nextNumber(ctx context.Context, prefix string, width int, table, column string) (string, error) {
	var max sql.NullInt64
	query := fmt.Sprintf(`SELECT MAX(CAST(SUBSTR(%s, 2) AS INTEGER)) FROM %s`, column, table)
	if err := sqlx.GetContext(ctx, r.q, &max, query); err != nil {
		return "", fmt.Errorf("next %s: %w", strings.TrimSuffix(table, "s"), err)
	}
	return fmt.Sprintf("%s%0*d", prefix, width, max.Int64+1), nil
}
