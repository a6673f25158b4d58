package database

import (
	"context"
	"fmt"
	"strings"
)

// OrderStatuses are the allowed recurring service order states, in lifecycle order.
var OrderStatuses = []string{"Scheduled", "In Progress", "Completed", "Cancelled"}

// ServiceTypes seeds the service_types table.
var ServiceTypes = []struct {
	Code string
	Name string
}{
	{"L", "Lawn Care"},
	{"P", "Pool Maintenance"},
	{"S", "Snow Removal"},
	{"G", "Gutter Cleaning"},
	{"W", "Window Washing"},
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id {{serial}},
		account_number TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		email TEXT,
		active_status BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS properties (
		id {{serial}},
		property_number TEXT UNIQUE NOT NULL,
		client_id INTEGER NOT NULL REFERENCES clients(id),
		property_type TEXT NOT NULL,
		street_address TEXT NOT NULL,
		street_address2 TEXT,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		zipcode TEXT NOT NULL,
		active_status BOOLEAN NOT NULL DEFAULT TRUE
	)`,

	`CREATE TABLE IF NOT EXISTS employees (
		id {{serial}},
		employee_number TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		email TEXT NOT NULL,
		hire_date DATE NOT NULL,
		hourly_wage NUMERIC(10,2) NOT NULL CHECK (hourly_wage >= 0),
		deactivated_date DATE
	)`,

	`CREATE TABLE IF NOT EXISTS service_types (
		id {{serial}},
		code TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS recurring_services (
		service_number {{serial}},
		property_id INTEGER NOT NULL REFERENCES properties(id),
		service_type_id INTEGER NOT NULL REFERENCES service_types(id),
		service_name TEXT NOT NULL,
		allocated_seconds INTEGER NOT NULL CHECK (allocated_seconds >= 0),
		price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		order_status TEXT NOT NULL DEFAULT 'Scheduled'
			CHECK (order_status IN ('Scheduled', 'In Progress', 'Completed', 'Cancelled'))
	)`,

	`CREATE TABLE IF NOT EXISTS work_records (
		id {{serial}},
		employee_id INTEGER NOT NULL REFERENCES employees(id),
		service_number INTEGER NOT NULL REFERENCES recurring_services(service_number),
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NOT NULL,
		duration_seconds INTEGER NOT NULL CHECK (duration_seconds > 0)
	)`,

	// Indexes for lookups by owner
	`CREATE INDEX IF NOT EXISTS idx_properties_client ON properties(client_id)`,
	`CREATE INDEX IF NOT EXISTS idx_services_property ON recurring_services(property_id)`,
	`CREATE INDEX IF NOT EXISTS idx_work_employee_start ON work_records(employee_id, start_time)`,
}

// Migrate creates the schema if needed and seeds the service types.
func (db *DB) Migrate(ctx context.Context) error {
	serial := "SERIAL PRIMARY KEY"
	if db.IsSQLite() {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	r := strings.NewReplacer("{{serial}}", serial)

	for _, query := range schema {
		if _, err := db.ExecContext(ctx, r.Replace(query)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	seed := db.Rebind(`INSERT INTO service_types (code, name) VALUES (?, ?) ON CONFLICT (code) DO NOTHING`)
	for _, st := range ServiceTypes {
		if _, err := db.ExecContext(ctx, seed, st.Code, st.Name); err != nil {
			return fmt.Errorf("seed service type %s: %w", st.Code, err)
		}
	}

	return nil
}
