package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"property-desk/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	tmpDir, err := os.MkdirTemp("", "property-desk-test-*")
	require.NoError(t, err)

	db, err := Open(DriverSQLite3, filepath.Join(tmpDir, "nested", "test.db"))
	require.NoError(t, err)

	require.NoError(t, db.Migrate(context.Background()))

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}
	return db, cleanup
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestWithPragmas(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
		want   string
	}{
		{"mattn plain path", DriverSQLite3, "data/x.db", "data/x.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"},
		{"mattn existing query", DriverSQLite3, "data/x.db?cache=shared", "data/x.db?cache=shared&_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"},
		{"mattn pragmas given", DriverSQLite3, "x.db?_foreign_keys=off", "x.db?_foreign_keys=off"},
		{"modernc plain path", DriverSQLite, "x.db", "x.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withPragmas(tt.driver, tt.dsn))
		})
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.Migrate(context.Background()))

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM service_types`))
	assert.Equal(t, len(ServiceTypes), count)
}

func TestMigrate_PureGoDriver(t *testing.T) {
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "pure.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate(context.Background()))

	id, err := NewRepository(db).ServiceTypeID(context.Background(), "P")
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestMigrate_ForeignKeysEnforced(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := db.Exec(`INSERT INTO properties (property_number, client_id, property_type, street_address, city, state, zipcode)
		VALUES ('P001', 999, 'Residential', '1 Main St', 'Bothell', 'WA', '98011')`)
	assert.Error(t, err)
}

func TestRepository_Lookups(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewRepository(db)

	_, err := db.Exec(`INSERT INTO clients (account_number, first_name, last_name, phone_number) VALUES ('C0007', 'John', 'Doe', '555-123-4567')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO employees (employee_number, first_name, last_name, phone_number, email, hire_date, hourly_wage)
		VALUES ('E0001', 'Ana', 'Lee', '555-000-1111', 'ana@example.com', '2024-01-02', 25.00),
		       ('E0002', 'ana', 'LEE', '555-000-2222', 'ana2@example.com', '2024-01-03', 25.00)`)
	require.NoError(t, err)

	t.Run("Client found", func(t *testing.T) {
		id, err := repo.ClientID(ctx, "C0007")
		require.NoError(t, err)
		assert.Positive(t, id)
	})

	t.Run("Not found is typed", func(t *testing.T) {
		tests := []struct {
			name   string
			lookup func() (int64, error)
			want   string
		}{
			{"client", func() (int64, error) { return repo.ClientID(ctx, "C9999") }, "client C9999 not found"},
			{"property", func() (int64, error) { return repo.PropertyID(ctx, "P404") }, "property P404 not found"},
			{"employee", func() (int64, error) { return repo.EmployeeID(ctx, "E9999") }, "employee E9999 not found"},
			{"service type", func() (int64, error) { return repo.ServiceTypeID(ctx, "Z") }, "service type Z not found"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := tt.lookup()
				require.Error(t, err)
				assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
				assert.Equal(t, tt.want, err.Error())
			})
		}
	})

	t.Run("Seeded service type", func(t *testing.T) {
		_, err := repo.ServiceTypeID(ctx, "L")
		assert.NoError(t, err)
	})

	t.Run("Missing service status", func(t *testing.T) {
		_, err := repo.ServiceStatus(ctx, 42)
		assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
	})

	t.Run("Employees by name ignore case", func(t *testing.T) {
		numbers, err := repo.EmployeeNumbersByName(ctx, "ANA", "lee")
		require.NoError(t, err)
		assert.Equal(t, []string{"E0001", "E0002"}, numbers)
	})
}

func TestRepository_NextNumbers(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	repo := NewRepository(db)

	next, err := repo.NextAccountNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C0001", next)

	_, err = db.Exec(`INSERT INTO clients (account_number, first_name, last_name, phone_number) VALUES ('C0041', 'A', 'B', '555-123-4567')`)
	require.NoError(t, err)

	next, err = repo.NextAccountNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C0042", next)

	next, err = repo.NextPropertyNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P001", next)

	next, err = repo.NextEmployeeNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "E0001", next)
}
