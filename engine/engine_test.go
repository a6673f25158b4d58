package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"property-desk/database"
	"property-desk/engine"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDrivers are the SQLite drivers every storage-backed test runs against.
var testDrivers = []string{database.DriverSQLite3, database.DriverSQLite}

func setupTestDB(t *testing.T, driver string) (*database.DB, func()) {
	tmpDir, err := os.MkdirTemp("", "engine-test-*")
	require.NoError(t, err)

	db, err := database.Open(driver, filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE items (
		id INTEGER PRIMARY KEY,
		a TEXT,
		b TEXT,
		c TEXT,
		qty INTEGER NOT NULL DEFAULT 0 CHECK (qty >= 0)
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO items (id, a, b, c) VALUES (1, '1', '2', '3')`)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.RemoveAll(tmpDir)
	}
	return db, cleanup
}

var itemParams = []engine.Param{
	{Name: "id", Type: engine.Integer, Required: true},
	{Name: "a", Type: engine.Text},
	{Name: "b", Type: engine.Text},
	{Name: "c", Type: engine.Text},
}

func updateTemplate() string {
	var optional []engine.Param
	for _, p := range itemParams {
		if !p.Required {
			optional = append(optional, p)
		}
	}
	return `UPDATE items SET ` + engine.PreserveAssignments(optional...) + ` WHERE id = :id`
}

func readItem(t *testing.T, db *database.DB, id int) map[string]any {
	row := map[string]any{}
	err := db.QueryRowx(`SELECT a, b, c FROM items WHERE id = ?`, id).MapScan(row)
	require.NoError(t, err)
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}

func TestPreserveAssignments(t *testing.T) {
	got := engine.PreserveAssignments(
		engine.Param{Name: "phone"},
		engine.Param{Name: "active", Column: "active_status"},
	)
	assert.Contains(t, got, "phone = CASE WHEN :phone_set THEN :phone ELSE phone END")
	assert.Contains(t, got, "active_status = CASE WHEN :active_set THEN :active ELSE active_status END")
}

func TestMerge(t *testing.T) {
	key := map[string]any{"id": int64(1)}

	tests := []struct {
		name      string
		values    engine.FieldValues
		wantErr   bool
		wantNames []string
	}{
		{
			name:    "Nothing specified",
			values:  engine.FieldValues{"a": engine.Unspecified, "b": engine.Unspecified},
			wantErr: true,
		},
		{
			name:    "Missing entries count as unspecified",
			values:  engine.FieldValues{},
			wantErr: true,
		},
		{
			name:      "One field",
			values:    engine.FieldValues{"b": engine.Set("5")},
			wantNames: []string{"b"},
		},
		{
			name:      "Explicit null is a change",
			values:    engine.FieldValues{"c": engine.Set(nil)},
			wantNames: []string{"c"},
		},
		{
			name:      "Required key is never a change",
			values:    engine.FieldValues{"id": engine.Set(int64(1)), "a": engine.Set("x")},
			wantNames: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, err := engine.Merge("UpdateItem", key, itemParams, tt.values)

			if tt.wantErr {
				require.Error(t, err)
				var empty *engine.EmptyChangeSetError
				assert.ErrorAs(t, err, &empty)
				assert.Equal(t, engine.KindEmptyChangeSet, engine.KindOf(err))
				assert.Nil(t, cs)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantNames, cs.Columns())
			for _, n := range tt.wantNames {
				assert.True(t, cs.Has(n))
			}
		})
	}
}

func TestMerge_NoPartialOverwrite(t *testing.T) {
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) { testNoPartialOverwrite(t, driver) })
	}
}

func testNoPartialOverwrite(t *testing.T, driver string) {
	db, cleanup := setupTestDB(t, driver)
	defer cleanup()
	ctx := context.Background()

	cache := engine.NewCache(db, nil)
	defer cache.Close()

	compiled, err := cache.Compile(ctx, "UpdateItem", updateTemplate())
	require.NoError(t, err)

	cs, err := engine.Merge("UpdateItem", map[string]any{"id": int64(1)}, itemParams,
		engine.FieldValues{"b": engine.Set("5")})
	require.NoError(t, err)

	_, err = compiled.Stmt.ExecContext(ctx, cs.Args(itemParams))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": "1", "b": "5", "c": "3"}, readItem(t, db, 1))

	cs, err = engine.Merge("UpdateItem", map[string]any{"id": int64(1)}, itemParams,
		engine.FieldValues{"c": engine.Set(nil)})
	require.NoError(t, err)

	_, err = compiled.Stmt.ExecContext(ctx, cs.Args(itemParams))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"a": "1", "b": "5", "c": nil}, readItem(t, db, 1))
}

func TestCache_Compile(t *testing.T) {
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) { testCacheCompile(t, driver) })
	}
}

func testCacheCompile(t *testing.T, driver string) {
	db, cleanup := setupTestDB(t, driver)
	defer cleanup()
	ctx := context.Background()

	cache := engine.NewCache(db, nil)
	defer cache.Close()

	first, err := cache.Compile(ctx, "GetItem", `SELECT a FROM items WHERE id = :id`)
	require.NoError(t, err)

	t.Run("Identical template is a no-op", func(t *testing.T) {
		again, err := cache.Compile(ctx, "GetItem", `SELECT a FROM items WHERE id = :id`)
		require.NoError(t, err)
		assert.Same(t, first, again)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("Different template replaces", func(t *testing.T) {
		replaced, err := cache.Compile(ctx, "GetItem", `SELECT b AS a FROM items WHERE id = :id`)
		require.NoError(t, err)
		assert.NotSame(t, first, replaced)
		assert.Equal(t, 1, cache.Len())

		got, err := cache.Get("GetItem")
		require.NoError(t, err)
		var value string
		require.NoError(t, got.Stmt.GetContext(ctx, &value, map[string]any{"id": 1}))
		assert.Equal(t, "2", value)
	})

	t.Run("Failure is isolated", func(t *testing.T) {
		_, err := cache.Compile(ctx, "Broken", `SELECT nope FROM missing_table WHERE id = :id`)
		require.Error(t, err)
		var cerr *engine.CompilationError
		require.ErrorAs(t, err, &cerr)
		assert.Equal(t, "Broken", cerr.Operation)

		_, err = cache.Get("Broken")
		assert.Equal(t, engine.KindCompilation, engine.KindOf(err))

		_, err = cache.Get("GetItem")
		assert.NoError(t, err)
	})

	t.Run("Unknown id", func(t *testing.T) {
		_, err := cache.Get("Nope")
		assert.ErrorIs(t, err, engine.ErrTemplateNotFound)
	})
}

func TestRunInTx(t *testing.T) {
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) { testRunInTx(t, driver) })
	}
}

func testRunInTx(t *testing.T, driver string) {
	ctx := context.Background()

	t.Run("Commit", func(t *testing.T) {
		db, cleanup := setupTestDB(t, driver)
		defer cleanup()

		err := engine.RunInTx(ctx, db, "Write", func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, `UPDATE items SET a = 'x' WHERE id = 1`)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, "x", readItem(t, db, 1)["a"])
	})

	t.Run("Second statement failure rolls back the first", func(t *testing.T) {
		db, cleanup := setupTestDB(t, driver)
		defer cleanup()

		err := engine.RunInTx(ctx, db, "TwoStep", func(ctx context.Context, tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, `UPDATE items SET a = 'changed' WHERE id = 1`); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `UPDATE items SET qty = -1 WHERE id = 1`)
			return err
		})
		require.Error(t, err)
		assert.Equal(t, engine.KindTransaction, engine.KindOf(err))
		assert.Equal(t, "database operation failed; no changes were saved", err.Error())
		assert.NotNil(t, errors.Unwrap(err))

		assert.Equal(t, "1", readItem(t, db, 1)["a"])
	})

	t.Run("Domain errors pass through and roll back", func(t *testing.T) {
		db, cleanup := setupTestDB(t, driver)
		defer cleanup()

		err := engine.RunInTx(ctx, db, "Lookup", func(ctx context.Context, tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, `UPDATE items SET a = 'changed' WHERE id = 1`); err != nil {
				return err
			}
			return &engine.NotFoundError{Entity: "item", Key: "42"}
		})
		assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
		assert.Equal(t, "item 42 not found", err.Error())
		assert.Equal(t, "1", readItem(t, db, 1)["a"])
	})

	t.Run("Panic rolls back and re-panics", func(t *testing.T) {
		db, cleanup := setupTestDB(t, driver)
		defer cleanup()

		assert.Panics(t, func() {
			_ = engine.RunInTx(ctx, db, "Panics", func(ctx context.Context, tx *sqlx.Tx) error {
				if _, err := tx.ExecContext(ctx, `UPDATE items SET a = 'changed' WHERE id = 1`); err != nil {
					return err
				}
				panic("boom")
			})
		})
		assert.Equal(t, "1", readItem(t, db, 1)["a"])
	})

	t.Run("Nested calls are rejected", func(t *testing.T) {
		db, cleanup := setupTestDB(t, driver)
		defer cleanup()

		var inner error
		err := engine.RunInTx(ctx, db, "Outer", func(ctx context.Context, tx *sqlx.Tx) error {
			assert.True(t, engine.InTx(ctx))
			inner = engine.RunInTx(ctx, db, "Inner", func(context.Context, *sqlx.Tx) error { return nil })
			return inner
		})
		assert.ErrorIs(t, inner, engine.ErrNestedTransaction)
		assert.Error(t, err)
	})
}

func TestScanRows(t *testing.T) {
	db, cleanup := setupTestDB(t, database.DriverSQLite3)
	defer cleanup()

	rows, err := db.Queryx(`SELECT 'C0001' AS account_number, 1 AS active_status, '49.5' AS price,
		5400 AS allocated_seconds, NULL AS email, '2025-01-05' AS hire_date`)
	require.NoError(t, err)

	got, err := engine.ScanRows(rows, []engine.Column{
		{Name: "active_status", Type: engine.Boolean},
		{Name: "price", Type: engine.Money},
		{Name: "allocated_seconds", Type: engine.Duration},
		{Name: "hire_date", Type: engine.Date},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	row := got[0]
	assert.Equal(t, "C0001", row.String("account_number"))
	v, _ := row.Get("active_status")
	assert.Equal(t, true, v)
	assert.Equal(t, "49.50", row.String("price"))
	assert.Equal(t, "01:30:00", row.String("allocated_seconds"))
	assert.Equal(t, "", row.String("email"))
	assert.Equal(t, "2025-01-05", row.String("hire_date"))
	assert.Equal(t, "account_number", row[0].Name)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want engine.Kind
	}{
		{nil, engine.KindNone},
		{engine.ErrUserAbort, engine.KindUserAbort},
		{&engine.ValidationError{Field: "phone"}, engine.KindValidation},
		{&engine.EmptyChangeSetError{}, engine.KindEmptyChangeSet},
		{&engine.NotFoundError{}, engine.KindNotFound},
		{&engine.CompilationError{}, engine.KindCompilation},
		{&engine.TransactionError{}, engine.KindTransaction},
		{errors.New("boom"), engine.KindInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, engine.KindOf(tt.err))
		})
	}
}
