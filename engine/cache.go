package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Preparer compiles a named statement. *sqlx.DB satisfies it.
type Preparer interface {
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
}

// LazyPreparer is implemented by connections whose driver defers compiling a
// statement until it first runs. Compile checks such templates with EXPLAIN
// so a broken template fails at compile time on every driver.
type LazyPreparer interface {
	PreparesLazily() bool
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
}

// Compiled is a prepared statement template.
type Compiled struct {
	ID       string
	Template string
	Stmt     *sqlx.NamedStmt
}

// Cache holds one compiled template per operation id.
type Cache struct {
	mu      sync.RWMutex
	db      Preparer
	entries map[string]*Compiled
	failed  map[string]error
	logger  *slog.Logger
}

// NewCache returns an empty cache that prepares statements against db.
func NewCache(db Preparer, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		db:      db,
		entries: make(map[string]*Compiled),
		failed:  make(map[string]error),
		logger:  logger,
	}
}

// Compile prepares tmpl under id. Compiling an identical template again is a
// no-op; a different template replaces the previous statement. On failure
// the id is marked unavailable and a CompilationError is returned; other ids
// are not touched.
func (c *Cache) Compile(ctx context.Context, id, tmpl string) (*Compiled, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[id]; ok && existing.Template == tmpl {
		return existing, nil
	}

	stmt, err := c.db.PrepareNamedContext(ctx, tmpl)
	if err == nil {
		if err = c.verify(ctx, stmt); err != nil {
			_ = stmt.Close()
		}
	}
	if err != nil {
		cerr := &CompilationError{Operation: id, Err: err}
		if old, ok := c.entries[id]; ok {
			_ = old.Stmt.Close()
			delete(c.entries, id)
		}
		c.failed[id] = cerr
		c.logger.Error("Template compilation failed",
			slog.String("operation", id),
			slog.String("error", err.Error()),
		)
		return nil, cerr
	}

	if old, ok := c.entries[id]; ok {
		_ = old.Stmt.Close()
		c.logger.Debug("Template replaced", slog.String("operation", id))
	}
	delete(c.failed, id)

	compiled := &Compiled{ID: id, Template: tmpl, Stmt: stmt}
	c.entries[id] = compiled
	return compiled, nil
}

// verify forces compilation on drivers that prepare lazily. EXPLAIN compiles
// the statement without running it; every parameter is bound to NULL.
func (c *Cache) verify(ctx context.Context, stmt *sqlx.NamedStmt) error {
	lazy, ok := c.db.(LazyPreparer)
	if !ok || !lazy.PreparesLazily() {
		return nil
	}

	rows, err := lazy.QueryxContext(ctx, "EXPLAIN "+stmt.QueryString, make([]any, len(stmt.Params))...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
	}
	return rows.Err()
}

// Get returns the compiled template for id. An id whose compilation failed
// returns its CompilationError; an unknown id returns ErrTemplateNotFound.
func (c *Cache) Get(id string) (*Compiled, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if compiled, ok := c.entries[id]; ok {
		return compiled, nil
	}
	if err, ok := c.failed[id]; ok {
		return nil, err
	}
	return nil, fmt.Errorf("%s: %w", id, ErrTemplateNotFound)
}

// Len returns the number of successfully compiled templates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close releases every prepared statement.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var first error
	for id, compiled := range c.entries {
		if err := compiled.Stmt.Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", id, err)
		}
		delete(c.entries, id)
	}
	return first
}
