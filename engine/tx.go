package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TxBeginner starts a transaction. *sqlx.DB satisfies it.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type txKey struct{}

// InTx reports whether ctx already belongs to a RunInTx unit of work.
func InTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// RunInTx runs work inside one transaction. It commits when work returns nil
// and rolls back on error or panic; a panic is re-raised after the rollback.
// Domain errors from work pass through unchanged, anything else is wrapped in
// a TransactionError. Calling RunInTx with a ctx from inside work fails with
// ErrNestedTransaction.
func RunInTx(ctx context.Context, db TxBeginner, op string, work func(ctx context.Context, tx *sqlx.Tx) error) (err error) {
	if InTx(ctx) {
		return ErrNestedTransaction
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return &TransactionError{Operation: op, Err: fmt.Errorf("begin: %w", err)}
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && err != nil {
			err = &TransactionError{Operation: op, Err: errors.Join(err, fmt.Errorf("rollback: %w", rbErr))}
		}
	}()

	if err = work(context.WithValue(ctx, txKey{}, true), tx); err != nil {
		return classify(op, err)
	}

	if err = tx.Commit(); err != nil {
		return &TransactionError{Operation: op, Err: fmt.Errorf("commit: %w", err)}
	}
	committed = true
	return nil
}

func classify(op string, err error) error {
	switch KindOf(err) {
	case KindInternal:
		return &TransactionError{Operation: op, Err: err}
	default:
		return err
	}
}
