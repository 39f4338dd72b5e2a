package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/coach-scheduler/internal/repository"
)

// Transactor runs units of work inside a single database transaction.
type Transactor struct {
	DB *sql.DB
}

// NewTransactor returns a Transactor bound to db.
func NewTransactor(db *sql.DB) *Transactor { return &Transactor{DB: db} }

// InTx begins a transaction, hands it to fn and commits when fn returns
// nil.  Any error from fn, or a panic, rolls the transaction back.  The
// error returned by fn is passed through unchanged so callers can match
// on it.
func (t *Transactor) InTx(ctx context.Context, fn func(tx repository.DBTX) error) error {
	tx, err := t.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}
