package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// TxFn executes within a database transaction. The transaction is committed
// if the function returns nil and rolled back otherwise.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// Transactor runs a function inside a single transaction. A mutation, its
// assignment resolution and the resulting notification fan-out form one such
// unit.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn TxFn) error
}

type sqlTransactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) RunInTransaction(ctx context.Context, fn TxFn) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("[tx][panic] rollback failed: %v", rbErr)
			}
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("[tx][err] rollback failed: %v (original: %v)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
