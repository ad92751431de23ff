package postgres

import (
	"context"
	"database/sql"

	"delivery/internal/repository"
)

// TxRunner runs callbacks inside a PostgreSQL transaction.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a new TxRunner.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// WithinTx begins a transaction, hands transaction-scoped repositories to fn
// and commits if fn succeeds.
func (r *TxRunner) WithinTx(ctx context.Context, fn func(repos repository.TxRepositories) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = fn(repository.TxRepositories{
		Orders:   NewOrderRepositoryWithTx(tx),
		Products: NewProductRepositoryWithTx(tx),
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Ensure concrete types implement interfaces.
var (
	_ repository.OrderRepository   = (*OrderRepository)(nil)
	_ repository.ProductRepository = (*ProductRepository)(nil)
	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.TxRunner          = (*TxRunner)(nil)
)
