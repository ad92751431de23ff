package repository

import "context"

// TxRepositories are repositories bound to a single transaction.
type TxRepositories struct {
	Orders   OrderRepository
	Products ProductRepository
}

// TxRunner runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
