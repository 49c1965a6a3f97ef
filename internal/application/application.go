package application

import "context"

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

// Transactor runs fn as one atomic unit against the backing store. Repository calls
// made with the ctx passed to fn join the unit; an error returned by fn rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// InTransaction runs fn through tx, or directly when tx is nil.
func InTransaction(ctx context.Context, tx Transactor, fn func(ctx context.Context) error) error {
	if tx == nil {
		return fn(ctx)
	}
	return tx.WithinTransaction(ctx, fn)
}
