package services

import (
	"context"

	"github.com/blazzica/marketplace-api/repositories"
)

// WithTransaction runs fn through tx. A nil Transactor runs fn directly.
func WithTransaction(ctx context.Context, tx repositories.Transactor, fn func(ctx context.Context) error) error {
	if tx == nil {
		return fn(ctx)
	}
	return tx.InTransaction(ctx, fn)
}

// WithTransactionResult executes fn within a transaction and returns its result.
// The result is discarded when the transaction fails to commit.
func WithTransactionResult[T any](ctx context.Context, tx repositories.Transactor, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := WithTransaction(ctx, tx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
