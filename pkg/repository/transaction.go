package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"

	bobCtx "github.com/dbsDevelops/f1-24-setup-recommender/pkg/repository/context"
)

type (
	TransactionManager interface {
		RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	}
	bobTransaction struct {
		db bob.DB
	}
)

var _ TransactionManager = (*bobTransaction)(nil)

func NewDBFromPool(pool *pgxpool.Pool) bob.DB {
	return bob.NewDB(stdlib.OpenDBFromPool(pool))
}

func NewTransactionManager(db bob.DB) TransactionManager {
	return &bobTransaction{db: db}
}

// the contract with the repositories is:
// we put the current executor into the context, the repository should first look
// in the context for an executor and then use it to execute queries
//
//nolint:whitespace //editor/linter issue
func (b *bobTransaction) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context) error,
) error {
	return b.db.RunInTx(ctx, nil, func(ctx context.Context, e bob.Executor) error {
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(bobCtx.NewContext(ctx, e))
	})
}
