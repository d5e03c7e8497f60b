package repository

import (
	"context"

	"gorm.io/gorm"
)

// txKey carries the open transaction through the context so every
// repository call inside RunInTx lands on the same *gorm.DB.
type txKey struct{}

// TransactionManager runs a function inside one database transaction. Any
// error from fn rolls the whole transaction back, audit rows included.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// GetDB returns the transaction from the context when one is open, the root
// handle otherwise.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return rootDB.WithContext(ctx)
}
