// Package db provides database utilities including transaction management.
package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// txKey is the context key for storing transaction.
type txKey struct{}

// TransactionManager manages database transactions.
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a new TransactionManager.
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// RunInTransaction executes fn within a database transaction. An error returned by
// fn rolls the transaction back; otherwise it is committed.
func (tm *TransactionManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey{}, tx)
		return fn(txCtx)
	})
}

// GetTxFromContext returns the transaction from context if available.
// This is a standalone function for use in repositories.
func GetTxFromContext(ctx context.Context, defaultDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return defaultDB.WithContext(ctx)
}

// RunInSavepoint runs fn against tx guarded by a named savepoint. When fn fails
// only its own writes are rolled back and the surrounding transaction stays usable.
func RunInSavepoint(tx *gorm.DB, name string, fn func(tx *gorm.DB) error) error {
	if err := tx.SavePoint(name).Error; err != nil {
		return fmt.Errorf("failed to create savepoint %s: %w", name, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.RollbackTo(name).Error; rbErr != nil {
			return fmt.Errorf("failed to roll back to savepoint %s: %v (original error: %w)", name, rbErr, err)
		}
		return err
	}

	return nil
}
