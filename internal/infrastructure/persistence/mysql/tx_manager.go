package mysql

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// txKey 事务连接在context中的key
type txKey struct{}

// TxManager 事务管理器
// 1. 封装GORM的Transaction方法
// 2. 通过context传递事务DB
// 3. 事务隔离级别为READ COMMITTED：锁住图书行之后的每条读取都能看到已提交的借阅，
//    InnoDB默认的REPEATABLE READ会沿用事务第一次读取时的快照
type TxManager struct {
	db   *gorm.DB
	opts *sql.TxOptions
}

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db, opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted}}
}

// Transaction 执行事务
// fn内所有Repository操作都在同一事务中执行，fn返回error时ROLLBACK，返回nil时COMMIT
//
// 使用示例:
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    b, err := bookRepo.LockByID(ctx, bookID)      // SELECT ... FOR UPDATE
//	    if err != nil {
//	        return err
//	    }
//	    onLoan, err := loanRepo.SumActiveByBook(ctx, b.ID) // ... FOR SHARE
//	    if err != nil {
//	        return err
//	    }
//	    if loan.Available(b.Copies, onLoan) <= 0 {
//	        return nil                                  // 记为失败，继续下一本
//	    }
//	    return loanRepo.Create(ctx, newLoan)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		// 已在事务中，直接复用
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	}, m.opts)
}

// conn 从context获取事务DB，没有则使用默认DB
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
