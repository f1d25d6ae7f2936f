package book

import (
	"context"
)

// Repository 图书仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现
// 2. 便于在用例测试中使用内存实现
type Repository interface {
	// Create 创建图书
	Create(ctx context.Context, book *Book) error

	// FindByID 根据ID查找图书
	FindByID(ctx context.Context, id uint) (*Book, error)

	// FindByCota 根据索书号查找图书
	FindByCota(ctx context.Context, cota string) (*Book, error)

	// FindByIDs 批量查询,不存在的ID直接忽略
	FindByIDs(ctx context.Context, ids []uint) ([]*Book, error)

	// Update 更新图书信息
	Update(ctx context.Context, book *Book) error

	// List 分页查询图书列表
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)

	// LockByID 悲观锁查询图书(借出时锁定图书行)
	// 使用SELECT FOR UPDATE锁定行,同一本书的并发借出在此串行化
	LockByID(ctx context.Context, id uint) (*Book, error)
}

// ListParams 列表查询参数
type ListParams struct {
	Page             int    // 页码(从1开始)
	PageSize         int    // 每页数量
	Keyword          string // 搜索关键词(书名、作者、索书号)
	ClassificationID uint   // 按分类过滤,0表示不限
	OnlyActive       bool   // 只返回启用的图书
	SortBy           string // 排序字段(cota_asc, title_asc, created_at_desc)
}
