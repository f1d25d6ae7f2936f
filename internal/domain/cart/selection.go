package cart

import "context"

// MaxItems 待借清单最多保留的图书数
const MaxItems = 10

// Selection 待借清单(值对象)
// 设计说明:
// 1. 按加入时间倒序保存图书ID,最新加入的排在最前
// 2. ID不重复,超出MaxItems时淘汰最早加入的
// 3. 只属于单个用户会话,由Store在请求间持久化,不需要加锁
type Selection struct {
	BookIDs []uint
	AddedBy string // 最近一次加入图书的操作人显示名
}

// NewSelection 创建空清单
func NewSelection() *Selection {
	return &Selection{BookIDs: []uint{}}
}

// Len 清单中的图书数
func (s *Selection) Len() int {
	return len(s.BookIDs)
}

// IsEmpty 清单是否为空
func (s *Selection) IsEmpty() bool {
	return len(s.BookIDs) == 0
}

// Contains 是否已在清单中
func (s *Selection) Contains(bookID uint) bool {
	for _, id := range s.BookIDs {
		if id == bookID {
			return true
		}
	}
	return false
}

// Add 加入图书
// 已存在时不改变顺序并返回false;否则插入到最前并截断到MaxItems
func (s *Selection) Add(bookID uint) bool {
	if s.Contains(bookID) {
		return false
	}
	ids := make([]uint, 0, len(s.BookIDs)+1)
	ids = append(ids, bookID)
	ids = append(ids, s.BookIDs...)
	if len(ids) > MaxItems {
		ids = ids[:MaxItems]
	}
	s.BookIDs = ids
	return true
}

// Remove 移除图书,不存在时什么也不做
func (s *Selection) Remove(bookID uint) {
	ids := s.BookIDs[:0]
	for _, id := range s.BookIDs {
		if id != bookID {
			ids = append(ids, id)
		}
	}
	s.BookIDs = ids
}

// Without 移除一组图书(借出成功的部分),保持剩余顺序
func (s *Selection) Without(bookIDs []uint) {
	drop := make(map[uint]struct{}, len(bookIDs))
	for _, id := range bookIDs {
		drop[id] = struct{}{}
	}
	ids := make([]uint, 0, len(s.BookIDs))
	for _, id := range s.BookIDs {
		if _, ok := drop[id]; !ok {
			ids = append(ids, id)
		}
	}
	s.BookIDs = ids
}

// Snapshot 返回ID列表副本
func (s *Selection) Snapshot() []uint {
	out := make([]uint, len(s.BookIDs))
	copy(out, s.BookIDs)
	return out
}

// Store 待借清单存储接口
// 实现在infrastructure/persistence/redis,key按用户隔离
type Store interface {
	// Load 读取清单,不存在时返回空清单
	Load(ctx context.Context, ownerID uint) (*Selection, error)

	// Save 保存清单
	Save(ctx context.Context, ownerID uint, s *Selection) error

	// Clear 清空清单
	Clear(ctx context.Context, ownerID uint) error
}
