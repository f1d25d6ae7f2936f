package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/library/internal/domain/cart"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// CartStore 待借清单存储
// 1. Key: loan_cart:{user_id}，值为Selection的JSON
// 2. 每次保存刷新TTL，长时间不操作的清单自动过期
// 3. 清单内容在读取时由应用层与目录重新核对，这里不做业务校验
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore 创建待借清单存储
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

var _ cart.Store = (*CartStore)(nil)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type selectionDoc struct {
	BookIDs []uint `json:"book_ids"`
	AddedBy string `json:"added_by,omitempty"`
}

func cartKey(ownerID uint) string {
	return fmt.Sprintf("loan_cart:%d", ownerID)
}

// Load 读取清单，不存在时返回空清单
func (s *CartStore) Load(ctx context.Context, ownerID uint) (*cart.Selection, error) {
	raw, err := s.client.Get(ctx, cartKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.NewSelection(), nil
	}
	if err != nil {
		return nil, apperrors.WithCode(err, apperrors.ErrCodeRedisError, "读取待借清单失败")
	}

	var doc selectionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		// 数据损坏时视为空清单，下一次保存会覆盖
		return cart.NewSelection(), nil
	}

	sel := cart.NewSelection()
	sel.AddedBy = doc.AddedBy
	// Add是头插，倒序回放以保持原有顺序，同时去重并截断
	for i := len(doc.BookIDs) - 1; i >= 0; i-- {
		sel.Add(doc.BookIDs[i])
	}
	return sel, nil
}

// Save 保存清单，空清单直接删除Key
func (s *CartStore) Save(ctx context.Context, ownerID uint, sel *cart.Selection) error {
	if sel == nil || sel.IsEmpty() {
		return s.Clear(ctx, ownerID)
	}

	raw, err := json.Marshal(selectionDoc{BookIDs: sel.Snapshot(), AddedBy: sel.AddedBy})
	if err != nil {
		return apperrors.Wrap(err, "序列化待借清单失败")
	}
	if err := s.client.Set(ctx, cartKey(ownerID), raw, s.ttl).Err(); err != nil {
		return apperrors.WithCode(err, apperrors.ErrCodeRedisError, "保存待借清单失败")
	}
	return nil
}

// Clear 清空清单
func (s *CartStore) Clear(ctx context.Context, ownerID uint) error {
	if err := s.client.Del(ctx, cartKey(ownerID)).Err(); err != nil {
		return apperrors.WithCode(err, apperrors.ErrCodeRedisError, "清空待借清单失败")
	}
	return nil
}
