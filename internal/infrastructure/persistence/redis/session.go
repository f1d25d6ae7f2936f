package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

const (
	sessionPrefix = "library:session:"
	revokedPrefix = "library:revoked:"
)

// SessionStore 登录会话与已撤销Token
// library:session:{user_id}  Hash，最近一次登录信息
// library:revoked:{sha256}   登出的Access Token，TTL为Token剩余有效期
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(userID uint) string {
	return sessionPrefix + strconv.FormatUint(uint64(userID), 10)
}

// revokedKey Key中只保存Token摘要
func revokedKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return revokedPrefix + hex.EncodeToString(sum[:])
}

// SaveSession 记录登录信息，ttl与Refresh Token一致
func (s *SessionStore) SaveSession(ctx context.Context, userID uint, sessionData map[string]interface{}, ttl time.Duration) error {
	key := sessionKey(userID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, sessionData)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return apperrors.WithCode(err, apperrors.ErrCodeRedisError, "保存会话失败")
	}
	return nil
}

// DeleteSession 登出时删除登录信息
func (s *SessionStore) DeleteSession(ctx context.Context, userID uint) error {
	if err := s.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return apperrors.WithCode(err, apperrors.ErrCodeRedisError, "删除会话失败")
	}
	return nil
}

// AddToBlacklist 撤销Token，已过期的Token不用记录
func (s *SessionStore) AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(token), time.Now().Unix(), ttl).Err(); err != nil {
		return apperrors.WithCode(err, apperrors.ErrCodeRedisError, "撤销Token失败")
	}
	return nil
}

// IsInBlacklist Token是否已撤销
func (s *SessionStore) IsInBlacklist(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, apperrors.WithCode(err, apperrors.ErrCodeRedisError, "检查Token状态失败")
	}
	return n > 0, nil
}
