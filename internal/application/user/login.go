package user

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/analytics"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/logger"
)

// SessionStore 会话与Token黑名单存储
// 实现在infrastructure/persistence/redis
type SessionStore interface {
	SaveSession(ctx context.Context, userID uint, sessionData map[string]interface{}, ttl time.Duration) error
	DeleteSession(ctx context.Context, userID uint) error
	AddToBlacklist(ctx context.Context, token string, ttl time.Duration) error
}

// LoginUseCase 用户登录用例
// 设计说明：
// 1. 验证邮箱密码
// 2. 生成JWT Token对（Access Token携带馆员标记）
// 3. 保存会话到Redis
// 4. 记录login事件
type LoginUseCase struct {
	userService  user.Service
	jwtManager   *jwt.Manager
	sessionStore SessionStore
	sessionTTL   time.Duration
	recorder     analytics.Recorder
}

// NewLoginUseCase 创建登录用例
// sessionTTL与Refresh Token有效期一致
func NewLoginUseCase(
	userService user.Service,
	jwtManager *jwt.Manager,
	sessionStore SessionStore,
	sessionTTL time.Duration,
	recorder analytics.Recorder,
) *LoginUseCase {
	return &LoginUseCase{
		userService:  userService,
		jwtManager:   jwtManager,
		sessionStore: sessionStore,
		sessionTTL:   sessionTTL,
		recorder:     recorder,
	}
}

// Execute 执行登录
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	// 1. 认证（邮箱不存在与密码错误不区分）
	u, err := uc.userService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	// 2. 生成JWT Token对
	tokenPair, err := uc.jwtManager.GenerateToken(identityOf(u))
	if err != nil {
		return nil, err
	}

	// 3. 保存会话到Redis
	sessionData := map[string]interface{}{
		"user_id":  u.ID,
		"email":    u.Email,
		"nickname": u.Nickname,
		"is_staff": u.IsStaff,
		"login_at": time.Now().Unix(),
		"ip":       req.ClientIP,
	}
	if err := uc.sessionStore.SaveSession(ctx, u.ID, sessionData, uc.sessionTTL); err != nil {
		// 会话保存失败不影响登录
		logger.FromContext(ctx).WarnContext(ctx, "保存会话失败", "user_id", u.ID, "error", err)
	}
	logger.FromContext(ctx).InfoContext(ctx, "用户登录", "user_id", u.ID, "name", u.DisplayName(), "is_staff", u.IsStaff)
	if uc.recorder != nil {
		uc.recorder.Record(ctx, analytics.EventLogin, u.ID, 0)
	}

	// 4. 返回登录响应
	return &LoginResponse{
		User:         userInfoOf(u),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

// LogoutUseCase 用户登出用例
type LogoutUseCase struct {
	sessionStore SessionStore
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(sessionStore SessionStore) *LogoutUseCase {
	return &LogoutUseCase{sessionStore: sessionStore}
}

// Execute 执行登出
// remaining为Access Token剩余有效期，黑名单条目在Token过期后自动清除
func (uc *LogoutUseCase) Execute(ctx context.Context, userID uint, accessToken string, remaining time.Duration) error {
	// 1. 删除会话
	if err := uc.sessionStore.DeleteSession(ctx, userID); err != nil {
		return err
	}

	// 2. 将Access Token加入黑名单（防止Token在过期前继续使用）
	return uc.sessionStore.AddToBlacklist(ctx, accessToken, remaining)
}

// RefreshTokenUseCase 刷新Access Token
// 重新查询用户，馆员身份变化在刷新后生效
type RefreshTokenUseCase struct {
	userRepo   user.Repository
	jwtManager *jwt.Manager
}

// NewRefreshTokenUseCase 创建刷新用例
func NewRefreshTokenUseCase(userRepo user.Repository, jwtManager *jwt.Manager) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{userRepo: userRepo, jwtManager: jwtManager}
}

// Execute 用Refresh Token换取新的Access Token
func (uc *RefreshTokenUseCase) Execute(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	token, err := uc.jwtManager.RefreshAccessToken(refreshToken, func(userID uint) (jwt.Identity, error) {
		u, err := uc.userRepo.FindByID(ctx, userID)
		if err != nil {
			return jwt.Identity{}, err
		}
		return identityOf(u), nil
	})
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{AccessToken: token}, nil
}

func identityOf(u *user.User) jwt.Identity {
	return jwt.Identity{UserID: u.ID, Email: u.Email, Nickname: u.Nickname, IsStaff: u.IsStaff}
}

func userInfoOf(u *user.User) UserInfo {
	return UserInfo{ID: u.ID, Email: u.Email, Nickname: u.Nickname, IsStaff: u.IsStaff}
}

// =========================================
// 应用层DTO
// =========================================

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
	ClientIP string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间（秒）
}

// RefreshResponse 刷新响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	IsStaff  bool   `json:"is_staff"`
}
