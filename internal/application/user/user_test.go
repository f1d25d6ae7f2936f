package user

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/analytics"
	"github.com/xiebiao/library/internal/domain/user"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uint]*user.User
}

// eventLog 记录收到的访问事件,格式为"类型:用户ID"
type eventLog struct {
	events []string
}

func (l *eventLog) Record(_ context.Context, t analytics.EventType, userID, _ uint) {
	l.events = append(l.events, fmt.Sprintf("%s:%d", t, userID))
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uint]*user.User)}
}

func (r *memUsers) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperrors.ErrEmailDuplicate
		}
	}
	u.ID = uint(len(r.users) + 1)
	r.users[u.ID] = u
	return nil
}

func (r *memUsers) FindByID(_ context.Context, id uint) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *memUsers) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r *memUsers) SetStaff(ctx context.Context, id uint, staff bool) error {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	u.IsStaff = staff
	return nil
}

type memSessions struct {
	saveErr   error
	sessions  map[uint]map[string]interface{}
	blacklist map[string]time.Duration
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[uint]map[string]interface{}{}, blacklist: map[string]time.Duration{}}
}

func (s *memSessions) SaveSession(_ context.Context, userID uint, data map[string]interface{}, _ time.Duration) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions[userID] = data
	return nil
}

func (s *memSessions) DeleteSession(_ context.Context, userID uint) error {
	delete(s.sessions, userID)
	return nil
}

func (s *memSessions) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	s.blacklist[token] = ttl
	return nil
}

const password = "secreto123"

func setup(t *testing.T) (*memUsers, *memSessions, *jwt.Manager, user.Service) {
	t.Helper()
	repo := newMemUsers()
	svc := user.NewServiceWithCost(repo, 4)
	_, err := NewRegisterUseCase(svc).Execute(context.Background(), RegisterRequest{
		Email: "ana@biblioteca.org", Password: password, Nickname: "Ana",
	})
	require.NoError(t, err)
	return repo, newMemSessions(), jwt.NewManager("test-secret", time.Hour, 24*time.Hour), svc
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, _, _, svc := setup(t)
	_, err := NewRegisterUseCase(svc).Execute(context.Background(), RegisterRequest{
		Email: "ana@biblioteca.org", Password: password, Nickname: "Ana2",
	})
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)
}

func TestLoginCarriesStaffFlag(t *testing.T) {
	repo, sessions, jm, svc := setup(t)
	require.NoError(t, repo.SetStaff(context.Background(), 1, true))

	rec := &eventLog{}
	resp, err := NewLoginUseCase(svc, jm, sessions, time.Hour, rec).Execute(context.Background(), LoginRequest{
		Email: "ana@biblioteca.org", Password: password, ClientIP: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.True(t, resp.User.IsStaff)
	assert.Equal(t, []string{"login:1"}, rec.events)

	claims, err := jm.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsStaff)
	assert.EqualValues(t, 1, claims.UserID)
	assert.Equal(t, "10.0.0.1", sessions.sessions[1]["ip"])
}

func TestLoginWrongPassword(t *testing.T) {
	_, sessions, jm, svc := setup(t)
	rec := &eventLog{}
	_, err := NewLoginUseCase(svc, jm, sessions, time.Hour, rec).Execute(context.Background(), LoginRequest{
		Email: "ana@biblioteca.org", Password: "otraClave99",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
	assert.Empty(t, rec.events, "登录失败不记录事件")
}

func TestLoginSucceedsWhenSessionStoreFails(t *testing.T) {
	_, sessions, jm, svc := setup(t)
	sessions.saveErr = errors.New("redis down")

	resp, err := NewLoginUseCase(svc, jm, sessions, time.Hour, nil).Execute(context.Background(), LoginRequest{
		Email: "ana@biblioteca.org", Password: password,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	_, sessions, _, _ := setup(t)
	sessions.sessions[1] = map[string]interface{}{"user_id": 1}

	require.NoError(t, NewLogoutUseCase(sessions).Execute(context.Background(), 1, "tok", 30*time.Minute))
	assert.NotContains(t, sessions.sessions, uint(1))
	assert.Equal(t, 30*time.Minute, sessions.blacklist["tok"])
}

func TestRefreshPicksUpStaffChange(t *testing.T) {
	repo, sessions, jm, svc := setup(t)
	login, err := NewLoginUseCase(svc, jm, sessions, time.Hour, nil).Execute(context.Background(), LoginRequest{
		Email: "ana@biblioteca.org", Password: password,
	})
	require.NoError(t, err)
	require.False(t, login.User.IsStaff)

	require.NoError(t, repo.SetStaff(context.Background(), 1, true))
	resp, err := NewRefreshTokenUseCase(repo, jm).Execute(context.Background(), login.RefreshToken)
	require.NoError(t, err)

	claims, err := jm.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsStaff)
	assert.Equal(t, "ana@biblioteca.org", claims.Email)
}
