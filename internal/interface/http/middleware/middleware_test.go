package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/loan"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()
	os.Exit(m.Run())
}

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) IsInBlacklist(_ context.Context, token string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[token], nil
}

func newAuth(t *testing.T) (*AuthMiddleware, *jwt.Manager, *fakeBlacklist) {
	t.Helper()
	mgr := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	bl := &fakeBlacklist{revoked: map[string]bool{}}
	return NewAuthMiddleware(mgr, bl), mgr, bl
}

func token(t *testing.T, mgr *jwt.Manager, id jwt.Identity) string {
	t.Helper()
	pair, err := mgr.GenerateToken(id)
	require.NoError(t, err)
	return pair.AccessToken
}

func serve(r *gin.Engine, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthInjectsActor(t *testing.T) {
	auth, mgr, _ := newAuth(t)
	r := gin.New()
	var got loan.Actor
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		got = CurrentActor(c)
		c.Status(http.StatusNoContent)
	})

	tk := token(t, mgr, jwt.Identity{UserID: 7, Email: "ana@biblioteca.ve", Nickname: "Ana", IsStaff: true})
	w := serve(r, http.MethodGet, "/me", tk)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, loan.Actor{UserID: 7, Name: "Ana", IsStaff: true}, got)
}

func TestRequireAuthRejects(t *testing.T) {
	auth, mgr, bl := newAuth(t)
	r := gin.New()
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "garbage").Code)

	tk := token(t, mgr, jwt.Identity{UserID: 1})
	bl.revoked[tk] = true
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", tk).Code)

	bl.revoked = map[string]bool{}
	bl.err = apperrors.WithCode(errors.New("conn refused"), apperrors.ErrCodeRedisError, "检查黑名单失败")
	assert.Equal(t, http.StatusInternalServerError, serve(r, http.MethodGet, "/me", tk).Code)
}

func TestRequireStaff(t *testing.T) {
	auth, mgr, _ := newAuth(t)
	r := gin.New()
	r.GET("/admin", auth.RequireAuth(), RequireStaff(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	member := token(t, mgr, jwt.Identity{UserID: 1, Nickname: "socio"})
	staff := token(t, mgr, jwt.Identity{UserID: 2, Nickname: "bibliotecaria", IsStaff: true})

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", member).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/admin", staff).Code)
}

func TestOptionalAuth(t *testing.T) {
	auth, mgr, _ := newAuth(t)
	r := gin.New()
	var uid uint
	r.GET("/books", auth.OptionalAuth(), func(c *gin.Context) {
		uid = GetUserID(c)
		c.Status(http.StatusNoContent)
	})

	serve(r, http.MethodGet, "/books", "")
	assert.Zero(t, uid)

	serve(r, http.MethodGet, "/books", token(t, mgr, jwt.Identity{UserID: 5}))
	assert.EqualValues(t, 5, uid)
}

func TestRequestLoggerPropagatesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger(), Metrics())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := serve(r, http.MethodGet, "/ping", "")
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
}
