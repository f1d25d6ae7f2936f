//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 集成测试辅助函数
// 需要已启动的服务（默认http://localhost:8080），以及一个馆员账号：
//
//	loanfix --grant-staff staff@biblioteca.ve
//	LIBRARY_TEST_STAFF_EMAIL=staff@biblioteca.ve LIBRARY_TEST_STAFF_PASSWORD=... \
//	  go test -tags integration ./test/integration/...
//
// 上架图书需要分类词表中存在与LIBRARY_TEST_COTA前缀（默认"WG 120"）对应的词条

const (
	// Timeout HTTP请求超时时间
	Timeout = 10 * time.Second
)

// BaseURL API基础URL
var BaseURL = envOr("LIBRARY_TEST_BASE_URL", "http://localhost:8080") + "/api/v1"

var seq atomic.Int64

// Response 统一响应结构
type Response struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// LoginData 登录响应数据
type LoginData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// BookData 图书响应数据
type BookData struct {
	ID        uint   `json:"id"`
	Cota      string `json:"cota"`
	Title     string `json:"title"`
	Total     int    `json:"total"`
	OnLoan    int    `json:"on_loan"`
	Available int    `json:"available"`
	IsActive  bool   `json:"is_active"`
}

// CheckoutData 借出结果
type CheckoutData struct {
	Created int `json:"created"`
	Loans   []struct {
		ID     uint `json:"id"`
		BookID uint `json:"book_id"`
	} `json:"loans"`
	Failed []struct {
		BookID uint   `json:"book_id"`
		Reason string `json:"reason"`
	} `json:"failed"`
	RemainingCount int `json:"remaining_count"`
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Do 发送请求并解析统一响应
// 服务未启动时跳过测试
func Do(t *testing.T, method, url string, data interface{}, token string) *Response {
	t.Helper()
	var body io.Reader
	if data != nil {
		b, err := json.Marshal(data)
		require.NoError(t, err, "JSON序列化失败")
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err, "创建HTTP请求失败")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	if err != nil {
		t.Skipf("服务不可用，跳过: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "读取响应体失败")

	var result Response
	require.NoError(t, json.Unmarshal(raw, &result), "解析JSON响应失败: %s", string(raw))
	return &result
}

// PostJSON 发送POST请求
func PostJSON(t *testing.T, url string, data interface{}, token string) *Response {
	return Do(t, http.MethodPost, url, data, token)
}

// GetJSON 发送GET请求
func GetJSON(t *testing.T, url string, token string) *Response {
	return Do(t, http.MethodGet, url, nil, token)
}

// GenerateTestEmail 生成唯一的测试邮箱
func GenerateTestEmail(prefix string) string {
	return fmt.Sprintf("%s_%d_%d@test.com", prefix, time.Now().UnixNano(), seq.Add(1))
}

// Login 登录并返回Access Token
func Login(t *testing.T, email, password string) string {
	t.Helper()
	resp := PostJSON(t, BaseURL+"/users/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, 0, resp.Code, "登录失败: %s", resp.Message)

	var data LoginData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.AccessToken
}

// RegisterTestUser 注册测试用户并返回Token
func RegisterTestUser(t *testing.T, nickname string) (email string, token string) {
	t.Helper()
	email = GenerateTestEmail(nickname)
	resp := PostJSON(t, BaseURL+"/users/register", map[string]string{
		"email":    email,
		"password": "Test1234",
		"nickname": nickname,
	}, "")
	require.Equal(t, 0, resp.Code, "注册失败: %s", resp.Message)

	return email, Login(t, email, "Test1234")
}

// StaffToken 馆员账号Token，未配置时跳过
func StaffToken(t *testing.T) string {
	t.Helper()
	email := os.Getenv("LIBRARY_TEST_STAFF_EMAIL")
	if email == "" {
		t.Skip("未配置LIBRARY_TEST_STAFF_EMAIL，跳过需要馆员的测试")
	}
	return Login(t, email, os.Getenv("LIBRARY_TEST_STAFF_PASSWORD"))
}

// PublishTestBook 上架测试图书并返回图书
// 索书号后两段由序号和纳秒时间戳生成,保证唯一
func PublishTestBook(t *testing.T, staffToken, title string, copies int) BookData {
	t.Helper()
	prefix := strings.Fields(envOr("LIBRARY_TEST_COTA", "WG 120"))
	require.Len(t, prefix, 2, "LIBRARY_TEST_COTA格式应为\"分类 编号\"")

	n := time.Now().UnixNano()
	resp := PostJSON(t, BaseURL+"/books", map[string]interface{}{
		"cota_1": prefix[0],
		"cota_2": prefix[1],
		"cota_3": cutterLetters(seq.Add(1)),
		"cota_4": fmt.Sprintf("%d", n%1000000000),
		"title":  title,
		"author": "测试作者",
		"copies": copies,
	}, staffToken)
	require.Equal(t, 0, resp.Code, "图书上架失败: %s", resp.Message)

	var b BookData
	require.NoError(t, json.Unmarshal(resp.Data, &b))
	return b
}

// cutterLetters 把序号编码为最多5个字母
func cutterLetters(n int64) string {
	var b []byte
	for i := 0; i < 5; i++ {
		b = append(b, byte('A'+n%26))
		n /= 26
		if n == 0 {
			break
		}
	}
	return string(b)
}

// Receiver 合法的借书人信息
func Receiver() map[string]string {
	return map[string]string{
		"receiver_cedula":     fmt.Sprintf("%d", 10000000+seq.Add(1)),
		"receiver_first_name": "Ana",
		"receiver_last_name":  "Pérez",
	}
}
