//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DashboardData 访问统计看板
type DashboardData struct {
	Labels []string `json:"labels"`
	Views  []int64  `json:"views"`
	Adds   []int64  `json:"adds"`
	PDFs   []int64  `json:"pdfs"`
	Logins []int64  `json:"logins"`
}

func dashboard(t *testing.T, token string) DashboardData {
	t.Helper()
	resp := GetJSON(t, BaseURL+"/dashboard", token)
	require.Equal(t, 0, resp.Code, resp.Message)

	var d DashboardData
	require.NoError(t, json.Unmarshal(resp.Data, &d))
	require.NotEmpty(t, d.Labels)
	return d
}

func TestDashboardCountsLoginAndView(t *testing.T) {
	assert.Equal(t, 40100, GetJSON(t, BaseURL+"/dashboard", "").Code)

	_, token := RegisterTestUser(t, "dashboard_user")
	before := dashboard(t, token)
	last := len(before.Labels) - 1
	assert.Equal(t, time.Now().Format("2006-01"), before.Labels[last])
	assert.Len(t, before.Logins, len(before.Labels))
	assert.GreaterOrEqual(t, before.Logins[last], int64(1), "注册后的登录已计入")

	resp := GetJSON(t, BaseURL+"/books?page_size=1", "")
	require.Equal(t, 0, resp.Code, resp.Message)
	var page struct {
		List []BookData `json:"list"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	if len(page.List) == 0 {
		t.Skip("目录为空，跳过浏览计数")
	}
	require.Equal(t, 0, GetJSON(t, fmt.Sprintf("%s/books/%d", BaseURL, page.List[0].ID), token).Code)

	after := dashboard(t, token)
	assert.GreaterOrEqual(t, after.Views[last], before.Views[last]+1)
}
