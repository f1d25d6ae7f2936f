//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 图书模块集成测试
// 1. 编目上架（需要馆员）
// 2. 图书列表与详情附带可借情况
// 3. 停用后不能加入待借清单

func TestBookPublish(t *testing.T) {
	staff := StaffToken(t)
	_, member := RegisterTestUser(t, "book_member")

	t.Run("馆员上架", func(t *testing.T) {
		b := PublishTestBook(t, staff, "Fisiología médica", 3)
		assert.NotZero(t, b.ID)
		assert.Equal(t, 3, b.Total)
		assert.Equal(t, 3, b.Available)
		assert.True(t, b.IsActive)
	})

	t.Run("非馆员不能上架", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/books", map[string]interface{}{
			"cota_1": "WG", "cota_2": "120", "title": "x", "author": "y",
		}, member)
		assert.Equal(t, 40104, resp.Code)
	})

	t.Run("著者字母含数字被拒绝", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/books", map[string]interface{}{
			"cota_1": "WG", "cota_2": "120", "cota_3": "T12", "cota_4": "1",
			"title": "x", "author": "y", "copies": 1,
		}, staff)
		assert.Equal(t, 40900, resp.Code)
		assert.Contains(t, string(resp.Data), "cota_3")
	})

	t.Run("未登录不能上架", func(t *testing.T) {
		resp := PostJSON(t, BaseURL+"/books", map[string]interface{}{}, "")
		assert.Equal(t, 40100, resp.Code)
	})
}

func TestBookDetailAndDeactivate(t *testing.T) {
	staff := StaffToken(t)
	_, member := RegisterTestUser(t, "deactivate_member")
	b := PublishTestBook(t, staff, "Anatomía", 1)

	resp := GetJSON(t, fmt.Sprintf("%s/books/%d", BaseURL, b.ID), "")
	require.Equal(t, 0, resp.Code)
	var detail BookData
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	assert.Equal(t, b.Cota, detail.Cota)

	resp = Do(t, http.MethodPatch, fmt.Sprintf("%s/books/%d/active", BaseURL, b.ID), map[string]bool{"active": false}, staff)
	require.Equal(t, 0, resp.Code, resp.Message)

	resp = PostJSON(t, fmt.Sprintf("%s/cart/%d", BaseURL, b.ID), nil, member)
	assert.Equal(t, 40007, resp.Code, "停用的图书不能加入清单")
}
