package handler

import (
	"github.com/gin-gonic/gin"

	appanalytics "github.com/xiebiao/library/internal/application/analytics"
	"github.com/xiebiao/library/pkg/response"
)

// DashboardHandler 访问统计看板
type DashboardHandler struct {
	dashboardUseCase *appanalytics.DashboardUseCase
}

// NewDashboardHandler 创建看板处理器
func NewDashboardHandler(dashboardUseCase *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{dashboardUseCase: dashboardUseCase}
}

// Monthly 最近12个月的访问统计
// @Summary      访问统计看板
// @Description  按月统计图书浏览、编目上架、PDF导出、登录次数，labels为YYYY-MM升序，各序列与labels一一对应
// @Tags         统计
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appanalytics.Dashboard}
// @Failure      401 {object} response.Response "未登录"
// @Router       /api/v1/dashboard [get]
func (h *DashboardHandler) Monthly(c *gin.Context) {
	result, err := h.dashboardUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
