package handler

import (
	"github.com/gin-gonic/gin"

	appreport "github.com/xiebiao/library/internal/application/report"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/pkg/response"
)

// ReportHandler 归还评价统计HTTP处理器
type ReportHandler struct {
	reportUseCase *appreport.UseCase
}

// NewReportHandler 创建统计处理器
func NewReportHandler(reportUseCase *appreport.UseCase) *ReportHandler {
	return &ReportHandler{reportUseCase: reportUseCase}
}

// BookRatings 图书评价汇总
// @Summary      图书评价汇总
// @Description  统计已归还且带报告或评分的借阅；min_score对图书评分或借书人评分任一生效
// @Tags         统计
// @Produce      json
// @Security     BearerAuth
// @Param        start_date query string false "归还起始日期(YYYY-MM-DD)"
// @Param        end_date   query string false "归还截止日期(YYYY-MM-DD)"
// @Param        min_score  query int    false "最低分(1-5)"
// @Param        q          query string false "索书号、书名、作者"
// @Param        page       query int    false "页码"
// @Param        page_size  query int    false "每页数量"
// @Success      200 {object} response.Response{data=apploan.PageResult[appreport.BookRatingView]}
// @Router       /api/v1/reports/books [get]
func (h *ReportHandler) BookRatings(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.reportUseCase.BookRatings(c.Request.Context(), req.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// BookReport 单本图书的评价明细
// @Summary      图书评价明细
// @Tags         统计
// @Produce      json
// @Security     BearerAuth
// @Param        id         path  int    true  "图书ID"
// @Param        start_date query string false "归还起始日期(YYYY-MM-DD)"
// @Param        end_date   query string false "归还截止日期(YYYY-MM-DD)"
// @Param        min_score  query int    false "最低分(1-5)"
// @Param        page       query int    false "页码"
// @Param        page_size  query int    false "每页数量"
// @Success      200 {object} response.Response{data=appreport.BookDetail}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/reports/books/{id} [get]
func (h *ReportHandler) BookReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.reportUseCase.BookReport(c.Request.Context(), id, req.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ReceiverRatings 借书人评分汇总
// @Summary      借书人评分汇总
// @Description  只统计有借书人评分的借阅；min_score作用于借书人评分
// @Tags         统计
// @Produce      json
// @Security     BearerAuth
// @Param        start_date query string false "归还起始日期(YYYY-MM-DD)"
// @Param        end_date   query string false "归还截止日期(YYYY-MM-DD)"
// @Param        min_score  query int    false "最低分(1-5)"
// @Param        q          query string false "证件号或姓名"
// @Param        page       query int    false "页码"
// @Param        page_size  query int    false "每页数量"
// @Success      200 {object} response.Response{data=apploan.PageResult[appreport.ReceiverRatingView]}
// @Router       /api/v1/reports/receivers [get]
func (h *ReportHandler) ReceiverRatings(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.reportUseCase.ReceiverRatings(c.Request.Context(), req.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ReceiverReport 单个借书人的借阅明细
// @Summary      借书人借阅明细
// @Tags         统计
// @Produce      json
// @Security     BearerAuth
// @Param        cedula     path  string true  "证件号"
// @Param        start_date query string false "归还起始日期(YYYY-MM-DD)"
// @Param        end_date   query string false "归还截止日期(YYYY-MM-DD)"
// @Param        page       query int    false "页码"
// @Param        page_size  query int    false "每页数量"
// @Success      200 {object} response.Response{data=appreport.ReceiverDetail}
// @Router       /api/v1/reports/receivers/{cedula} [get]
func (h *ReportHandler) ReceiverReport(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.reportUseCase.ReceiverReport(c.Request.Context(), c.Param("cedula"), req.Filter())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
