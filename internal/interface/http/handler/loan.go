package handler

import (
	"github.com/gin-gonic/gin"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// LoanHandler 借阅HTTP处理器
type LoanHandler struct {
	listLoansUseCase  *apploan.ListLoansUseCase
	returnLoanUseCase *apploan.ReturnLoanUseCase
}

// NewLoanHandler 创建借阅处理器
func NewLoanHandler(listLoansUseCase *apploan.ListLoansUseCase, returnLoanUseCase *apploan.ReturnLoanUseCase) *LoanHandler {
	return &LoanHandler{
		listLoansUseCase:  listLoansUseCase,
		returnLoanUseCase: returnLoanUseCase,
	}
}

// Active 借出中的借阅
// @Summary      借出中的借阅
// @Description  馆员看到全部借阅，其他用户只看到自己办理的
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=apploan.PageResult[apploan.LoanView]}
// @Router       /api/v1/loans [get]
func (h *LoanHandler) Active(c *gin.Context) {
	var req dto.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.listLoansUseCase.Active(c.Request.Context(), middleware.CurrentActor(c), req.Page, req.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Returned 归还历史
// @Summary      归还历史
// @Description  按书名搜索、按归还日期过滤；日期格式YYYY-MM-DD，无法解析时忽略
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        q          query string false "书名关键词"
// @Param        start_date query string false "归还起始日期"
// @Param        end_date   query string false "归还截止日期"
// @Param        page       query int    false "页码"
// @Param        page_size  query int    false "每页数量"
// @Success      200 {object} response.Response{data=apploan.PageResult[apploan.LoanView]}
// @Router       /api/v1/loans/returned [get]
func (h *LoanHandler) Returned(c *gin.Context) {
	var req dto.ReturnedLoansRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.listLoansUseCase.Returned(c.Request.Context(), middleware.CurrentActor(c), apploan.ReturnedQuery{
		Keyword:   req.Keyword,
		StartDate: dto.ParseDay(req.StartDate),
		EndDate:   dto.ParseDay(req.EndDate),
		Page:      req.Page,
		PageSize:  req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Return 归还
// @Summary      归还
// @Description  办理人或馆员登记归还，可附报告和1-5分评分；不合法的评分按未评分处理
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int               true  "借阅ID"
// @Param        request body dto.ReturnRequest false "归还报告与评分"
// @Success      200 {object} response.Response{data=apploan.ReturnResponse}
// @Failure      403 {object} response.Response "非办理人"
// @Failure      404 {object} response.Response "借阅不存在"
// @Failure      409 {object} response.Response "已归还"
// @Router       /api/v1/loans/{id}/return [post]
func (h *LoanHandler) Return(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.ReturnRequest
	// 请求体可以为空
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	result, err := h.returnLoanUseCase.Execute(c.Request.Context(), middleware.CurrentActor(c), apploan.ReturnRequest{
		LoanID:         id,
		Report:         req.Report,
		BookRating:     string(req.BookRating),
		ReceiverRating: string(req.ReceiverRating),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
