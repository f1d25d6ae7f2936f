package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// BookHandler 图书HTTP处理器
type BookHandler struct {
	publishBookUseCase *appbook.PublishBookUseCase
	listBooksUseCase   *appbook.ListBooksUseCase
	getBookUseCase     *appbook.GetBookUseCase
	setActiveUseCase   *appbook.SetActiveUseCase
}

// NewBookHandler 创建图书处理器
func NewBookHandler(
	publishBookUseCase *appbook.PublishBookUseCase,
	listBooksUseCase *appbook.ListBooksUseCase,
	getBookUseCase *appbook.GetBookUseCase,
	setActiveUseCase *appbook.SetActiveUseCase,
) *BookHandler {
	return &BookHandler{
		publishBookUseCase: publishBookUseCase,
		listBooksUseCase:   listBooksUseCase,
		getBookUseCase:     getBookUseCase,
		setActiveUseCase:   setActiveUseCase,
	}
}

// PublishBook 编目上架
// @Summary      编目上架
// @Description  馆员登记新书，索书号前缀必须对应分类词表中的词条
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.PublishBookRequest true "图书信息"
// @Success      200 {object} response.Response{data=appbook.BookDetail}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      401 {object} response.Response "未登录"
// @Failure      403 {object} response.Response "非馆员"
// @Failure      404 {object} response.Response "索书号前缀无对应词条"
// @Failure      409 {object} response.Response "索书号已存在"
// @Router       /api/v1/books [post]
func (h *BookHandler) PublishBook(c *gin.Context) {
	// 1. 参数绑定与验证
	var req dto.PublishBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	// 2. 调用应用层用例，编目人取当前登录用户
	result, err := h.publishBookUseCase.Execute(c.Request.Context(), appbook.PublishBookRequest{
		CotaParts:       req.CotaParts(),
		Title:           req.Title,
		Subtitle:        req.Subtitle,
		Author:          req.Author,
		CoAuthor:        req.CoAuthor,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Edition:         req.Edition,
		Copies:          req.Copies,
		CreatedBy:       middleware.MustGetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListBooks 图书列表
// @Summary      图书列表
// @Description  分页查询图书，每本书附带馆藏数、借出中数量与可借数
// @Tags         图书
// @Produce      json
// @Param        page              query int    false "页码"
// @Param        page_size         query int    false "每页数量"
// @Param        keyword           query string false "搜索书名、作者、索书号"
// @Param        classification_id query int    false "分类ID"
// @Param        only_active       query bool   false "只显示在架图书"
// @Param        sort_by           query string false "排序" Enums(cota_asc, title_asc, created_at_desc)
// @Success      200 {object} response.Response{data=appbook.ListBooksResponse}
// @Failure      400 {object} response.Response "参数错误"
// @Router       /api/v1/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	var req dto.ListBooksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.listBooksUseCase.Execute(c.Request.Context(), appbook.ListBooksRequest{
		Page:             req.Page,
		PageSize:         req.PageSize,
		Keyword:          req.Keyword,
		ClassificationID: req.ClassificationID,
		OnlyActive:       req.OnlyActive,
		SortBy:           req.SortBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBook 图书详情
// @Summary      图书详情
// @Description  每次查看记录一条浏览事件，带Token时关联到当前用户
// @Tags         图书
// @Produce      json
// @Param        id path int true "图书ID"
// @Success      200 {object} response.Response{data=appbook.BookDetail}
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.getBookUseCase.Execute(c.Request.Context(), id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// SetActive 启用或停用图书
// @Summary      启用/停用图书
// @Description  停用的图书不能再加入待借清单，已借出的不受影响
// @Tags         图书
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                  true "图书ID"
// @Param        request body dto.SetActiveRequest true "状态"
// @Success      200 {object} response.Response{data=appbook.BookDetail}
// @Failure      403 {object} response.Response "非馆员"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/books/{id}/active [patch]
func (h *BookHandler) SetActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.setActiveUseCase.Execute(c.Request.Context(), id, *req.Active)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
