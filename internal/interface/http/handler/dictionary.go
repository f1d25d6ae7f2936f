package handler

import (
	"github.com/gin-gonic/gin"

	appbook "github.com/xiebiao/library/internal/application/book"
	"github.com/xiebiao/library/internal/domain/dictionary"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/pkg/response"
)

// DictionaryHandler 分类词表HTTP处理器
type DictionaryHandler struct {
	dictionaryUseCase *appbook.DictionaryUseCase
}

// NewDictionaryHandler 创建词表处理器
func NewDictionaryHandler(dictionaryUseCase *appbook.DictionaryUseCase) *DictionaryHandler {
	return &DictionaryHandler{dictionaryUseCase: dictionaryUseCase}
}

// Search 搜索词条
// @Summary      搜索分类词条
// @Tags         词表
// @Produce      json
// @Param        keyword        query string false "代码或描述"
// @Param        classification query string false "分类代码或名称"
// @Param        page           query int    false "页码"
// @Param        page_size      query int    false "每页数量"
// @Success      200 {object} response.Response{data=appbook.SearchResponse}
// @Router       /api/v1/dictionary [get]
func (h *DictionaryHandler) Search(c *gin.Context) {
	var req dto.DictionarySearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.dictionaryUseCase.Search(c.Request.Context(), dictionary.SearchParams{
		Keyword:        req.Keyword,
		Classification: req.Classification,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Autocomplete 代码补全
// @Summary      词条代码补全
// @Tags         词表
// @Produce      json
// @Param        q     query string false "代码前缀"
// @Param        limit query int    false "返回数量上限"
// @Success      200 {object} response.Response{data=[]string}
// @Router       /api/v1/dictionary/autocomplete [get]
func (h *DictionaryHandler) Autocomplete(c *gin.Context) {
	var req dto.AutocompleteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	codes, err := h.dictionaryUseCase.Autocomplete(c.Request.Context(), req.Q, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, codes)
}
