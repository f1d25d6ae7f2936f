package book

import (
	"context"
	"strings"

	"github.com/xiebiao/library/internal/domain/dictionary"
)

// autocompleteLimit 自动补全最多返回的条数
const autocompleteLimit = 50

// DictionaryUseCase 分类词表查询(编目时选择索书号前缀)
type DictionaryUseCase struct {
	repo dictionary.Repository
}

// NewDictionaryUseCase 创建词表查询用例
func NewDictionaryUseCase(repo dictionary.Repository) *DictionaryUseCase {
	return &DictionaryUseCase{repo: repo}
}

// EntryItem 词条DTO
type EntryItem struct {
	ID             uint   `json:"id"`
	Code           string `json:"code"`
	Description    string `json:"description"`
	DescriptionEN  string `json:"description_en,omitempty"`
	Classification string `json:"classification"`
}

// SearchResponse 词条搜索结果
type SearchResponse struct {
	List     []EntryItem `json:"list"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// Search 分页搜索启用的词条
func (uc *DictionaryUseCase) Search(ctx context.Context, params dictionary.SearchParams) (*SearchResponse, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}
	params.Keyword = strings.TrimSpace(params.Keyword)
	params.Classification = strings.TrimSpace(params.Classification)

	entries, total, err := uc.repo.Search(ctx, params)
	if err != nil {
		return nil, err
	}

	list := make([]EntryItem, len(entries))
	for i, e := range entries {
		list[i] = EntryItem{
			ID:             e.ID,
			Code:           e.Code,
			Description:    e.Description,
			DescriptionEN:  e.DescriptionEN,
			Classification: e.Classification,
		}
	}
	return &SearchResponse{List: list, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// Autocomplete 按前缀补全词条代码,空白输入返回空列表
func (uc *DictionaryUseCase) Autocomplete(ctx context.Context, term string, limit int) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}, nil
	}
	if limit < 1 || limit > autocompleteLimit {
		limit = autocompleteLimit
	}
	codes, err := uc.repo.AutocompleteCodes(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	if codes == nil {
		codes = []string{}
	}
	return codes, nil
}
