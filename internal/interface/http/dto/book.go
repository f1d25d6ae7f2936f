package dto

// PublishBookRequest HTTP编目上架请求
// validator tag说明:
// - required: 必填字段
// - max/min: 长度、数值范围校验
// 索书号分4段提交,前两段为分类代码
type PublishBookRequest struct {
	Cota1           string `json:"cota_1" binding:"required,max=10" example:"WG"`
	Cota2           string `json:"cota_2" binding:"required,max=10" example:"120"`
	Cota3           string `json:"cota_3" binding:"required,max=5" example:"M"`
	Cota4           string `json:"cota_4" binding:"required,max=10" example:"45"`
	Title           string `json:"title" binding:"required,max=255" example:"Fisiología médica"`
	Subtitle        string `json:"subtitle" binding:"max=255"`
	Author          string `json:"author" binding:"required,max=255" example:"Guyton"`
	CoAuthor        string `json:"co_author" binding:"max=255"`
	Publisher       string `json:"publisher" binding:"max=255" example:"Elsevier"`
	PublicationYear int    `json:"publication_year" binding:"omitempty,min=1000,max=9999" example:"2016"`
	Edition         int    `json:"edition" binding:"omitempty,min=1" example:"13"`
	Copies          int    `json:"copies" binding:"min=0" example:"3"`
}

// CotaParts 索书号各段
func (r *PublishBookRequest) CotaParts() []string {
	return []string{r.Cota1, r.Cota2, r.Cota3, r.Cota4}
}

// ListBooksRequest HTTP图书列表请求
type ListBooksRequest struct {
	Page             int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize         int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"10"`
	Keyword          string `form:"keyword" binding:"omitempty,max=100" example:"fisiología"`
	ClassificationID uint   `form:"classification_id" example:"2"`
	OnlyActive       bool   `form:"only_active" example:"true"`
	SortBy           string `form:"sort_by" binding:"omitempty,oneof=cota_asc title_asc created_at_desc" example:"cota_asc"`
}

// SetActiveRequest 启用/停用请求
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required" example:"false"`
}

// DictionarySearchRequest 词表搜索请求
type DictionarySearchRequest struct {
	Keyword        string `form:"keyword" binding:"omitempty,max=100" example:"corazón"`
	Classification string `form:"classification" binding:"omitempty,max=100" example:"WG"`
	Page           int    `form:"page" binding:"omitempty,min=1"`
	PageSize       int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AutocompleteRequest 代码补全请求
type AutocompleteRequest struct {
	Q     string `form:"q" binding:"max=30" example:"WG 1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50" example:"20"`
}
