package dictionary

import (
	"context"
	"strings"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// Entry 分类词表词条
// Code形如"WG 120",前缀"WG"为学科分类代码
// Classification为自由文本,常见格式"WG-心血管系统"
type Entry struct {
	ID             uint
	Code           string
	Description    string
	DescriptionEN  string
	Classification string
	IsActive       bool
}

// Classification 学科分类(由词条前缀派生)
type Classification struct {
	ID    uint
	Code  string
	Label string
}

// DeriveClassification 从词条派生分类代码与名称
// 规则:
// 1. 代码优先取Code的第一个空白分隔片段并转大写("WG 123" → "WG")
// 2. Code为空时退回Classification中'-'之前的部分
// 3. 名称取Classification中'-'之后的部分,没有'-'时取整个Classification
// 无法得到代码时ok=false
func DeriveClassification(e *Entry) (code, label string, ok bool) {
	if e == nil {
		return "", "", false
	}

	if fields := strings.Fields(e.Code); len(fields) > 0 {
		code = strings.ToUpper(fields[0])
	}

	clas := strings.TrimSpace(e.Classification)
	if code == "" && clas != "" {
		code = strings.TrimSpace(strings.SplitN(clas, "-", 2)[0])
	}

	if _, after, found := strings.Cut(clas, "-"); found {
		label = strings.TrimSpace(after)
	} else {
		label = clas
	}

	return code, label, code != ""
}

// Repository 词表仓储接口
type Repository interface {
	// MatchCode 按代码匹配词条
	// 依次尝试:完全相等(忽略大小写)、前缀、包含
	MatchCode(ctx context.Context, code string) (*Entry, error)

	// GetOrCreateClassification 按代码获取分类,不存在则创建
	// 已存在但名称为空时用label补齐
	GetOrCreateClassification(ctx context.Context, code, label string) (*Classification, error)

	// Search 分页搜索启用的词条
	Search(ctx context.Context, params SearchParams) ([]*Entry, int64, error)

	// AutocompleteCodes 代码自动补全
	AutocompleteCodes(ctx context.Context, term string, limit int) ([]string, error)
}

// SearchParams 词条搜索参数
type SearchParams struct {
	Keyword        string // 搜索代码、描述
	Classification string // 分类代码或名称
	Page           int
	PageSize       int
}

// ErrEntryNotFound 词条不存在
var ErrEntryNotFound = apperrors.New(apperrors.ErrCodeEntryNotFound, "索书号前缀不对应任何分类词条")
