package book

import (
	"sort"
	"strings"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrCotaDuplicate 索书号已存在
	ErrCotaDuplicate = apperrors.New(apperrors.ErrCodeCotaDuplicate, "索书号已存在")

	// ErrInvalidCota 索书号不合法,字段明细见CotaError
	ErrInvalidCota = apperrors.New(apperrors.ErrCodeInvalidParams, "索书号不合法")

	// ErrInvalidCopies 无效的副本数
	ErrInvalidCopies = apperrors.New(apperrors.ErrCodeInvalidParams, "副本数不能为负数")

	// ErrInvalidTitle 书名或作者为空
	ErrInvalidTitle = apperrors.New(apperrors.ErrCodeInvalidParams, "书名和作者不能为空")

	// ErrBookInactive 图书已停用
	ErrBookInactive = apperrors.New(apperrors.ErrCodeBookInactive, "图书已停用")
)

// CotaError 索书号各段的校验错误
type CotaError struct {
	Fields map[string]string
}

func (e *CotaError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "索书号不合法: " + strings.Join(parts, "; ")
}

// FieldErrors 字段→提示信息
func (e *CotaError) FieldErrors() map[string]string {
	return e.Fields
}

func (e *CotaError) Unwrap() error {
	return ErrInvalidCota
}
