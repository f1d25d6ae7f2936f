package loan

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrLoanNotFound 借阅记录不存在
	ErrLoanNotFound = apperrors.New(apperrors.ErrCodeLoanNotFound, "借阅记录不存在")

	// ErrLoanAlreadyReturned 借阅已归还
	ErrLoanAlreadyReturned = apperrors.New(apperrors.ErrCodeLoanAlreadyReturned, "该借阅已归还")

	// ErrInvalidLoanStatus 借阅状态非法
	ErrInvalidLoanStatus = apperrors.New(apperrors.ErrCodeBusinessError, "借阅状态不允许此操作")

	// ErrNotAllowedToReturn 非办理人且非管理员
	ErrNotAllowedToReturn = apperrors.New(apperrors.ErrCodeForbidden, "无权归还此借阅")

	// ErrNoAvailability 无可借副本
	ErrNoAvailability = apperrors.New(apperrors.ErrCodeNoAvailability, "该图书暂无可借副本")

	// ErrEmptyCart 待借清单为空
	ErrEmptyCart = apperrors.New(apperrors.ErrCodeEmptyCart, "待借清单为空")
)

// 单本图书借出失败原因
const (
	ReasonNoStock  = "no_stock"
	ReasonNotFound = "not_found"
)
