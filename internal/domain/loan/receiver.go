package loan

import (
	"sort"
	"strings"

	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借书人字段名,与HTTP表单字段保持一致
const (
	FieldCedula    = "receiver_cedula"
	FieldFirstName = "receiver_first_name"
	FieldLastName  = "receiver_last_name"
)

// Receiver 借书人(外部人员)身份信息
type Receiver struct {
	Cedula    string // 证件号,只能包含数字
	FirstName string
	LastName  string
}

// NewReceiver 去除首尾空白后构造借书人
func NewReceiver(cedula, firstName, lastName string) Receiver {
	return Receiver{
		Cedula:    strings.TrimSpace(cedula),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
	}
}

// FullName 姓名
func (r Receiver) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Validate 校验借书人信息
// 所有字段错误一次性返回,便于前端逐项提示
func (r Receiver) Validate() error {
	fields := make(map[string]string)

	switch {
	case r.Cedula == "":
		fields[FieldCedula] = "证件号不能为空"
	case !isDigits(r.Cedula):
		fields[FieldCedula] = "证件号只能包含数字"
	}
	if r.FirstName == "" {
		fields[FieldFirstName] = "名不能为空"
	}
	if r.LastName == "" {
		fields[FieldLastName] = "姓不能为空"
	}

	if len(fields) == 0 {
		return nil
	}
	return &ReceiverError{Fields: fields}
}

// ReceiverError 借书人信息校验错误
// 通过Unwrap暴露统一的AppError,response层可直接识别错误码
type ReceiverError struct {
	Fields map[string]string
}

func (e *ReceiverError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "借书人信息不合法: " + strings.Join(parts, "; ")
}

// FieldErrors 字段→提示信息
func (e *ReceiverError) FieldErrors() map[string]string {
	return e.Fields
}

func (e *ReceiverError) Unwrap() error {
	return ErrInvalidReceiver
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// ErrInvalidReceiver 借书人信息不合法
var ErrInvalidReceiver = apperrors.New(apperrors.ErrCodeInvalidReceiver, "借书人信息不合法")
