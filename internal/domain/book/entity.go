package book

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Cota(索书号)是业务唯一标识,始终以大写、单空格分隔的形式保存
// 2. Copies是馆藏副本总数,由编目维护;借阅流程只读取不修改
// 3. 停用的图书保留在目录中,不能再加入待借清单
// 4. DictionaryEntryID/ClassificationID由索书号前缀匹配词表后自动关联
type Book struct {
	ID                uint
	Cota              string // 索书号
	Title             string // 书名
	Subtitle          string // 副标题
	Author            string // 作者
	CoAuthor          string // 合著者
	Publisher         string // 出版社
	PublicationYear   int    // 出版年份,0表示未知
	Edition           int    // 版次
	Copies            int    // 馆藏副本总数
	IsActive          bool
	ClassificationID  *uint
	DictionaryEntryID *uint
	CreatedBy         uint // 编目人用户ID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewBook 创建新图书(工厂方法)
// cota需调用方先通过ComposeCota规范化
func NewBook(cota, title, author string, copies int, createdBy uint) *Book {
	now := time.Now()
	return &Book{
		Cota:      cota,
		Title:     title,
		Author:    author,
		Edition:   1,
		Copies:    copies,
		IsActive:  true,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetCopies 更新副本总数
// 业务规则:副本数不能为负数
func (b *Book) SetCopies(copies int) error {
	if copies < 0 {
		return ErrInvalidCopies
	}
	b.Copies = copies
	b.UpdatedAt = time.Now()
	return nil
}

// SetActive 启用/停用图书(不删除)
func (b *Book) SetActive(active bool) {
	b.IsActive = active
	b.UpdatedAt = time.Now()
}

// LinkDictionary 关联词条与分类
func (b *Book) LinkDictionary(entryID, classificationID uint) {
	b.DictionaryEntryID = &entryID
	if classificationID != 0 {
		b.ClassificationID = &classificationID
	}
}

// =========================================
// 索书号规则
// =========================================
// 索书号由4段组成,缺一不可:
// - 第1段:分类字母,只能是字母(允许中间空格)
// - 第2段:分类号,与第1段一起对应词表中的词条代码(如"WG 120")
// - 第3段:著者字母,只能是字母,最多5个
// - 第4段:著者号,只能是数字(允许中间空格),最多10个字符

// 索书号各段的字段名,与HTTP表单字段保持一致
const (
	FieldCota1 = "cota_1"
	FieldCota2 = "cota_2"
	FieldCota3 = "cota_3"
	FieldCota4 = "cota_4"
)

const (
	maxCutterLetters = 5
	maxCutterNumber  = 10
)

// ValidateCotaParts 校验编目时输入的4段索书号
// 所有段的错误一次性返回
func ValidateCotaParts(parts ...string) error {
	if len(parts) > 4 {
		return &CotaError{Fields: map[string]string{"cota": "索书号最多4段"}}
	}
	p := make([]string, 4)
	for i, v := range parts {
		p[i] = strings.TrimSpace(v)
	}

	fields := make(map[string]string)
	switch {
	case p[0] == "":
		fields[FieldCota1] = "第1段不能为空"
	case !allRunes(strings.ReplaceAll(p[0], " ", ""), unicode.IsLetter):
		fields[FieldCota1] = "第1段只能包含字母"
	}
	if p[1] == "" {
		fields[FieldCota2] = "第2段不能为空"
	}
	switch {
	case p[2] == "":
		fields[FieldCota3] = "第3段不能为空"
	case !allRunes(p[2], unicode.IsLetter) || utf8.RuneCountInString(p[2]) > maxCutterLetters:
		fields[FieldCota3] = "第3段只能包含字母,最多5个"
	}
	switch {
	case p[3] == "":
		fields[FieldCota4] = "第4段不能为空"
	case !allRunes(strings.ReplaceAll(p[3], " ", ""), unicode.IsDigit) || utf8.RuneCountInString(p[3]) > maxCutterNumber:
		fields[FieldCota4] = "第4段只能包含数字,最多10个"
	}

	if len(fields) == 0 {
		return nil
	}
	return &CotaError{Fields: fields}
}

func allRunes(s string, ok func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !ok(r) {
			return false
		}
	}
	return true
}

// ComposeCota 拼接索书号
// 每段压缩空白并转大写,空段跳过,段之间用单个空格连接
func ComposeCota(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if norm := normalizePart(p); norm != "" {
			out = append(out, norm)
		}
	}
	return strings.Join(out, " ")
}

// NormalizeCota 规范化完整索书号
func NormalizeCota(cota string) string {
	return normalizePart(cota)
}

// DictionaryCode 取前两段作为词表代码,前两段任一为空时返回空串
func DictionaryCode(parts ...string) string {
	if len(parts) < 2 {
		return ""
	}
	p1, p2 := normalizePart(parts[0]), normalizePart(parts[1])
	if p1 == "" || p2 == "" {
		return ""
	}
	return p1 + " " + p2
}

func normalizePart(p string) string {
	return strings.ToUpper(strings.Join(strings.Fields(p), " "))
}
