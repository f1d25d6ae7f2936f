package mysql

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/library/internal/domain/dictionary"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

const maxAutocomplete = 50

type dictionaryRepository struct {
	db *gorm.DB
}

// NewDictionaryRepository 创建词表仓储
func NewDictionaryRepository(db *gorm.DB) dictionary.Repository {
	return &dictionaryRepository{db: db}
}

// MatchCode 按代码匹配词条
// 依次尝试完全相等、前缀、包含,每一步取代码最短的一条
func (r *dictionaryRepository) MatchCode(ctx context.Context, code string) (*dictionary.Entry, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, dictionary.ErrEntryNotFound
	}

	escaped := escapeLike(code)
	attempts := []struct {
		cond string
		arg  string
	}{
		{"UPPER(code) = ?", code},
		{"UPPER(code) LIKE ?", escaped + "%"},
		{"UPPER(code) LIKE ?", "%" + escaped + "%"},
	}

	for _, a := range attempts {
		var model DictionaryEntryModel
		err := conn(ctx, r.db).Where(a.cond, a.arg).
			Order("CHAR_LENGTH(code) ASC").Order("code ASC").
			First(&model).Error
		if err == nil {
			return toEntryEntity(&model), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(err, "匹配词条失败")
		}
	}
	return nil, dictionary.ErrEntryNotFound
}

// GetOrCreateClassification 按代码获取分类,不存在则创建
func (r *dictionaryRepository) GetOrCreateClassification(ctx context.Context, code, label string) (*dictionary.Classification, error) {
	model := ClassificationModel{Code: code, Label: label}

	// INSERT ... ON DUPLICATE KEY UPDATE id=id,保证并发编目时只有一行
	err := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "创建分类失败")
	}

	var existing ClassificationModel
	if err := conn(ctx, r.db).Where("code = ?", code).First(&existing).Error; err != nil {
		return nil, apperrors.Wrap(err, "查询分类失败")
	}

	// 已存在但名称为空时补齐
	if existing.Label == "" && label != "" {
		if err := conn(ctx, r.db).Model(&existing).Update("label", label).Error; err != nil {
			return nil, apperrors.Wrap(err, "更新分类名称失败")
		}
		existing.Label = label
	}

	return &dictionary.Classification{ID: existing.ID, Code: existing.Code, Label: existing.Label}, nil
}

// Search 分页搜索启用的词条
func (r *dictionaryRepository) Search(ctx context.Context, params dictionary.SearchParams) ([]*dictionary.Entry, int64, error) {
	query := conn(ctx, r.db).Model(&DictionaryEntryModel{}).Where("is_active = ?", true)

	if kw := strings.TrimSpace(params.Keyword); kw != "" {
		p := likePattern(kw)
		query = query.Where("code LIKE ? OR description LIKE ? OR description_en LIKE ?", p, p, p)
	}
	if cls := strings.TrimSpace(params.Classification); cls != "" {
		query = query.Where("classification LIKE ?", likePattern(cls))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询词条总数失败")
	}

	var models []DictionaryEntryModel
	if err := paginate(query.Order("code ASC"), params.Page, params.PageSize).Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询词条失败")
	}

	entries := make([]*dictionary.Entry, len(models))
	for i := range models {
		entries[i] = toEntryEntity(&models[i])
	}
	return entries, total, nil
}

// AutocompleteCodes 代码自动补全(前缀匹配)
func (r *dictionaryRepository) AutocompleteCodes(ctx context.Context, term string, limit int) ([]string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []string{}, nil
	}
	if limit <= 0 || limit > maxAutocomplete {
		limit = maxAutocomplete
	}

	codes := make([]string, 0, limit)
	err := conn(ctx, r.db).Model(&DictionaryEntryModel{}).
		Where("is_active = ? AND code LIKE ?", true, escapeLike(term)+"%").
		Order("code ASC").
		Limit(limit).
		Pluck("code", &codes).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询词条代码失败")
	}
	return codes, nil
}

func toEntryEntity(m *DictionaryEntryModel) *dictionary.Entry {
	return &dictionary.Entry{
		ID:             m.ID,
		Code:           m.Code,
		Description:    m.Description,
		DescriptionEN:  m.DescriptionEN,
		Classification: m.Classification,
		IsActive:       m.IsActive,
	}
}
