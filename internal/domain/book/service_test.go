package book

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/dictionary"
)

// memRepo 内存版图书仓储
type memRepo struct {
	books  map[uint]*Book
	nextID uint
}

func newMemRepo() *memRepo {
	return &memRepo{books: make(map[uint]*Book), nextID: 1}
}

func (r *memRepo) Create(_ context.Context, b *Book) error {
	b.ID = r.nextID
	r.nextID++
	cp := *b
	r.books[b.ID] = &cp
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id uint) (*Book, error) {
	b, ok := r.books[id]
	if !ok {
		return nil, ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) FindByCota(_ context.Context, cota string) (*Book, error) {
	for _, b := range r.books {
		if b.Cota == cota {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrBookNotFound
}

func (r *memRepo) FindByIDs(_ context.Context, ids []uint) ([]*Book, error) {
	var out []*Book
	for _, id := range ids {
		if b, ok := r.books[id]; ok {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) Update(_ context.Context, b *Book) error {
	cp := *b
	r.books[b.ID] = &cp
	return nil
}

func (r *memRepo) List(_ context.Context, _ ListParams) ([]*Book, int64, error) {
	return nil, 0, nil
}

func (r *memRepo) LockByID(ctx context.Context, id uint) (*Book, error) {
	return r.FindByID(ctx, id)
}

// memDict 内存版词表
type memDict struct {
	entries []*dictionary.Entry
	classes map[string]*dictionary.Classification
}

func (d *memDict) MatchCode(_ context.Context, code string) (*dictionary.Entry, error) {
	for _, e := range d.entries {
		if strings.EqualFold(e.Code, code) {
			return e, nil
		}
	}
	for _, e := range d.entries {
		if strings.HasPrefix(strings.ToUpper(e.Code), code) {
			return e, nil
		}
	}
	return nil, dictionary.ErrEntryNotFound
}

func (d *memDict) GetOrCreateClassification(_ context.Context, code, label string) (*dictionary.Classification, error) {
	if c, ok := d.classes[code]; ok {
		if c.Label == "" {
			c.Label = label
		}
		return c, nil
	}
	c := &dictionary.Classification{ID: uint(len(d.classes) + 1), Code: code, Label: label}
	d.classes[code] = c
	return c, nil
}

func (d *memDict) Search(context.Context, dictionary.SearchParams) ([]*dictionary.Entry, int64, error) {
	return nil, 0, nil
}

func (d *memDict) AutocompleteCodes(context.Context, string, int) ([]string, error) {
	return nil, nil
}

func newTestService() (Service, *memRepo, *memDict) {
	repo := newMemRepo()
	dict := &memDict{
		entries: []*dictionary.Entry{
			{ID: 10, Code: "WG 120", Classification: "WG-Sistema cardiovascular", IsActive: true},
		},
		classes: map[string]*dictionary.Classification{},
	}
	return NewService(repo, dict), repo, dict
}

func TestComposeCota(t *testing.T) {
	assert.Equal(t, "WG 120 M 45", ComposeCota(" wg ", "120", "m", " 45"))
	assert.Equal(t, "WG 120", ComposeCota("wg", "120", "", "  "))
	assert.Equal(t, "QS 4 A", NormalizeCota("  qs   4  a "))
	assert.Equal(t, "WG 120", DictionaryCode("wg", " 120 ", "m"))
	assert.Equal(t, "", DictionaryCode("wg", ""))
	assert.Equal(t, "", DictionaryCode("wg"))
}

func TestValidateCotaParts(t *testing.T) {
	assert.NoError(t, ValidateCotaParts("wg", "120", "m", "45"))
	assert.NoError(t, ValidateCotaParts("W G", "120.5", "Ñandu", "12 34"))
	assert.NoError(t, ValidateCotaParts("WG", "120", "abcde", "1234567890"))

	cases := []struct {
		name  string
		parts []string
		field string
	}{
		{"第1段为空", []string{" ", "120", "M", "45"}, FieldCota1},
		{"第1段含数字", []string{"W1", "120", "M", "45"}, FieldCota1},
		{"第2段为空", []string{"WG", "", "M", "45"}, FieldCota2},
		{"第3段为空", []string{"WG", "120", "", "45"}, FieldCota3},
		{"第3段含数字", []string{"WG", "120", "M1", "45"}, FieldCota3},
		{"第3段超过5个字母", []string{"WG", "120", "abcdef", "45"}, FieldCota3},
		{"第3段含空格", []string{"WG", "120", "A B", "45"}, FieldCota3},
		{"第4段为空", []string{"WG", "120", "M", ""}, FieldCota4},
		{"第4段含字母", []string{"WG", "120", "M", "4a"}, FieldCota4},
		{"第4段超过10位", []string{"WG", "120", "M", "12345678901"}, FieldCota4},
		{"缺少后两段", []string{"WG", "120"}, FieldCota3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCotaParts(tc.parts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCota)

			var ce *CotaError
			require.ErrorAs(t, err, &ce)
			assert.Contains(t, ce.FieldErrors(), tc.field)
		})
	}

	var ce *CotaError
	require.ErrorAs(t, ValidateCotaParts("", "", "", ""), &ce)
	assert.Len(t, ce.Fields, 4, "所有段的错误一次性返回")

	require.ErrorAs(t, ValidateCotaParts("WG", "120", "M", "45", "X"), &ce)
	assert.Contains(t, ce.Fields, "cota")
}

func TestPublishBook(t *testing.T) {
	svc, _, dict := newTestService()
	ctx := context.Background()

	b, err := svc.PublishBook(ctx, PublishParams{
		CotaParts: []string{"wg", "120", "m", "45"},
		Title:     "Cardiología básica",
		Author:    "Martínez",
		Copies:    2,
		CreatedBy: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "WG 120 M 45", b.Cota)
	assert.True(t, b.IsActive)
	require.NotNil(t, b.DictionaryEntryID)
	assert.Equal(t, uint(10), *b.DictionaryEntryID)
	require.NotNil(t, b.ClassificationID)
	assert.Equal(t, "Sistema cardiovascular", dict.classes["WG"].Label)
}

func TestPublishBookRules(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	base := PublishParams{CotaParts: []string{"WG", "120", "A", "1"}, Title: "T", Author: "A", Copies: 1}

	_, err := svc.PublishBook(ctx, base)
	require.NoError(t, err)

	_, err = svc.PublishBook(ctx, base)
	assert.ErrorIs(t, err, ErrCotaDuplicate)

	p := base
	p.Copies = -1
	_, err = svc.PublishBook(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidCopies)

	p = base
	p.Title = "  "
	_, err = svc.PublishBook(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidTitle)

	p = base
	p.CotaParts = []string{"WG"}
	_, err = svc.PublishBook(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidCota)

	p = base
	p.CotaParts = []string{"WG", "120", "T12", "1"}
	_, err = svc.PublishBook(ctx, p)
	assert.ErrorIs(t, err, ErrInvalidCota, "著者字母不能含数字")

	p = base
	p.CotaParts = []string{"ZZ", "9", "B", "2"}
	_, err = svc.PublishBook(ctx, p)
	assert.ErrorIs(t, err, dictionary.ErrEntryNotFound)
}

func TestSetActiveAndGetBooksByIDs(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	for i, cutter := range []string{"A", "B", "C"} {
		_, err := svc.PublishBook(ctx, PublishParams{
			CotaParts: []string{"WG", "120", cutter, "1"}, Title: "T", Author: "A", Copies: i,
		})
		require.NoError(t, err)
	}

	b, err := svc.SetActive(ctx, 2, false)
	require.NoError(t, err)
	assert.False(t, b.IsActive)
	assert.False(t, repo.books[2].IsActive)

	books, err := svc.GetBooksByIDs(ctx, []uint{3, 99, 1})
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, uint(3), books[0].ID)
	assert.Equal(t, uint(1), books[1].ID)
}
