package book

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/domain/analytics"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/dictionary"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.InitMetrics()
	os.Exit(m.Run())
}

// fakeService 内存版图书领域服务
type fakeService struct {
	books     map[uint]*book.Book
	lastList  book.ListParams
	published book.PublishParams
}

func newFakeService(books ...*book.Book) *fakeService {
	s := &fakeService{books: make(map[uint]*book.Book)}
	for _, b := range books {
		s.books[b.ID] = b
	}
	return s
}

func (s *fakeService) PublishBook(_ context.Context, p book.PublishParams) (*book.Book, error) {
	if p.Title == "" {
		return nil, book.ErrInvalidTitle
	}
	s.published = p
	b := book.NewBook(book.ComposeCota(p.CotaParts...), p.Title, p.Author, p.Copies, p.CreatedBy)
	b.ID = uint(len(s.books) + 1)
	s.books[b.ID] = b
	return b, nil
}

func (s *fakeService) GetBookByID(_ context.Context, id uint) (*book.Book, error) {
	if b, ok := s.books[id]; ok {
		return b, nil
	}
	return nil, book.ErrBookNotFound
}

func (s *fakeService) GetBooksByIDs(context.Context, []uint) ([]*book.Book, error) {
	return nil, nil
}

func (s *fakeService) ListBooks(_ context.Context, p book.ListParams) ([]*book.Book, int64, error) {
	s.lastList = p
	out := make([]*book.Book, 0, len(s.books))
	for id := uint(1); id <= uint(len(s.books)); id++ {
		if b, ok := s.books[id]; ok {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeService) SetActive(ctx context.Context, id uint, active bool) (*book.Book, error) {
	b, err := s.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.SetActive(active)
	return b, nil
}

// fakeLoans 只提供借出中数量
type fakeLoans struct {
	loan.Repository
	onLoan map[uint]int
}

func (f fakeLoans) SumActiveByBooks(_ context.Context, ids []uint) (map[uint]int, error) {
	out := make(map[uint]int)
	for _, id := range ids {
		if n, ok := f.onLoan[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func newBook(id uint, copies int) *book.Book {
	b := book.NewBook("WG 120 M "+string(rune('0'+id)), "Libro", "Autor", copies, 1)
	b.ID = id
	return b
}

func TestListBooksWithAvailability(t *testing.T) {
	svc := newFakeService(newBook(1, 3), newBook(2, 1))
	avail := apploan.NewAvailabilityService(nil, fakeLoans{onLoan: map[uint]int{1: 2, 2: 1}})
	uc := NewListBooksUseCase(svc, avail)

	resp, err := uc.Execute(context.Background(), ListBooksRequest{PageSize: 1000, Keyword: "libro", OnlyActive: true})
	require.NoError(t, err)

	assert.Equal(t, 100, svc.lastList.PageSize)
	assert.Equal(t, 1, svc.lastList.Page)
	assert.True(t, svc.lastList.OnlyActive)
	require.Len(t, resp.List, 2)
	assert.Equal(t, 1, resp.List[0].Available)
	assert.Equal(t, 2, resp.List[0].OnLoan)
	assert.Equal(t, 0, resp.List[1].Available)
	assert.Equal(t, 1, resp.TotalPages)
}

// recorded 一条访问事件
type recorded struct {
	Type   analytics.EventType
	UserID uint
	BookID uint
}

type fakeRecorder struct {
	events []recorded
}

func (r *fakeRecorder) Record(_ context.Context, t analytics.EventType, userID, bookID uint) {
	r.events = append(r.events, recorded{Type: t, UserID: userID, BookID: bookID})
}

func TestGetBook(t *testing.T) {
	svc := newFakeService(newBook(1, 2))
	rec := &fakeRecorder{}
	uc := NewGetBookUseCase(svc, apploan.NewAvailabilityService(nil, fakeLoans{onLoan: map[uint]int{1: 1}}), rec)

	got, err := uc.Execute(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Available)

	_, err = uc.Execute(context.Background(), 1, 5)
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), 9, 5)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	assert.Equal(t, []recorded{
		{Type: analytics.EventView, UserID: 0, BookID: 1},
		{Type: analytics.EventView, UserID: 5, BookID: 1},
	}, rec.events, "不存在的图书不记录浏览")
}

func TestGetBookWithoutRecorder(t *testing.T) {
	svc := newFakeService(newBook(1, 2))
	uc := NewGetBookUseCase(svc, apploan.NewAvailabilityService(nil, fakeLoans{}), nil)

	got, err := uc.Execute(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Available)
}

func TestSetActive(t *testing.T) {
	svc := newFakeService(newBook(1, 2))
	uc := NewSetActiveUseCase(svc, apploan.NewAvailabilityService(nil, fakeLoans{}))

	got, err := uc.Execute(context.Background(), 1, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 2, got.Available, "停用不影响可借数量的计算")
}

func TestPublishBook(t *testing.T) {
	svc := newFakeService()
	rec := &fakeRecorder{}
	uc := NewPublishBookUseCase(svc, rec)

	got, err := uc.Execute(context.Background(), PublishBookRequest{
		CotaParts: []string{"wg", "120", "m", "45"},
		Title:     "Fisiología",
		Author:    "Guyton",
		Copies:    4,
		CreatedBy: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "WG 120 M 45", got.Cota)
	assert.Equal(t, 4, got.Available)
	assert.EqualValues(t, 7, svc.published.CreatedBy)

	_, err = uc.Execute(context.Background(), PublishBookRequest{})
	assert.ErrorIs(t, err, book.ErrInvalidTitle)

	assert.Equal(t, []recorded{{Type: analytics.EventAdd, UserID: 7, BookID: got.ID}}, rec.events)
}

// fakeDict 记录查询参数
type fakeDict struct {
	dictionary.Repository
	params dictionary.SearchParams
	limit  int
}

func (d *fakeDict) Search(_ context.Context, p dictionary.SearchParams) ([]*dictionary.Entry, int64, error) {
	d.params = p
	return []*dictionary.Entry{{ID: 1, Code: "WG 120", Description: "Corazón"}}, 1, nil
}

func (d *fakeDict) AutocompleteCodes(_ context.Context, term string, limit int) ([]string, error) {
	d.limit = limit
	return []string{term + " 1"}, nil
}

func TestDictionarySearch(t *testing.T) {
	d := &fakeDict{}
	uc := NewDictionaryUseCase(d)

	got, err := uc.Search(context.Background(), dictionary.SearchParams{Keyword: " cor ", PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, "cor", d.params.Keyword)
	assert.Equal(t, 20, got.PageSize)
	assert.Equal(t, "WG 120", got.List[0].Code)
}

func TestDictionaryAutocomplete(t *testing.T) {
	d := &fakeDict{}
	uc := NewDictionaryUseCase(d)

	codes, err := uc.Autocomplete(context.Background(), "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, codes)

	codes, err = uc.Autocomplete(context.Background(), "WG", 500)
	require.NoError(t, err)
	assert.Equal(t, []string{"WG 1"}, codes)
	assert.Equal(t, autocompleteLimit, d.limit)
}
