package loan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/cart"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.InitMetrics()
	os.Exit(m.Run())
}

var errDeadlock = errors.New("Error 1213: Deadlock found when trying to get lock")

// memDB 内存版数据库
// 1. 行锁在事务结束时释放,事务内创建/修改的借阅在提交时才对其他事务可见
// 2. 事务内的普通读取按InnoDB一致性读处理:第一次读取时建立快照,之后都读快照
// 3. SumActiveByBook是当前读,总是读取最新提交的数据
type memDB struct {
	mu       sync.Mutex
	books    map[uint]*book.Book
	loans    map[uint]*loan.Loan
	nextLoan uint
	rowLocks map[string]*sync.Mutex

	beforeLock func(ctx context.Context, key string) // 加锁前回调,用于编排并发顺序

	failOnCreate int // 第N次Create返回errDeadlock,0表示不失败
	creates      int
	lastList     loan.ListParams
}

func newMemDB() *memDB {
	return &memDB{
		books:    make(map[uint]*book.Book),
		loans:    make(map[uint]*loan.Loan),
		rowLocks: make(map[string]*sync.Mutex),
	}
}

func (db *memDB) addBook(id uint, copies int, active bool) *book.Book {
	db.mu.Lock()
	defer db.mu.Unlock()
	b := book.NewBook(fmt.Sprintf("WG %d A 1", id), fmt.Sprintf("Book %d", id), "Author", copies, 1)
	b.ID = id
	b.IsActive = active
	db.books[id] = b
	return b
}

func (db *memDB) loanCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.loans)
}

func (db *memDB) committedLoan(id uint) *loan.Loan {
	db.mu.Lock()
	defer db.mu.Unlock()
	l, ok := db.loans[id]
	if !ok {
		return nil
	}
	cp := *l
	return &cp
}

func (db *memDB) rowLock(key string) *sync.Mutex {
	db.mu.Lock()
	defer db.mu.Unlock()
	m, ok := db.rowLocks[key]
	if !ok {
		m = &sync.Mutex{}
		db.rowLocks[key] = m
	}
	return m
}

// lock 模拟SELECT FOR UPDATE,事务外调用不加锁
func (db *memDB) lock(ctx context.Context, key string) {
	tx := txFrom(ctx)
	if tx == nil || tx.held[key] {
		return
	}
	if db.beforeLock != nil {
		db.beforeLock(ctx, key)
	}
	m := db.rowLock(key)
	m.Lock()
	tx.held[key] = true
	tx.locks = append(tx.locks, m)
}

type txKey struct{}

type memTx struct {
	held     map[string]bool
	locks    []*sync.Mutex
	created  []*loan.Loan
	updated  []*loan.Loan
	snapshot map[uint]*loan.Loan // 一致性读快照,nil表示尚未建立
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(txKey{}).(*memTx)
	return tx
}

type memTxManager struct {
	db *memDB
}

func (m memTxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx := &memTx{held: make(map[string]bool)}
	err := fn(context.WithValue(ctx, txKey{}, tx))
	if err == nil {
		m.db.mu.Lock()
		for _, l := range tx.created {
			m.db.loans[l.ID] = l
		}
		for _, l := range tx.updated {
			m.db.loans[l.ID] = l
		}
		m.db.mu.Unlock()
	}
	for i := len(tx.locks) - 1; i >= 0; i-- {
		tx.locks[i].Unlock()
	}
	return err
}

// memBookRepo 内存图书仓储
type memBookRepo struct {
	db *memDB
}

func (r memBookRepo) Create(_ context.Context, b *book.Book) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b.ID = uint(len(r.db.books) + 1)
	cp := *b
	r.db.books[b.ID] = &cp
	return nil
}

func (r memBookRepo) FindByID(_ context.Context, id uint) (*book.Book, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	cp := *b
	return &cp, nil
}

func (r memBookRepo) FindByCota(_ context.Context, cota string) (*book.Book, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, b := range r.db.books {
		if b.Cota == cota {
			cp := *b
			return &cp, nil
		}
	}
	return nil, book.ErrBookNotFound
}

func (r memBookRepo) FindByIDs(_ context.Context, ids []uint) ([]*book.Book, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*book.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.db.books[id]; ok {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memBookRepo) Update(_ context.Context, b *book.Book) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *b
	r.db.books[b.ID] = &cp
	return nil
}

func (r memBookRepo) List(_ context.Context, _ book.ListParams) ([]*book.Book, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*book.Book, 0, len(r.db.books))
	for _, b := range r.db.books {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cota < out[j].Cota })
	return out, int64(len(out)), nil
}

func (r memBookRepo) LockByID(ctx context.Context, id uint) (*book.Book, error) {
	r.db.lock(ctx, fmt.Sprintf("book:%d", id))
	return r.FindByID(ctx, id)
}

// memLoanRepo 内存借阅仓储
type memLoanRepo struct {
	db *memDB
}

func (r memLoanRepo) Create(ctx context.Context, l *loan.Loan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.creates++
	if r.db.failOnCreate > 0 && r.db.creates == r.db.failOnCreate {
		return errDeadlock
	}
	r.db.nextLoan++
	l.ID = r.db.nextLoan
	cp := *l

	if tx := txFrom(ctx); tx != nil {
		tx.created = append(tx.created, &cp)
		return nil
	}
	r.db.loans[l.ID] = &cp
	return nil
}

func (r memLoanRepo) FindByID(_ context.Context, id uint) (*loan.Loan, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.loans[id]
	if !ok {
		return nil, loan.ErrLoanNotFound
	}
	cp := *l
	return &cp, nil
}

func (r memLoanRepo) LockByID(ctx context.Context, id uint) (*loan.Loan, error) {
	r.db.lock(ctx, fmt.Sprintf("loan:%d", id))
	return r.FindByID(ctx, id)
}

func (r memLoanRepo) Update(ctx context.Context, l *loan.Loan) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.loans[l.ID]; !ok {
		return loan.ErrLoanNotFound
	}
	cp := *l
	if tx := txFrom(ctx); tx != nil {
		tx.updated = append(tx.updated, &cp)
		return nil
	}
	r.db.loans[l.ID] = &cp
	return nil
}

func (r memLoanRepo) SumActiveByBook(ctx context.Context, bookID uint) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	sums := sumActive(r.db.loans, txFrom(ctx), []uint{bookID})
	return sums[bookID], nil
}

func (r memLoanRepo) SumActiveByBooks(ctx context.Context, bookIDs []uint) (map[uint]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	tx := txFrom(ctx)
	if tx == nil {
		return sumActive(r.db.loans, nil, bookIDs), nil
	}
	if tx.snapshot == nil {
		tx.snapshot = make(map[uint]*loan.Loan, len(r.db.loans))
		for id, l := range r.db.loans {
			cp := *l
			tx.snapshot[id] = &cp
		}
	}
	return sumActive(tx.snapshot, tx, bookIDs), nil
}

// sumActive 在committed之上叠加事务自己的修改后求和
func sumActive(committed map[uint]*loan.Loan, tx *memTx, bookIDs []uint) map[uint]int {
	rows := make(map[uint]*loan.Loan, len(committed))
	for id, l := range committed {
		rows[id] = l
	}
	if tx != nil {
		for _, l := range tx.updated {
			rows[l.ID] = l
		}
		for _, l := range tx.created {
			rows[l.ID] = l
		}
	}

	want := make(map[uint]bool, len(bookIDs))
	for _, id := range bookIDs {
		want[id] = true
	}
	sums := make(map[uint]int)
	for _, l := range rows {
		if want[l.BookID] && l.IsActive() {
			sums[l.BookID] += l.Quantity
		}
	}
	return sums
}

func (r memLoanRepo) List(_ context.Context, params loan.ListParams) ([]*loan.Loan, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.lastList = params

	var out []*loan.Loan
	for _, l := range r.db.loans {
		if params.Status != "" && l.Status != params.Status {
			continue
		}
		if params.HolderID != 0 && l.HolderID != params.HolderID {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

// memCartStore 内存待借清单
type memCartStore struct {
	mu   sync.Mutex
	data map[uint]cart.Selection
}

func newMemCartStore() *memCartStore {
	return &memCartStore{data: make(map[uint]cart.Selection)}
}

func (s *memCartStore) Load(_ context.Context, ownerID uint) (*cart.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel, ok := s.data[ownerID]
	if !ok {
		return cart.NewSelection(), nil
	}
	ids := make([]uint, len(sel.BookIDs))
	copy(ids, sel.BookIDs)
	return &cart.Selection{BookIDs: ids, AddedBy: sel.AddedBy}, nil
}

func (s *memCartStore) Save(_ context.Context, ownerID uint, sel *cart.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[ownerID] = cart.Selection{BookIDs: sel.Snapshot(), AddedBy: sel.AddedBy}
	return nil
}

func (s *memCartStore) Clear(_ context.Context, ownerID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, ownerID)
	return nil
}

// seed 直接写入清单(按给定顺序)
func (s *memCartStore) seed(ownerID uint, ids ...uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[ownerID] = cart.Selection{BookIDs: ids}
}

func (s *memCartStore) ids(ownerID uint) []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint{}, s.data[ownerID].BookIDs...)
}

// memPublisher 记录发布的事件
type memPublisher struct {
	mu     sync.Mutex
	err    error
	events []loan.Event
}

func (p *memPublisher) Publish(_ context.Context, evts ...loan.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return p.err
}

func (p *memPublisher) published() []loan.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]loan.Event{}, p.events...)
}

var (
	alice = loan.Actor{UserID: 1, Name: "alice"}
	bob   = loan.Actor{UserID: 2, Name: "bob"}
	staff = loan.Actor{UserID: 99, Name: "馆员", IsStaff: true}
)

type fixture struct {
	db     *memDB
	carts  *memCartStore
	events *memPublisher

	availability *AvailabilityService
	cart         *CartUseCase
	checkout     *CheckoutUseCase
	returns      *ReturnLoanUseCase
	list         *ListLoansUseCase
}

func newFixture() *fixture {
	db := newMemDB()
	books, loans := memBookRepo{db: db}, memLoanRepo{db: db}
	tx := memTxManager{db: db}
	carts := newMemCartStore()
	events := &memPublisher{}
	avail := NewAvailabilityService(books, loans)

	return &fixture{
		db:           db,
		carts:        carts,
		events:       events,
		availability: avail,
		cart:         NewCartUseCase(books, avail, carts),
		checkout:     NewCheckoutUseCase(tx, books, loans, carts, events),
		returns:      NewReturnLoanUseCase(tx, loans, avail, events),
		list:         NewListLoansUseCase(loans, books, 10),
	}
}

func validReceiver() CheckoutRequest {
	return CheckoutRequest{ReceiverCedula: "12345678", ReceiverFirstName: "Ana", ReceiverLastName: "Pérez"}
}
