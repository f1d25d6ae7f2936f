package book

import (
	"context"

	"github.com/xiebiao/library/internal/domain/analytics"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/pkg/logger"
	"github.com/xiebiao/library/pkg/metrics"
)

// PublishBookUseCase 图书编目上架用例
// 设计说明:
// 1. 应用层负责用例编排,编目规则(索书号、词表匹配)由领域服务负责
// 2. 输入输出使用DTO,与HTTP层解耦
// 3. 上架成功记录一条add事件
type PublishBookUseCase struct {
	bookService book.Service
	recorder    analytics.Recorder
}

// NewPublishBookUseCase 创建上架用例
func NewPublishBookUseCase(bookService book.Service, recorder analytics.Recorder) *PublishBookUseCase {
	return &PublishBookUseCase{
		bookService: bookService,
		recorder:    recorder,
	}
}

// PublishBookRequest 上架请求DTO
type PublishBookRequest struct {
	CotaParts       []string // 索书号各段,前两段为分类代码
	Title           string
	Subtitle        string
	Author          string
	CoAuthor        string
	Publisher       string
	PublicationYear int
	Edition         int
	Copies          int  // 馆藏副本数
	CreatedBy       uint // 编目人用户ID(从认证中间件获取)
}

// Execute 执行上架用例
func (uc *PublishBookUseCase) Execute(ctx context.Context, req PublishBookRequest) (*BookDetail, error) {
	b, err := uc.bookService.PublishBook(ctx, book.PublishParams{
		CotaParts:       req.CotaParts,
		Title:           req.Title,
		Subtitle:        req.Subtitle,
		Author:          req.Author,
		CoAuthor:        req.CoAuthor,
		Publisher:       req.Publisher,
		PublicationYear: req.PublicationYear,
		Edition:         req.Edition,
		Copies:          req.Copies,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	metrics.IncCounter(metrics.BooksPublishedTotal)
	if uc.recorder != nil {
		uc.recorder.Record(ctx, analytics.EventAdd, req.CreatedBy, b.ID)
	}
	logger.FromContext(ctx).InfoContext(ctx, "图书已上架", "book_id", b.ID, "cota", b.Cota, "copies", b.Copies)

	// 新书没有借阅记录
	return newBookDetail(b, b.Copies, 0), nil
}
