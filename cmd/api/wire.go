//go:build wireinject
// +build wireinject

// Wire依赖注入配置
//
// main.go中手动组装的依赖图与这里的Provider一一对应。
// 运行 `wire gen ./cmd/api` 生成wire_gen.go后，可用InitializeApp替换手动组装。

package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	goredis "github.com/redis/go-redis/v9"

	appanalytics "github.com/xiebiao/library/internal/application/analytics"
	appbook "github.com/xiebiao/library/internal/application/book"
	apploan "github.com/xiebiao/library/internal/application/loan"
	appreport "github.com/xiebiao/library/internal/application/report"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/analytics"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/cart"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/report"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/jwt"
)

// infrastructureSet 基础设施层依赖
// 包含：数据库连接、Redis连接、借阅事件发布者
var infrastructureSet = wire.NewSet(
	mysql.NewDB,
	redis.NewClient,
	provideEventPublisher,
)

// repositorySet 仓储层依赖
var repositorySet = wire.NewSet(
	mysql.NewUserRepository,
	mysql.NewBookRepository,
	mysql.NewDictionaryRepository,
	mysql.NewLoanRepository,
	mysql.NewReportRepository,
	mysql.NewAnalyticsRepository,
	mysql.NewTxManager,
	wire.Bind(new(loan.TxManager), new(*mysql.TxManager)),
	redis.NewSessionStore,
	wire.Bind(new(appuser.SessionStore), new(*redis.SessionStore)),
	wire.Bind(new(middleware.Blacklist), new(*redis.SessionStore)),
	provideCartStore,
)

// domainSet 领域层依赖
var domainSet = wire.NewSet(
	user.NewService,
	book.NewService,
)

// applicationSet 应用层依赖
// 分页默认值、会话有效期等从配置提取，由自定义Provider处理
var applicationSet = wire.NewSet(
	appuser.NewRegisterUseCase,
	provideLoginUseCase,
	appuser.NewLogoutUseCase,
	appuser.NewRefreshTokenUseCase,
	appbook.NewPublishBookUseCase,
	appbook.NewListBooksUseCase,
	appbook.NewGetBookUseCase,
	appbook.NewSetActiveUseCase,
	appbook.NewDictionaryUseCase,
	apploan.NewAvailabilityService,
	apploan.NewCartUseCase,
	apploan.NewCheckoutUseCase,
	apploan.NewReturnLoanUseCase,
	provideListLoansUseCase,
	provideReportUseCase,
	appanalytics.NewEventRecorder,
	wire.Bind(new(analytics.Recorder), new(*appanalytics.EventRecorder)),
	appanalytics.NewDashboardUseCase,
)

// middlewareSet 中间件依赖
var middlewareSet = wire.NewSet(
	provideJWTManager,
	middleware.NewAuthMiddleware,
)

// handlerSet HTTP处理器依赖
var handlerSet = wire.NewSet(
	handler.NewUserHandler,
	handler.NewBookHandler,
	handler.NewDictionaryHandler,
	handler.NewCartHandler,
	handler.NewLoanHandler,
	handler.NewReportHandler,
	handler.NewDashboardHandler,
	wire.Struct(new(handlers), "*"),
)

func provideCartStore(client *goredis.Client, cfg *config.Config) cart.Store {
	return redis.NewCartStore(client, cfg.Loan.CartTTL)
}

func provideLoginUseCase(
	userService user.Service,
	jwtManager *jwt.Manager,
	store appuser.SessionStore,
	recorder analytics.Recorder,
	cfg *config.Config,
) *appuser.LoginUseCase {
	return appuser.NewLoginUseCase(userService, jwtManager, store, cfg.JWT.RefreshTokenExpire, recorder)
}

func provideListLoansUseCase(loanRepo loan.Repository, bookRepo book.Repository, cfg *config.Config) *apploan.ListLoansUseCase {
	return apploan.NewListLoansUseCase(loanRepo, bookRepo, cfg.Loan.DefaultPageSize)
}

func provideReportUseCase(repo report.Repository, bookRepo book.Repository, cfg *config.Config) *appreport.UseCase {
	return appreport.NewUseCase(repo, bookRepo, cfg.Loan.DefaultPageSize)
}

// provideEventPublisher 包装newEventPublisher为Wire的cleanup形式
func provideEventPublisher(cfg *config.Config) (loan.EventPublisher, func(), error) {
	return newEventPublisher(cfg)
}

// InitializeApp 初始化整个应用
// 返回配置好的Gin引擎与释放资源的cleanup
func InitializeApp(ctx context.Context, cfg *config.Config) (*gin.Engine, func(), error) {
	wire.Build(
		infrastructureSet,
		repositorySet,
		domainSet,
		applicationSet,
		middlewareSet,
		handlerSet,
		newRouter,
	)
	return nil, nil, nil
}
