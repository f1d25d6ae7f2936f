// @title           图书馆借阅服务 API
// @version         1.0
// @description     馆藏目录、待借清单、借出与归还、归还评价统计
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
// @description     格式：Bearer <access_token>
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"gorm.io/gorm"

	_ "github.com/xiebiao/library/docs"
	appanalytics "github.com/xiebiao/library/internal/application/analytics"
	appbook "github.com/xiebiao/library/internal/application/book"
	apploan "github.com/xiebiao/library/internal/application/loan"
	appreport "github.com/xiebiao/library/internal/application/report"
	appuser "github.com/xiebiao/library/internal/application/user"
	"github.com/xiebiao/library/internal/domain/book"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/user"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/events"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/circuitbreaker"
	"github.com/xiebiao/library/pkg/jwt"
	"github.com/xiebiao/library/pkg/logger"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/mq"
	"github.com/xiebiao/library/pkg/tracing"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "配置文件路径（默认config/config.yaml）")
	pflag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("服务异常退出", "error", err)
		os.Exit(1)
	}
}

// run 启动流程
// 1. 加载配置、初始化日志
// 2. 初始化链路追踪与指标
// 3. 连接MySQL、Redis，按配置连接RabbitMQ
// 4. 依赖注入：Repository ← Service ← UseCase ← Handler
// 5. 启动HTTP服务，收到SIGINT/SIGTERM后优雅退出
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 配置与日志
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	log, closer, err := logger.New(logger.Config{
		Level:        cfg.Log.Level,
		Format:       cfg.Log.Format,
		Output:       cfg.Log.Output,
		EnableCaller: cfg.Log.EnableCaller,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(log)
	slog.Info("配置加载成功",
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"database", fmt.Sprintf("%s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName),
		"redis", cfg.Redis.Addr(),
	)

	// 2. 链路追踪与指标
	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Init(ctx, tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
			Insecure:    true,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Warn("关闭链路追踪失败", "error", err)
			}
		}()
	}
	metrics.InitMetrics()

	// 3. 外部依赖
	db, err := mysql.NewDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	redisClient, err := redis.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	publisher, closePublisher, err := newEventPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	// 4. 依赖注入（手动组装，与wire.go中的Provider保持一致）
	userRepo := mysql.NewUserRepository(db)
	bookRepo := mysql.NewBookRepository(db)
	dictRepo := mysql.NewDictionaryRepository(db)
	loanRepo := mysql.NewLoanRepository(db)
	reportRepo := mysql.NewReportRepository(db)
	analyticsRepo := mysql.NewAnalyticsRepository(db)
	txManager := mysql.NewTxManager(db)
	sessionStore := redis.NewSessionStore(redisClient)
	cartStore := redis.NewCartStore(redisClient, cfg.Loan.CartTTL)
	jwtManager := provideJWTManager(cfg)

	userService := user.NewService(userRepo)
	bookService := book.NewService(bookRepo, dictRepo)
	availability := apploan.NewAvailabilityService(bookRepo, loanRepo)
	recorder := appanalytics.NewEventRecorder(analyticsRepo)

	h := handlers{
		user: handler.NewUserHandler(
			appuser.NewRegisterUseCase(userService),
			appuser.NewLoginUseCase(userService, jwtManager, sessionStore, cfg.JWT.RefreshTokenExpire, recorder),
			appuser.NewLogoutUseCase(sessionStore),
			appuser.NewRefreshTokenUseCase(userRepo, jwtManager),
		),
		book: handler.NewBookHandler(
			appbook.NewPublishBookUseCase(bookService, recorder),
			appbook.NewListBooksUseCase(bookService, availability),
			appbook.NewGetBookUseCase(bookService, availability, recorder),
			appbook.NewSetActiveUseCase(bookService, availability),
		),
		dictionary: handler.NewDictionaryHandler(appbook.NewDictionaryUseCase(dictRepo)),
		cart: handler.NewCartHandler(
			apploan.NewCartUseCase(bookRepo, availability, cartStore),
			apploan.NewCheckoutUseCase(txManager, bookRepo, loanRepo, cartStore, publisher),
		),
		loan: handler.NewLoanHandler(
			apploan.NewListLoansUseCase(loanRepo, bookRepo, cfg.Loan.DefaultPageSize),
			apploan.NewReturnLoanUseCase(txManager, loanRepo, availability, publisher),
		),
		report:    handler.NewReportHandler(appreport.NewUseCase(reportRepo, bookRepo, cfg.Loan.DefaultPageSize)),
		dashboard: handler.NewDashboardHandler(appanalytics.NewDashboardUseCase(analyticsRepo)),
	}
	router := newRouter(cfg, h, middleware.NewAuthMiddleware(jwtManager, sessionStore))

	// 5. 启动服务
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("服务启动成功", "addr", srv.Addr, "metrics", cfg.Metrics.Path)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("启动服务失败: %w", err)
	case <-ctx.Done():
	}

	slog.Info("收到退出信号，开始优雅关闭")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("关闭HTTP服务失败: %w", err)
	}
	slog.Info("服务已停止")
	return nil
}

// provideJWTManager 从配置创建JWT管理器
func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)
}

// newEventPublisher 借阅事件发布者
// mq.enabled=false时返回空实现；否则经熔断器发布到RabbitMQ
func newEventPublisher(cfg *config.Config) (loan.EventPublisher, func(), error) {
	if !cfg.MQ.Enabled {
		slog.Info("消息队列未启用，借阅事件不发布")
		return events.NoopPublisher{}, func() {}, nil
	}

	pub, err := mq.NewPublisher(mq.Config{
		URL:          cfg.MQ.URL,
		Exchange:     cfg.MQ.Exchange,
		ExchangeType: cfg.MQ.ExchangeType,
		AppID:        cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, nil, err
	}

	breaker := circuitbreaker.New("loan-events", circuitbreaker.Config{
		ReadyToTrip:   circuitbreaker.ConsecutiveFailures(cfg.MQ.BreakerFailures),
		Timeout:       cfg.MQ.BreakerTimeout,
		OnStateChange: events.BreakerStateRecorder,
	})
	return events.NewAMQPPublisher(pub, breaker, cfg.MQ.PublishTimeout), func() { _ = pub.Close() }, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
