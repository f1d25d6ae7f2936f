package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/interface/http/handler"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// handlers 所有HTTP处理器
type handlers struct {
	user       *handler.UserHandler
	book       *handler.BookHandler
	dictionary *handler.DictionaryHandler
	cart       *handler.CartHandler
	loan       *handler.LoanHandler
	report     *handler.ReportHandler
	dashboard  *handler.DashboardHandler
}

// newRouter 创建Gin引擎并注册全局中间件与路由
// 中间件顺序：Recovery → 请求日志 → 链路追踪 → 指标
func newRouter(cfg *config.Config, h handlers, auth *middleware.AuthMiddleware) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing())
	}
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// Swagger文档：http://localhost:8080/swagger/index.html
	if cfg.Server.Mode != "release" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, h, auth)
	return r
}

// registerRoutes 注册路由
func registerRoutes(r *gin.Engine, h handlers, auth *middleware.AuthMiddleware) {
	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})

	v1 := r.Group("/api/v1")
	{
		// 用户模块
		users := v1.Group("/users")
		{
			users.POST("/register", h.user.Register)
			users.POST("/login", h.user.Login)
			users.POST("/refresh", h.user.Refresh)
			users.POST("/logout", auth.RequireAuth(), h.user.Logout)
		}

		// 图书模块：查询公开，编目与停用需要馆员
		books := v1.Group("/books")
		{
			books.GET("", h.book.ListBooks)
			books.GET("/:id", auth.OptionalAuth(), h.book.GetBook)
			books.POST("", auth.RequireAuth(), middleware.RequireStaff(), h.book.PublishBook)
			books.PATCH("/:id/active", auth.RequireAuth(), middleware.RequireStaff(), h.book.SetActive)
		}

		// 分类词表
		dict := v1.Group("/dictionary")
		{
			dict.GET("", h.dictionary.Search)
			dict.GET("/autocomplete", h.dictionary.Autocomplete)
		}

		// 以下都需要登录
		authorized := v1.Group("")
		authorized.Use(auth.RequireAuth())
		{
			cart := authorized.Group("/cart")
			{
				cart.GET("", h.cart.List)
				cart.DELETE("", h.cart.Clear)
				cart.POST("/checkout", h.cart.Checkout)
				cart.POST("/:book_id", h.cart.Add)
				cart.DELETE("/:book_id", h.cart.Remove)
			}

			loans := authorized.Group("/loans")
			{
				loans.GET("", h.loan.Active)
				loans.GET("/returned", h.loan.Returned)
				loans.POST("/:id/return", h.loan.Return)
			}

			reports := authorized.Group("/reports")
			{
				reports.GET("/books", h.report.BookRatings)
				reports.GET("/books/:id", h.report.BookReport)
				reports.GET("/receivers", h.report.ReceiverRatings)
				reports.GET("/receivers/:cedula", h.report.ReceiverReport)
			}

			authorized.GET("/dashboard", h.dashboard.Monthly)
		}
	}
}
