package mysql

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 使用GORM v2作为ORM框架
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. GORM日志写入slog：开发环境输出全部SQL，其他环境只记录失败与慢查询
// 4. database.auto_migrate开启时自动迁移表结构
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	// 1. 配置GORM日志
	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	// 2. 连接数据库
	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:  newGormLogger(logLevel),
		NowFunc: time.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 3. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// 4. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	slog.Info("数据库连接成功", "host", cfg.Database.Host, "db", cfg.Database.DBName)

	// 5. 自动迁移表结构
	if cfg.Database.AutoMigrate {
		if err := autoMigrate(db); err != nil {
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
	}

	return db, nil
}

// autoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&ClassificationModel{},
		&DictionaryEntryModel{},
		&BookModel{},
		&LoanModel{},
		&AnalyticsEventModel{},
	)
}

// UserModel GORM用户模型
// domain/user/entity.go是领域实体，不依赖GORM，Repository负责两者转换
type UserModel struct {
	ID        uint           `gorm:"primaryKey"`
	Email     string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password  string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Nickname  string         `gorm:"size:50;not null;comment:昵称"`
	IsStaff   bool           `gorm:"not null;default:false;comment:是否馆员"`
	CreatedAt time.Time      `gorm:"comment:创建时间"`
	UpdatedAt time.Time      `gorm:"comment:更新时间"`
	DeletedAt gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

// TableName 指定表名
func (UserModel) TableName() string {
	return "users"
}

// ClassificationModel 学科分类
type ClassificationModel struct {
	ID    uint   `gorm:"primaryKey"`
	Code  string `gorm:"uniqueIndex;size:10;not null;comment:分类代码"`
	Label string `gorm:"size:200;not null;default:'';comment:分类名称"`
}

// TableName 指定表名
func (ClassificationModel) TableName() string {
	return "classifications"
}

// DictionaryEntryModel 分类词表词条
type DictionaryEntryModel struct {
	ID             uint   `gorm:"primaryKey"`
	Code           string `gorm:"uniqueIndex;size:50;not null;comment:词条代码"`
	Description    string `gorm:"type:text;comment:描述"`
	DescriptionEN  string `gorm:"column:description_en;type:text;comment:英文描述"`
	Classification string `gorm:"size:200;not null;default:'';comment:分类文本"`
	IsActive       bool   `gorm:"index;not null;default:true;comment:是否启用"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定表名
func (DictionaryEntryModel) TableName() string {
	return "dictionary_entries"
}

// BookModel GORM图书模型
// 1. cota有唯一索引，保存前已规范化为大写
// 2. copies为馆藏副本总数，借阅流程只读
type BookModel struct {
	ID                uint      `gorm:"primaryKey"`
	Cota              string    `gorm:"uniqueIndex;size:30;not null;comment:索书号"`
	Title             string    `gorm:"index:idx_search;size:200;not null;comment:书名"`
	Subtitle          string    `gorm:"size:200;comment:副标题"`
	Author            string    `gorm:"index:idx_search;size:100;not null;comment:作者"`
	CoAuthor          string    `gorm:"size:100;comment:合著者"`
	Publisher         string    `gorm:"size:100;comment:出版社"`
	PublicationYear   int       `gorm:"comment:出版年份"`
	Edition           int       `gorm:"not null;default:1;comment:版次"`
	Copies            int       `gorm:"not null;default:1;comment:馆藏副本总数"`
	IsActive          bool      `gorm:"index;not null;default:true;comment:是否启用"`
	ClassificationID  *uint     `gorm:"index;comment:分类ID"`
	DictionaryEntryID *uint     `gorm:"index;comment:词条ID"`
	CreatedBy         uint      `gorm:"index;not null;comment:编目人"`
	CreatedAt         time.Time `gorm:"index;comment:创建时间"`
	UpdatedAt         time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// LoanModel GORM借阅模型
// 1. (book_id, status)联合索引支撑借出中数量的SUM查询
// 2. approved_at可为空，兼容导入的历史数据，由运维命令补齐
type LoanModel struct {
	ID                   uint       `gorm:"primaryKey"`
	BookID               uint       `gorm:"index:idx_book_status;not null;comment:图书ID"`
	HolderID             uint       `gorm:"index;not null;comment:办理人用户ID"`
	Quantity             int        `gorm:"not null;default:1;comment:数量"`
	ReceiverCedula       string     `gorm:"index;size:20;not null;comment:借书人证件号"`
	ReceiverFirstName    string     `gorm:"size:100;not null;comment:借书人名"`
	ReceiverLastName     string     `gorm:"size:100;not null;comment:借书人姓"`
	Status               string     `gorm:"index:idx_book_status;size:16;not null;comment:状态(active/returned)"`
	ApprovedAt           *time.Time `gorm:"index;comment:借出时间"`
	ReturnedAt           *time.Time `gorm:"index;comment:归还时间"`
	ReturnReport         string     `gorm:"type:text;comment:归还报告"`
	ReturnBookRating     *int       `gorm:"type:tinyint;comment:图书评分(1-5)"`
	ReturnReceiverRating *int       `gorm:"type:tinyint;comment:借书人评分(1-5)"`
	CreatedAt            time.Time  `gorm:"comment:创建时间"`
	UpdatedAt            time.Time  `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (LoanModel) TableName() string {
	return "loans"
}
