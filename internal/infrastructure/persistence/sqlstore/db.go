package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/booksapi/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明：
// 1. 根据database.url选择驱动：sqlite（默认，纯Go实现）或mysql
// 2. 配置连接池参数（MaxOpenConns、MaxIdleConns、ConnMaxLifetime）
// 3. GORM日志接入slog，log_sql开启时打印全部SQL，否则只记录慢查询和错误
// 4. 启动时自动建表（AutoMigrate）
func NewDB(cfg *config.Config, log *slog.Logger) (*gorm.DB, error) {
	// 1. 解析驱动和DSN
	target, err := cfg.Database.Target()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch target.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(target.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(target.DSN)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", target.Driver)
	}

	// 2. 配置GORM日志
	logLevel := logger.Warn
	if cfg.Database.LogSQL {
		logLevel = logger.Info
	}
	gormLogger := logger.NewSlogLogger(log.With("component", "gorm"), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true, // 不存在由仓储层转换为nil结果
	})

	// 3. 连接数据库
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 4. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}

	if target.Driver == config.DriverSQLite && target.DSN == ":memory:" {
		// 每个连接各自持有一个内存库，必须限制为单连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	// 5. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Info("数据库连接成功", "driver", target.Driver)

	// 6. 建表（只创建缺失的表和字段）
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

// Ping 检查数据库可用性（/readyz使用）
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// autoMigrate 自动迁移表结构
// AutoMigrate只会创建表、添加字段，不会删除或修改现有字段
func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&BookModel{})
}
