package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/xmrpay-next/internal/config"
	applogger "github.com/xmrpay-next/internal/logger"

	"github.com/glebarez/sqlite" // 纯 Go SQLite 驱动（基于 modernc.org/sqlite）
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 进程级数据库连接
var DB *gorm.DB

const sqliteBusyPragma = "_pragma=busy_timeout(5000)"

// OpenDialector 按驱动名构建 GORM 方言
func OpenDialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		return sqlite.Open(withSQLiteBusyTimeout(dsn)), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// withSQLiteBusyTimeout 并发写入时等待锁而不是直接报 SQLITE_BUSY
func withSQLiteBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqliteBusyPragma
	}
	return dsn + "?" + sqliteBusyPragma
}

// Open 打开数据库并应用连接池配置
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := OpenDialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(applogger.StdLogger(), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	pool := cfg.Pool
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
	}
	if pool.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeSeconds) * time.Second)
	}
	return db, nil
}

// InitDB 初始化全局连接并迁移表结构
func InitDB(cfg config.DatabaseConfig) error {
	db, err := Open(cfg)
	if err != nil {
		return err
	}
	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	DB = db
	return nil
}

// AutoMigrate 自动迁移所有数据库表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Store{})
}
