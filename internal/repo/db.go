package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// sqlitePragmas включают внешние ключи и ожидание блокировки для каждого соединения.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Open открывает подключение без миграций. DSN вида postgres://... или host=...
// уходит в Postgres, всё остальное считается путём к файлу SQLite (modernc).
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if isPostgresDSN(dsn) {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	db, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", DSN: sqliteDSN(dsn)}, cfg)
	if err != nil {
		return nil, err
	}
	// SQLite пишет в один поток; одно соединение избавляет от SQLITE_BUSY
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// InitDB открывает БД и накатывает миграции.
func InitDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func sqliteDSN(dsn string) string {
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}
