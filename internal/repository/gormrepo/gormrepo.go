// Package gormrepo implements repository.Storage on gorm, against postgres
// in production and sqlite in tests.
package gormrepo

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"task_tracker/internal/repository"
	"task_tracker/pkg/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Open connects with the dialect's driver and migrates the schema.
func Open(dialect, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.New(zap.NewStdLog(logger.Logger), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := prepare(db, dialect); err != nil {
		_ = closeDB(db)
		return nil, err
	}
	return db, nil
}

func prepare(db *gorm.DB, dialect string) error {
	if dialect == DialectSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&userModel{}, &taskModel{}, &complaintModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

var closeDB = Close

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Store satisfies repository.Storage by composing the per-entity repositories.
type Store struct {
	*UserRepository
	*TaskRepository
	*ComplaintRepository
}

var _ repository.Storage = (*Store)(nil)

type Option func(*options)

type options struct {
	clock repository.Clock
}

func WithClock(c repository.Clock) Option {
	return func(o *options) { o.clock = c }
}

func New(db *gorm.DB, opts ...Option) *Store {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		UserRepository:      NewUserRepository(db, o.clock),
		TaskRepository:      NewTaskRepository(db, o.clock),
		ComplaintRepository: NewComplaintRepository(db, o.clock),
	}
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
