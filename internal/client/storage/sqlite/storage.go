// Package sqlite implements the local feed cache and sync metadata on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/iudanet/notifsync/internal/client/storage"
	"github.com/iudanet/notifsync/internal/models"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const keySchemaVersion = "schema_version"

// Storage represents SQLite storage implementation of the feed cache
type Storage struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

var _ storage.Store = (*Storage)(nil)

// New creates a new SQLite storage instance
// dbPath is the path to the SQLite database file
// Use ":memory:" for in-memory database (useful for testing)
func New(ctx context.Context, dbPath string, logger *zap.Logger) (*Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Открываем соединение с БД
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", storage.ErrStoreUnavailable, err)
	}

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", storage.ErrStoreUnavailable, err)
	}

	// SQLite поддерживает только одного писателя
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: failed to set pragma: %w", storage.ErrStoreUnavailable, err)
		}
	}

	s := &Storage{db: db, logger: logger.With(zap.String("store", "sqlite"))}

	// Запускаем миграции
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to run migrations: %w", storage.ErrStoreUnavailable, err)
	}

	if err := s.checkSchema(ctx); err != nil {
		if !errors.Is(err, storage.ErrSchemaMismatch) {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
		}
		s.logger.Info("Resetting local cache", zap.Error(err))
		if err := s.reset(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: failed to reset cache: %w", storage.ErrStoreUnavailable, err)
		}
	}

	return s, nil
}

// Ready reports whether the storage is open
func (s *Storage) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

// Close closes the database connection
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// SchemaVersion returns the schema version stamped on the cache
func (s *Storage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.with(func(db *sql.DB) error {
		var err error
		version, err = readVersion(ctx, db)
		return err
	})
	return version, err
}

// with runs fn while the storage is open
func (s *Storage) with(fn func(db *sql.DB) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return storage.ErrStoreUnavailable
	}
	return fn(s.db)
}

// inTx runs fn in a transaction while the storage is open
func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.with(func(db *sql.DB) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

// runMigrations выполняет миграции из embedded FS
func (s *Storage) runMigrations() error {
	// Устанавливаем dialect для SQLite
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	// Устанавливаем источник миграций из embedded FS
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{s.logger.Sugar()})

	return guardMigration(func() error {
		if err := goose.Up(s.db, "migrations"); err != nil {
			return fmt.Errorf("goose up failed: %w", err)
		}
		return nil
	})
}

// guardMigration turns an abort raised through gooseLogger.Fatalf into an
// error. Any other panic is re-raised.
func guardMigration(fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		abort, ok := r.(migrationAbort)
		if !ok {
			panic(r)
		}
		err = fmt.Errorf("migration aborted: %s", abort.msg)
	}()

	return fn()
}

// checkSchema stamps a fresh cache with the current version and reports
// ErrSchemaMismatch for a cache written by another version
func (s *Storage) checkSchema(ctx context.Context) error {
	version, err := readVersion(ctx, s.db)
	if err != nil {
		return err
	}
	if version == models.CacheSchemaVersion {
		return nil
	}

	if version == 0 {
		var records, extents int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&records); err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meta WHERE key = ?`, keyExtent).Scan(&extents); err != nil {
			return fmt.Errorf("failed to check extent: %w", err)
		}
		// Пустой кэш без версии: просто проставляем текущую
		if records == 0 && extents == 0 {
			return writeMeta(ctx, s.db, keySchemaVersion, []byte(strconv.Itoa(models.CacheSchemaVersion)))
		}
	}

	return fmt.Errorf("%w: found %d, expected %d", storage.ErrSchemaMismatch, version, models.CacheSchemaVersion)
}

// reset drops every record and the extent, then stamps the current version
func (s *Storage) reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM meta WHERE key = ?`, keyExtent); err != nil {
		return fmt.Errorf("failed to delete extent: %w", err)
	}
	if err := writeMeta(ctx, tx, keySchemaVersion, []byte(strconv.Itoa(models.CacheSchemaVersion))); err != nil {
		return err
	}

	return tx.Commit()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readVersion(ctx context.Context, q queryer) (int, error) {
	raw, err := readMeta(ctx, q, keySchemaVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	version, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, nil
	}
	return version, nil
}

// gooseLogger routes migration output to zap
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) { l.s.Debugf(format, v...) }

// Fatalf не завершает процесс: открытие хранилища вернет ошибку
func (l gooseLogger) Fatalf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	l.s.Errorw("Migration aborted", "reason", msg)
	panic(migrationAbort{msg: msg})
}

type migrationAbort struct {
	msg string
}
