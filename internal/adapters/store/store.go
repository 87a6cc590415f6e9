package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

// Store is the sqlx implementation of core.StateStore
type Store struct {
	db          *sqlx.DB
	dialect     *dialect
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	now         func() time.Time
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

// New opens the configured database, bootstraps the schema and starts the retention job
func New(cfg config.StoreConfig, logger *zap.Logger) (*Store, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := d.prepareDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	if d.name == DriverSQLite && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
	}

	db, err := sqlx.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", d.name, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if d.name == DriverSQLite {
		// sqlite allows one writer at a time
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", d.name, err)
	}

	s := &Store{
		db:          db,
		dialect:     d,
		logger:      logger,
		retention:   cfg.Retention,
		cleanupFreq: cfg.CleanupFrequency,
		now:         func() time.Time { return time.Now().UTC() },
		stopCh:      make(chan struct{}),
	}

	if err := s.bootstrap(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	if s.retention > 0 && s.cleanupFreq > 0 {
		s.wg.Add(1)
		go s.startCleanupTask()
	}

	logger.Info("State store ready", zap.String("driver", d.name))
	return s, nil
}

func (s *Store) bootstrap(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// DB exposes the underlying handle
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// SetClock overrides the time source
func (s *Store) SetClock(now func() time.Time) {
	s.now = func() time.Time { return now().UTC() }
}

// startCleanupTask deletes processed emails older than the retention window on every tick
func (s *Store) startCleanupTask() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runRetention(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) runRetention(ctx context.Context) {
	deleted, err := s.CleanupOldEmails(ctx, s.now().Add(-s.retention))
	if err != nil {
		s.logger.Error("Failed to clean up old emails", zap.Error(err))
		s.AppendLog(ctx, &core.SystemLog{
			EventType: "cleanup_failed",
			Message:   fmt.Sprintf("Failed to cleanup old emails: %v", err),
			Severity:  core.SeverityError,
		})
		return
	}
	s.AppendLog(ctx, &core.SystemLog{
		EventType: "cleanup_completed",
		Message:   fmt.Sprintf("Cleaned up %d old emails", deleted),
		Severity:  core.SeverityInfo,
	})
}

// Close stops the retention job and closes the database connection
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close %s database: %w", s.dialect.name, err)
	}
	return nil
}

func (s *Store) persistenceErr(op string, err error) error {
	if isUniqueViolation(err) {
		return core.E(core.KindDuplicate, op, core.ErrDuplicate)
	}
	return core.E(core.KindPersistence, op, err)
}
