// Package store persists calculator submissions in a relational database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Registers the pure-Go "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"coi-gateway/internal/config"
	"coi-gateway/internal/metrics"
	"coi-gateway/internal/model"
)

// ErrNotFound is returned by Get when no submission has the given id.
var ErrNotFound = errors.New("submission not found")

// Store writes submissions through a bounded connection pool.
type Store struct {
	db      *sql.DB
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New opens the database described by cfg.Store. The schema is not applied
// until Migrate is called.
// The metrics parameter is optional; pass nil to disable store metrics recording.
func New(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Store, error) {
	db, err := sql.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	db.SetMaxOpenConns(cfg.Store.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Store.MaxOpenConns)

	return &Store{
		db:      db,
		timeout: time.Duration(cfg.Store.QueryTimeoutSeconds) * time.Second,
		logger:  logger.With("component", "store"),
		metrics: m,
		now:     time.Now,
	}, nil
}

// Migrate applies the submission schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes one submission and returns its generated id. SubmittedAt is
// assigned here. A dedicated connection is acquired for the insert and
// released on every return path.
func (s *Store) Insert(ctx context.Context, sub *model.Submission) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	id, err := s.insert(ctx, sub)
	s.observe("insert", start, err)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("submission stored", "id", id)
	return id, nil
}

func (s *Store) insert(ctx context.Context, sub *model.Submission) (int64, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	sub.SubmittedAt = s.now().UTC()

	var id int64
	err = conn.QueryRowContext(ctx, insertSubmission,
		sub.ProjectName,
		sub.State,
		sub.ContractValue,
		sub.LaborScope,
		sub.Payroll,
		sub.SubAmount,
		sub.SubName,
		sub.SubContactName,
		sub.SubContactEmail,
		sub.WCAmount,
		sub.GLAmount,
		sub.UmbrellaAmount,
		sub.IncludeOP,
		sub.OPAmount,
		sub.TotalDeduction,
		sub.SubmittedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert submission: %w", err)
	}
	return id, nil
}

// Get reads a submission back by id.
func (s *Store) Get(ctx context.Context, id int64) (*model.Submission, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	var sub model.Submission
	err := s.db.QueryRowContext(ctx, selectSubmission, id).Scan(
		&sub.ProjectName,
		&sub.State,
		&sub.ContractValue,
		&sub.LaborScope,
		&sub.Payroll,
		&sub.SubAmount,
		&sub.SubName,
		&sub.SubContactName,
		&sub.SubContactEmail,
		&sub.WCAmount,
		&sub.GLAmount,
		&sub.UmbrellaAmount,
		&sub.IncludeOP,
		&sub.OPAmount,
		&sub.TotalDeduction,
		&sub.SubmittedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		s.observe("get", start, nil)
		return nil, ErrNotFound
	}
	s.observe("get", start, err)
	if err != nil {
		return nil, fmt.Errorf("select submission %d: %w", id, err)
	}
	return &sub, nil
}

// Count returns the number of stored submissions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calculator_submissions").Scan(&n); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return n, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) observe(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.StoreErrors.WithLabelValues(op).Inc()
	}
}
