package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/edulend/edulend/internal/models"
	"github.com/edulend/edulend/internal/services"
	"github.com/edulend/edulend/pkg/logger"
)

const defaultTokenSpec = "@hourly"

// Cleaner coordinates background maintenance: sweeping expired verification
// and reset tokens, and removing loan applications orphaned by student
// deletions. Token expiry is enforced lazily at redeem time, so the sweep is
// hygiene rather than correctness.
type Cleaner struct {
	db     *gorm.DB
	tokens *services.TokenService
	cron   *cron.Cron
	now    func() time.Time
	log    *zap.Logger

	tokenSchedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithTokenSchedule overrides the cron specification for the token sweep.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, tokens *services.TokenService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:            db,
		tokens:        tokens,
		now:           time.Now,
		tokenSchedule: defaultTokenSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the sweep with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.tokens == nil && c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
		if err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("maintenance sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all cleanup routines sequentially, collecting their
// failures. Used by the scheduled job, tests and graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.tokens != nil {
		if removed, err := c.tokens.PurgeExpired(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("token sweep: %w", err))
		} else if removed > 0 {
			c.log.Info("expired tokens removed", zap.Int64("count", removed))
		}
	}

	if c.db != nil {
		if removed, err := c.cleanupOrphanedApplications(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("orphaned applications: %w", err))
		} else if removed > 0 {
			c.log.Info("orphaned applications removed", zap.Int64("count", removed))
		}
	}

	return errs
}

func (c *Cleaner) cleanupOrphanedApplications(ctx context.Context) (int64, error) {
	if c.db == nil {
		return 0, errors.New("maintenance: db is required")
	}

	res := c.db.WithContext(ctx).
		Where("student_id NOT IN (?)", c.db.Model(&models.Student{}).Select("id")).
		Delete(&models.LoanApplication{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
