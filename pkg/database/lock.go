package database

import (
	"context"
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"gorm.io/gorm"
)

// lockName identifies the SIGEL schema lock.
const lockName = "sigel-migration"

// MigrationLocker serializes schema migrations across server replicas.
type MigrationLocker interface {
	// WithLock runs fn while holding the lock. It blocks until the lock is
	// acquired and releases it after fn returns.
	WithLock(ctx context.Context, fn func() error) error
}

// NewMigrationLocker returns a PostgreSQL advisory lock or, for other
// dialects, a table-based lock. The lock table is created up front so
// concurrent first callers never see a missing table.
func NewMigrationLocker(db *gorm.DB) MigrationLocker {
	if db == nil {
		return noopLock{}
	}
	if db.Dialector.Name() == "postgres" {
		return &advisoryLock{
			db:     db,
			lockID: int64(crc32.ChecksumIEEE([]byte(lockName))),
		}
	}
	_ = db.AutoMigrate(&migrationLock{})
	return &tableLock{
		db:         db,
		maxRetries: 30,
		retryEvery: time.Second,
		staleAfter: 5 * time.Minute,
	}
}

type noopLock struct{}

func (noopLock) WithLock(_ context.Context, fn func() error) error {
	return fn()
}

type advisoryLock struct {
	db     *gorm.DB
	lockID int64
}

func (l *advisoryLock) WithLock(ctx context.Context, fn func() error) error {
	if err := l.db.WithContext(ctx).Exec("SELECT pg_advisory_lock(?)", l.lockID).Error; err != nil {
		return fmt.Errorf("acquire migration advisory lock: %w", err)
	}
	defer func() {
		_ = l.db.Exec("SELECT pg_advisory_unlock(?)", l.lockID).Error
	}()
	return fn()
}

// migrationLock is the single lock row of the table-based strategy.
type migrationLock struct {
	ID       string    `gorm:"primaryKey;column:id"`
	LockedAt time.Time `gorm:"column:locked_at"`
	LockedBy string    `gorm:"column:locked_by"`
}

func (migrationLock) TableName() string { return "migration_lock" }

// tableLock relies on insert-or-fail of a fixed primary key. Rows older
// than staleAfter are removed first so a crashed holder cannot block
// startup forever.
type tableLock struct {
	db         *gorm.DB
	maxRetries int
	retryEvery time.Duration
	staleAfter time.Duration
}

func (l *tableLock) WithLock(ctx context.Context, fn func() error) error {
	holder, _ := os.Hostname()
	if holder == "" {
		holder = "unknown"
	}
	row := migrationLock{ID: lockName, LockedBy: holder}

	for attempt := 1; ; attempt++ {
		l.db.WithContext(ctx).
			Where("id = ? AND locked_at < ?", lockName, time.Now().Add(-l.staleAfter)).
			Delete(&migrationLock{})

		row.LockedAt = time.Now()
		err := l.db.WithContext(ctx).Create(&row).Error
		if err == nil {
			break
		}
		if attempt >= l.maxRetries {
			return fmt.Errorf("acquire migration lock after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.retryEvery):
		}
	}

	defer func() {
		l.db.Where("id = ?", lockName).Delete(&migrationLock{})
	}()
	return fn()
}
