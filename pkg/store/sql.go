package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/farmconnect-backend/pkg/db"
	dbmodels "github.com/angelmondragon/farmconnect-backend/pkg/db/models"
)

// SQLBackend keeps documents in the kv_documents table. Postgres rows are
// locked with SELECT ... FOR UPDATE; the version column catches racing
// inserts and any writer that bypassed the lock.
type SQLBackend struct {
	db          *db.Client
	maxAttempts int
	clock       func() time.Time
}

func NewSQLBackend(client *db.Client, maxAttempts int) *SQLBackend {
	return &SQLBackend{db: client, maxAttempts: maxAttempts, clock: time.Now}
}

func (s *SQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var doc dbmodels.Document
	err := s.db.DB().WithContext(ctx).Where("doc_key = ?", key).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Body), nil
}

func (s *SQLBackend) Swap(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	return withConflictRetry(ctx, s.maxAttempts, func(ctx context.Context) error {
		return s.db.WithTx(ctx, func(tx *gorm.DB) error {
			return s.swapInTx(tx, key, fn)
		})
	})
}

func (s *SQLBackend) swapInTx(tx *gorm.DB, key string, fn func(current []byte) ([]byte, error)) error {
	query := tx
	if s.db.Dialect() == db.DialectPostgres {
		query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var doc dbmodels.Document
	found := true
	if err := query.Where("doc_key = ?", key).Take(&doc).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		found = false
	}

	var current []byte
	if found {
		current = []byte(doc.Body)
	}
	next, err := fn(current)
	if err != nil {
		return err
	}

	now := s.clock().UTC()
	if !found {
		err := tx.Create(&dbmodels.Document{Key: key, Body: string(next), Version: 1, UpdatedAt: now}).Error
		if db.IsUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	res := tx.Model(&dbmodels.Document{}).
		Where("doc_key = ? AND version = ?", key, doc.Version).
		Updates(map[string]any{
			"body":       string(next),
			"version":    doc.Version + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
