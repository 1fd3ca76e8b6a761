package store

import (
	"context"
	"fmt"
	"time"
)

// RecordImport stores one import attempt.
func (s *Store) RecordImport(ctx context.Context, rec *ImportRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := s.DB(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

// ListImports returns import history newest first. An empty tableKey
// returns every table. limit <= 0 means no limit.
func (s *Store) ListImports(ctx context.Context, tableKey string, limit int) ([]ImportRecord, error) {
	q := s.DB(ctx).Order("created_at DESC")
	if tableKey != "" {
		q = q.Where("table_key = ?", tableKey)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	records := []ImportRecord{}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return records, nil
}
