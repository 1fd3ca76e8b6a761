package store

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/JonMunkholm/smartmart/internal/config"
)

// DefaultInsertBatchSize is used when Insert is called with batchSize <= 0.
const DefaultInsertBatchSize = 1000

func tableOf[T Record]() string {
	var zero T
	return zero.TableName()
}

// List returns every row of T ordered by id.
func List[T Record](ctx context.Context, s *Store) ([]T, error) {
	rows := []T{}
	if err := s.DB(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", tableOf[T](), err)
	}
	return rows, nil
}

// Create inserts a single row and fills in its id.
func Create[T Record](ctx context.Context, s *Store, row *T) error {
	rows := []T{*row}
	if err := Insert(ctx, s, rows, 1); err != nil {
		return err
	}
	*row = rows[0]
	return nil
}

// Insert writes rows in one transaction and fills in generated ids.
//
// Rows that carry an explicit id are written first and the table's id
// sequence is moved past them before the remaining rows draw new ids. A
// failure anywhere rolls back every row.
func Insert[T Record](ctx context.Context, s *Store, rows []T, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		return InsertTx(tx, s.driver, rows, batchSize)
	})
}

// InsertTx is Insert inside a caller-managed transaction.
func InsertTx[T Record](tx *gorm.DB, driver string, rows []T, batchSize int) error {
	if batchSize <= 0 {
		batchSize = DefaultInsertBatchSize
	}
	table := tableOf[T]()

	var explicit, generated []int
	for i := range rows {
		if rows[i].PrimaryKey() > 0 {
			explicit = append(explicit, i)
		} else {
			generated = append(generated, i)
		}
	}

	if len(explicit) > 0 {
		batch := pick(rows, explicit)
		if err := tx.CreateInBatches(&batch, batchSize).Error; err != nil {
			return fmt.Errorf("insert %s: %w", table, classify(table, err))
		}
		if err := resyncSequence(tx, driver, table); err != nil {
			return err
		}
	}

	if len(generated) > 0 {
		batch := pick(rows, generated)
		if err := tx.CreateInBatches(&batch, batchSize).Error; err != nil {
			return fmt.Errorf("insert %s: %w", table, classify(table, err))
		}
		for j, i := range generated {
			rows[i] = batch[j]
		}
	}

	return nil
}

func pick[T any](rows []T, idx []int) []T {
	out := make([]T, len(idx))
	for j, i := range idx {
		out[j] = rows[i]
	}
	return out
}

// Stream reads every row of T in id order, batchSize rows at a time, and
// hands each batch to fn. All batches come from one read transaction so the
// result reflects a single point in time. The slice passed to fn is reused
// between calls.
func Stream[T Record](ctx context.Context, s *Store, batchSize int, fn func([]T) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	table := tableOf[T]()

	err := s.DB(ctx).Transaction(func(tx *gorm.DB) error {
		var batch []T
		return tx.Order("id").FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		}).Error
	}, s.snapshotOptions()...)
	if err != nil {
		return fmt.Errorf("stream %s: %w", table, err)
	}
	return nil
}

// snapshotOptions asks PostgreSQL for a repeatable-read snapshot. SQLite
// transactions are already serializable and reject isolation options.
func (s *Store) snapshotOptions() []*sql.TxOptions {
	if s.driver != config.DriverPostgres {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
}
