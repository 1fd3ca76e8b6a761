package store

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/JonMunkholm/smartmart/internal/config"
)

// resyncSequence moves the table's id counter so the next generated id is
// max(id)+1. Needed after rows were inserted with explicit ids, which
// bypass the counter.
func resyncSequence(tx *gorm.DB, driver, table string) error {
	var err error
	switch driver {
	case config.DriverPostgres:
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence(?, 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s",
			tx.Statement.Quote(table),
		)
		err = tx.Exec(query, table).Error
	case config.DriverSQLite:
		query := fmt.Sprintf(
			"UPDATE sqlite_sequence SET seq = (SELECT COALESCE(MAX(id), 0) FROM %s) WHERE name = ?",
			tx.Statement.Quote(table),
		)
		err = tx.Exec(query, table).Error
	default:
		return fmt.Errorf("resync %s: unsupported driver %q", table, driver)
	}
	if err != nil {
		return fmt.Errorf("resync %s id sequence: %w", table, err)
	}
	return nil
}
