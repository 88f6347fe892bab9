// Command migrate_logs copies the automation audit log from the sqlite
// database at DB_PATH into the postgres database at DB_DSN and resyncs
// the id sequence afterwards.
package main

import (
	"waha-gateway/internal/config"
	"waha-gateway/internal/database"
	"waha-gateway/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 500

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DBPath == "" || cfg.DBDSN == "" {
		logrus.Fatal("Both DB_PATH (source) and DB_DSN (destination) must be set")
	}

	src := *cfg
	src.DBDriver = "sqlite"
	sqliteDB, err := database.Open(&src)
	if err != nil {
		logrus.Fatalf("Failed to connect to SQLite: %v", err)
	}
	logrus.Infof("Connected to SQLite at %s", cfg.DBPath)

	dst := *cfg
	dst.DBDriver = "postgres"
	pgDB, err := database.Open(&dst)
	if err != nil {
		logrus.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	logrus.Info("Starting automation log migration...")
	copied, err := copyLogs(sqliteDB, pgDB)
	if err != nil {
		logrus.Fatalf("Migration stopped after %d rows: %v", copied, err)
	}
	logrus.Infof("Copied %d rows into %s", copied, models.AutomationLog{}.TableName())

	if err := syncSequence(pgDB, models.AutomationLog{}.TableName()); err != nil {
		logrus.Fatalf("Error syncing sequence: %v", err)
	}
	logrus.Info("DONE!")
}

// copyLogs streams rows in id order. Rows already present in the
// destination are skipped, so the command can be rerun.
func copyLogs(from, to *gorm.DB) (int64, error) {
	var copied int64
	var batch []models.AutomationLog

	res := from.Order("id").FindInBatches(&batch, batchSize, func(_ *gorm.DB, n int) error {
		err := to.Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&batch).Error
		})
		if err != nil {
			return err
		}
		copied += int64(len(batch))
		logrus.WithField("batch", n).Infof("Copied %d rows", copied)
		return nil
	})
	return copied, res.Error
}

// syncSequence moves the serial sequence past the copied ids.
func syncSequence(db *gorm.DB, table string) error {
	query := "SELECT setval(pg_get_serial_sequence(?, 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
	return db.Exec(query, table).Error
}
