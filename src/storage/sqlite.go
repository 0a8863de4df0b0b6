package storage

import (
	"context"
	"database/sql"
	"time"

	"chart-stream/src/helpers"
	"chart-stream/src/interfaces"
	"chart-stream/src/logger"
	"chart-stream/src/models"

	_ "modernc.org/sqlite"
)

const SQLiteProviderName = "sqlite"

// -----------------------------------------------------------------------------

// SQLiteDB serves records from a local SQLite file.
type SQLiteDB struct {
	recordStore
	Config *models.MConfig
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) *SQLiteDB {
	return &SQLiteDB{
		recordStore: recordStore{
			Logger:      log,
			placeholder: func(int) string { return "?" },
			realType:    "REAL",
		},
		Config: cfg,
	}
}

// OpenSQLiteProvider opens the configured database for reading.
func OpenSQLiteProvider(cfg *models.MConfig, log *logger.Logger) (interfaces.IDataProvider, error) {
	d := NewSQLiteDB(cfg, log)
	if err := d.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *SQLiteDB) Name() string { return SQLiteProviderName }

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBPath
	if dsn == "" {
		return helpers.NewConfigurationError("storage.db_path is required for the sqlite provider", nil)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open sqlite", err)
	}

	if err := helpers.RetryWithBackoff(ctx, d.Logger, "sqlite ping", 3, 200*time.Millisecond, func() error {
		return db.PingContext(ctx)
	}); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping sqlite", err)
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	d.Logger.Info("SQLite opened at %s", dsn)
	return nil
}
