package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"chart-stream/src/helpers"
	"chart-stream/src/interfaces"
	"chart-stream/src/logger"
	"chart-stream/src/models"

	_ "github.com/lib/pq"
)

const PostgresProviderName = "postgres"

// -----------------------------------------------------------------------------

// PostgresDB serves records from Postgres. Sources may be schema-qualified
// ("schema.table").
type PostgresDB struct {
	recordStore
	Config *models.MConfig
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) *PostgresDB {
	return &PostgresDB{
		recordStore: recordStore{
			Logger:      log,
			placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
			realType:    "DOUBLE PRECISION",
			allowSchema: true,
		},
		Config: cfg,
	}
}

// OpenPostgresProvider connects to the configured database for reading.
func OpenPostgresProvider(cfg *models.MConfig, log *logger.Logger) (interfaces.IDataProvider, error) {
	d := NewPostgresDB(cfg, log)
	if err := d.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *PostgresDB) Name() string { return PostgresProviderName }

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize(ctx context.Context) error {
	dsn := d.Config.Storage.DBConnectionString
	if dsn == "" {
		return helpers.NewConfigurationError("storage.db_connection_string is required for the postgres provider", nil)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return helpers.NewDatabaseError("open postgres", err)
	}

	retries := d.Config.Data.MaxRetries
	if retries < 3 {
		retries = 3
	}
	if err := helpers.RetryWithBackoff(ctx, d.Logger, "postgres ping", retries, time.Second, func() error {
		return db.PingContext(ctx)
	}); err != nil {
		db.Close()
		return helpers.NewDatabaseError("ping postgres", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	d.DB = db

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}
