package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"chart-stream/src/helpers"
	"chart-stream/src/logger"
	"chart-stream/src/models"
)

// Default table names used by the seeder.
const (
	DefaultTimeValuesTable = "time_values"
	DefaultOhlcTable       = "ohlc_bars"
)

var (
	identRegex    = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	tableRefRegex = regexp.MustCompile(`^(?:(\w+)\.)?(\w+)$`)
)

// -----------------------------------------------------------------------------

// tableRef is a validated, optionally schema-qualified table name. Sources are
// interpolated into SQL, so nothing else is accepted.
type tableRef struct {
	Schema string
	Table  string
}

func parseTableRef(source string) (tableRef, error) {
	m := tableRefRegex.FindStringSubmatch(strings.TrimSpace(source))
	if m == nil || !identRegex.MatchString(m[2]) || (m[1] != "" && !identRegex.MatchString(m[1])) {
		return tableRef{}, helpers.NewDataError(fmt.Sprintf("invalid table name %q", source), nil)
	}
	return tableRef{Schema: m[1], Table: m[2]}, nil
}

func (t tableRef) String() string {
	if t.Schema != "" {
		return fmt.Sprintf(`"%s"."%s"`, t.Schema, t.Table)
	}
	return fmt.Sprintf(`"%s"`, t.Table)
}

// -----------------------------------------------------------------------------

// recordStore holds the SQL shared by the SQLite and Postgres providers. Rows
// carry a seq column so records come back in the order they were imported.
type recordStore struct {
	DB          *sql.DB
	Logger      *logger.Logger
	placeholder func(n int) string
	realType    string
	allowSchema bool
}

// ref validates a source name for this dialect.
func (r *recordStore) ref(source string) (tableRef, error) {
	ref, err := parseTableRef(source)
	if err != nil {
		return ref, err
	}
	if ref.Schema != "" && !r.allowSchema {
		return tableRef{}, helpers.NewDataError(fmt.Sprintf("schema-qualified table %q not supported", source), nil)
	}
	return ref, nil
}

// -----------------------------------------------------------------------------

func (r *recordStore) LoadTimeValueRecords(ctx context.Context, source string) ([]models.MTimeValueRecord, error) {
	records := []models.MTimeValueRecord{}

	ref, err := r.ref(source)
	if err != nil {
		return records, err
	}

	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`SELECT timestamp, value FROM %s ORDER BY seq`, ref))
	if err != nil {
		return records, helpers.NewDatabaseError(fmt.Sprintf("query %s", ref), err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.MTimeValueRecord
		if err := rows.Scan(&rec.Timestamp, &rec.Value); err != nil {
			return []models.MTimeValueRecord{}, helpers.NewDatabaseError(fmt.Sprintf("scan %s", ref), err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return []models.MTimeValueRecord{}, helpers.NewDatabaseError(fmt.Sprintf("read %s", ref), err)
	}
	return records, nil
}

// -----------------------------------------------------------------------------

func (r *recordStore) LoadOhlcRecords(ctx context.Context, source string) ([]models.MOhlcRecord, error) {
	records := []models.MOhlcRecord{}

	ref, err := r.ref(source)
	if err != nil {
		return records, err
	}

	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`SELECT timestamp, open, high, low, close FROM %s ORDER BY seq`, ref))
	if err != nil {
		return records, helpers.NewDatabaseError(fmt.Sprintf("query %s", ref), err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec models.MOhlcRecord
		if err := rows.Scan(&rec.Timestamp, &rec.Open, &rec.High, &rec.Low, &rec.Close); err != nil {
			return []models.MOhlcRecord{}, helpers.NewDatabaseError(fmt.Sprintf("scan %s", ref), err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return []models.MOhlcRecord{}, helpers.NewDatabaseError(fmt.Sprintf("read %s", ref), err)
	}
	return records, nil
}

// -----------------------------------------------------------------------------
// Import
// -----------------------------------------------------------------------------

// ImportRequest is a full replacement of the record tables.
type ImportRequest struct {
	TimeValuesTable string
	TimeValues      []models.MTimeValueRecord
	OhlcTable       string
	Ohlc            []models.MOhlcRecord
}

// Import drops and recreates the record tables, then bulk inserts both
// collections in one transaction.
func (r *recordStore) Import(ctx context.Context, req ImportRequest) error {
	tvRef, err := r.ref(orDefault(req.TimeValuesTable, DefaultTimeValuesTable))
	if err != nil {
		return err
	}
	ohlcRef, err := r.ref(orDefault(req.OhlcTable, DefaultOhlcTable))
	if err != nil {
		return err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return helpers.NewDatabaseError("begin import", err)
	}
	defer tx.Rollback()

	if err := r.recreateTables(ctx, tx, tvRef, ohlcRef); err != nil {
		return err
	}
	if err := r.insertTimeValues(ctx, tx, tvRef, req.TimeValues); err != nil {
		return err
	}
	if err := r.insertOhlc(ctx, tx, ohlcRef, req.Ohlc); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return helpers.NewDatabaseError("commit import", err)
	}
	r.Logger.Info("Imported %d rows into %s and %d rows into %s", len(req.TimeValues), tvRef, len(req.Ohlc), ohlcRef)
	return nil
}

// -----------------------------------------------------------------------------

func (r *recordStore) recreateTables(ctx context.Context, tx *sql.Tx, tvRef, ohlcRef tableRef) error {
	for _, ref := range []tableRef{tvRef, ohlcRef} {
		if ref.Schema != "" {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, ref.Schema)); err != nil {
				return helpers.NewDatabaseError(fmt.Sprintf("create schema %s", ref.Schema), err)
			}
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, ref)); err != nil {
			return helpers.NewDatabaseError(fmt.Sprintf("drop %s", ref), err)
		}
	}

	query := fmt.Sprintf(`
		CREATE TABLE %s (
			seq INTEGER PRIMARY KEY,
			timestamp BIGINT NOT NULL,
			value %s NOT NULL
		);
	`, tvRef, r.realType)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("create %s", tvRef), err)
	}

	query = fmt.Sprintf(`
		CREATE TABLE %s (
			seq INTEGER PRIMARY KEY,
			timestamp BIGINT NOT NULL,
			open %[2]s NOT NULL,
			high %[2]s NOT NULL,
			low %[2]s NOT NULL,
			close %[2]s NOT NULL
		);
	`, ohlcRef, r.realType)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("create %s", ohlcRef), err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *recordStore) insertTimeValues(ctx context.Context, tx *sql.Tx, ref tableRef, records []models.MTimeValueRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (seq, timestamp, value) VALUES (%s)`, ref, r.placeholders(3)))
	if err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("prepare insert %s", ref), err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, i, rec.Timestamp, rec.Value); err != nil {
			return helpers.NewDatabaseError(fmt.Sprintf("insert %s", ref), err)
		}
	}
	return nil
}

func (r *recordStore) insertOhlc(ctx context.Context, tx *sql.Tx, ref tableRef, records []models.MOhlcRecord) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (seq, timestamp, open, high, low, close) VALUES (%s)`, ref, r.placeholders(6)))
	if err != nil {
		return helpers.NewDatabaseError(fmt.Sprintf("prepare insert %s", ref), err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, i, rec.Timestamp, rec.Open, rec.High, rec.Low, rec.Close); err != nil {
			return helpers.NewDatabaseError(fmt.Sprintf("insert %s", ref), err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

func (r *recordStore) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = r.placeholder(i + 1)
	}
	return strings.Join(parts, ", ")
}

func (r *recordStore) Close() error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
