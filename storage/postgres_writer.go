package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"weeromzet/models"
	"weeromzet/utils"
)

// ErrNotFound is returned when a stored analysis or upload does not exist.
var ErrNotFound = errors.New("not found")

const recordColumns = 5

// PostgresWriter persists uploads, their sales records and the analysis
// result to PostgreSQL.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := utils.RetryConfig{MaxAttempts: 10, BaseDelay: 500 * time.Millisecond, Logger: logger}
	if err := retry.Do(ctx, "postgres ping", func(ctx context.Context) error {
		return db.PingContext(ctx)
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS uploads (
			id              UUID PRIMARY KEY,
			filename        TEXT        NOT NULL DEFAULT '',
			separator       VARCHAR(8)  NOT NULL,
			has_headers     BOOLEAN     NOT NULL,
			date_format     VARCHAR(16) NOT NULL,
			total_rows      INTEGER     NOT NULL,
			successful_rows INTEGER     NOT NULL,
			error_rows      INTEGER     NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS sales_records (
			id         SERIAL PRIMARY KEY,
			upload_id  UUID          NOT NULL REFERENCES uploads(id) ON DELETE CASCADE,
			sale_date  DATE          NOT NULL,
			location   TEXT          NOT NULL,
			amount     NUMERIC(12,2) NOT NULL,
			source_row INTEGER       NOT NULL
		);

		CREATE TABLE IF NOT EXISTS analyses (
			id         UUID PRIMARY KEY,
			upload_id  UUID        NOT NULL REFERENCES uploads(id) ON DELETE CASCADE,
			result     JSONB       NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_sales_records_upload   ON sales_records(upload_id);
		CREATE INDEX IF NOT EXISTS idx_sales_records_date     ON sales_records(sale_date);
		CREATE INDEX IF NOT EXISTS idx_sales_records_location ON sales_records(location);
	`)
	return err
}

// SaveAnalysis stores the upload, all of its records and the result in a
// single transaction and returns the analysis ID.
func (pw *PostgresWriter) SaveAnalysis(ctx context.Context, upload Upload, records []models.SalesRecord, result *models.AnalysisResult) (uuid.UUID, error) {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return uuid.Nil, fmt.Errorf("postgres: encode result: %w", err)
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO uploads (id, filename, separator, has_headers, date_format, total_rows, successful_rows, error_rows)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, upload.ID, upload.Filename, string(upload.Format.Separator), upload.Format.HasHeaders,
		string(upload.Format.DateFormat), upload.Summary.TotalRows, upload.Summary.SuccessfulRows,
		upload.Summary.ErrorRows); err != nil {
		return uuid.Nil, fmt.Errorf("postgres: insert upload: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		query, args := buildRecordInsert(upload.ID, records[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return uuid.Nil, fmt.Errorf("postgres: insert records: %w", err)
		}
	}

	analysisID := uuid.New()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO analyses (id, upload_id, result) VALUES ($1,$2,$3)`,
		analysisID, upload.ID, payload); err != nil {
		return uuid.Nil, fmt.Errorf("postgres: insert analysis: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("postgres: commit: %w", err)
	}
	pw.logger.Info("[postgres] Stored analysis %s (%d records)", analysisID, len(records))
	return analysisID, nil
}

func buildRecordInsert(uploadID uuid.UUID, batch []models.SalesRecord) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*recordColumns)

	for idx, r := range batch {
		base := idx * recordColumns
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
		valueArgs = append(valueArgs, uploadID, r.DateKey(), r.Location, r.Amount, r.SourceRowIndex)
	}

	query := fmt.Sprintf(`
		INSERT INTO sales_records (upload_id, sale_date, location, amount, source_row)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

// FetchAnalysis loads a stored result by ID.
func (pw *PostgresWriter) FetchAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error) {
	var payload []byte
	err := pw.db.QueryRowContext(ctx, `SELECT result FROM analyses WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("postgres: analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch analysis: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("postgres: decode analysis: %w", err)
	}
	return &result, nil
}

// FetchRecords retrieves the stored records of an upload in source order.
// An upload without records is reported as ErrNotFound.
func (pw *PostgresWriter) FetchRecords(ctx context.Context, uploadID uuid.UUID) ([]models.SalesRecord, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT sale_date, location, amount, source_row
		FROM sales_records
		WHERE upload_id = $1
		ORDER BY source_row, id
	`, uploadID)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch records: %w", err)
	}
	defer rows.Close()

	var records []models.SalesRecord
	for rows.Next() {
		var r models.SalesRecord
		var day time.Time
		if err := rows.Scan(&day, &r.Location, &r.Amount, &r.SourceRowIndex); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.Date = time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, time.UTC)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: fetch records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("postgres: upload %s: %w", uploadID, ErrNotFound)
	}
	return records, nil
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
