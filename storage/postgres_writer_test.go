package storage

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weeromzet/models"
	"weeromzet/utils"
)

func newMockWriter(t *testing.T) (*PostgresWriter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &PostgresWriter{db: db, logger: utils.NewLoggerTo(io.Discard, utils.LevelDebug)}, mock
}

func TestSaveAnalysis(t *testing.T) {
	pw, mock := newMockWriter(t)
	upload := Upload{
		ID:       uuid.New(),
		Filename: "mei.csv",
		Format:   models.DetectedFormat{Separator: models.SeparatorComma, HasHeaders: true, DateFormat: models.DateYMDDash},
		Summary:  models.ParseSummary{TotalRows: 2, SuccessfulRows: 2},
	}
	records := []models.SalesRecord{
		record("2024-05-01", "Dam", "300", 1),
		record("2024-05-02", "Zuid", "310.5", 2),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO uploads")).
		WithArgs(upload.ID, "mei.csv", ",", true, "YYYY-MM-DD", 2, 2, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sales_records")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO analyses")).
		WithArgs(sqlmock.AnyArg(), upload.ID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := pw.SaveAnalysis(context.Background(), upload, records, &models.AnalysisResult{})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveAnalysisRollsBack(t *testing.T) {
	pw, mock := newMockWriter(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO uploads")).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err := pw.SaveAnalysis(context.Background(), Upload{}, nil, &models.AnalysisResult{})
	assert.ErrorContains(t, err, "insert upload")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAnalysis(t *testing.T) {
	pw, mock := newMockWriter(t)
	id := uuid.New()
	payload, err := json.Marshal(models.AnalysisResult{Summary: models.Summary{TotalRevenue: 610.5, TotalTransactions: 2}})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT result FROM analyses")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"result"}).AddRow(payload))
	got, err := pw.FetchAnalysis(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Summary.TotalTransactions)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT result FROM analyses")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"result"}))
	_, err = pw.FetchAnalysis(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRecords(t *testing.T) {
	pw, mock := newMockWriter(t)
	uploadID := uuid.New()
	columns := []string{"sale_date", "location", "amount", "source_row"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM sales_records")).
		WithArgs(uploadID).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "Dam", "300.00", int64(1)).
			AddRow(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), "Zuid", "310.50", int64(2)))

	got, err := pw.FetchRecords(context.Background(), uploadID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-05-01", got[0].DateKey())
	assert.Equal(t, 12, got[0].Date.Hour())
	assert.Equal(t, "Zuid", got[1].Location)
	assert.Equal(t, "310.5", got[1].Amount.String())
	assert.Equal(t, 2, got[1].SourceRowIndex)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sales_records")).
		WithArgs(uploadID).
		WillReturnRows(sqlmock.NewRows(columns))
	_, err = pw.FetchRecords(context.Background(), uploadID)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sales_records")).
		WithArgs(uploadID).
		WillReturnError(errors.New("connection reset"))
	_, err = pw.FetchRecords(context.Background(), uploadID)
	assert.ErrorContains(t, err, "postgres: fetch records")
	assert.NoError(t, mock.ExpectationsWereMet())
}
