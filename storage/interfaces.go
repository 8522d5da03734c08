package storage

import (
	"context"

	"github.com/google/uuid"

	"weeromzet/models"
)

// RecordWriter is the interface any export backend for parsed sales must satisfy.
type RecordWriter interface {
	WriteRecords(records []models.SalesRecord) error
	Close() error
}

// Upload describes one ingested file.
type Upload struct {
	ID       uuid.UUID
	Filename string
	Format   models.DetectedFormat
	Summary  models.ParseSummary
}

// ResultStore persists analysis runs and reads them back.
type ResultStore interface {
	SaveAnalysis(ctx context.Context, upload Upload, records []models.SalesRecord, result *models.AnalysisResult) (uuid.UUID, error)
	FetchAnalysis(ctx context.Context, id uuid.UUID) (*models.AnalysisResult, error)
	FetchRecords(ctx context.Context, uploadID uuid.UUID) ([]models.SalesRecord, error)
	Close() error
}
