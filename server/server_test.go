package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weeromzet/models"
	"weeromzet/services"
	"weeromzet/storage"
	"weeromzet/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, utils.LevelDebug) }

type memoryStore struct {
	mu      sync.Mutex
	results map[uuid.UUID]*models.AnalysisResult
	records map[uuid.UUID][]models.SalesRecord
	uploads []storage.Upload
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		results: make(map[uuid.UUID]*models.AnalysisResult),
		records: make(map[uuid.UUID][]models.SalesRecord),
	}
}

func (m *memoryStore) SaveAnalysis(_ context.Context, upload storage.Upload, records []models.SalesRecord, result *models.AnalysisResult) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.results[id] = result
	m.records[upload.ID] = records
	m.uploads = append(m.uploads, upload)
	return id, nil
}

func (m *memoryStore) FetchAnalysis(_ context.Context, id uuid.UUID) (*models.AnalysisResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[id]
	if !ok {
		return nil, fmt.Errorf("memory: %s: %w", id, storage.ErrNotFound)
	}
	return r, nil
}

func (m *memoryStore) FetchRecords(_ context.Context, uploadID uuid.UUID) ([]models.SalesRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records, ok := m.records[uploadID]
	if !ok {
		return nil, fmt.Errorf("memory: upload %s: %w", uploadID, storage.ErrNotFound)
	}
	return records, nil
}

func (m *memoryStore) Close() error { return nil }

func newTestRouter(store storage.ResultStore, maxBytes int) *mux.Router {
	logger := newTestLogger()
	pipeline := services.NewPipeline(logger, nil, models.Amsterdam, maxBytes)
	handler := NewAnalysisHandler(pipeline, store, maxBytes, logger)
	muxRouter := mux.NewRouter()
	NewRouter(handler, muxRouter, logger).RegisterRoutes()
	return muxRouter
}

func validCSV() string {
	var b strings.Builder
	b.WriteString("datum,locatie,omzet\n")
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		loc := "Museumplein"
		if i%2 == 1 {
			loc = "Vondelpark"
		}
		fmt.Fprintf(&b, "%s,%s,%d\n", start.AddDate(0, 0, i).Format("2006-01-02"), loc, 300+i*10)
	}
	return b.String()
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouter_RegisterRoutes(t *testing.T) {
	router := newTestRouter(nil, 0)

	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
	}{
		{"Ping Route", http.MethodGet, "/ping", http.StatusOK},
		{"Analyze wrong method", http.MethodGet, "/v1/analyze", http.StatusMethodNotAllowed},
		{"Invalid Route", http.MethodGet, "/invalid", http.StatusNotFound},
		{"Analysis without store", http.MethodGet, "/v1/analyses/" + uuid.NewString(), http.StatusNotImplemented},
		{"Records without store", http.MethodGet, "/v1/uploads/" + uuid.NewString() + "/records", http.StatusNotImplemented},
		{"Reanalyse wrong method", http.MethodGet, "/v1/uploads/" + uuid.NewString() + "/analyze", http.StatusMethodNotAllowed},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rr := do(router, test.method, test.path, "")
			if rr.Code != test.statusCode {
				t.Errorf("Expected status %d, got %d", test.statusCode, rr.Code)
			}
		})
	}
}

func TestPingSetsRequestID(t *testing.T) {
	rr := do(newTestRouter(nil, 0), http.MethodGet, "/ping", "")
	assert.Equal(t, `{"status":"ok"}`, strings.TrimSpace(rr.Body.String()))
	_, err := uuid.Parse(rr.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}

func TestAnalyze(t *testing.T) {
	rr := do(newTestRouter(nil, 0), http.MethodPost, "/v1/analyze", validCSV())
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.AnalysisResult)
	assert.Empty(t, resp.ID)
	assert.Equal(t, 10, resp.Summary.TotalTransactions)
	assert.Equal(t, 3450.0, resp.Summary.TotalRevenue)
	assert.Len(t, resp.Locations, 2)
	assert.Nil(t, resp.Weather)
}

func TestAnalyzeWeatherUnavailable(t *testing.T) {
	rr := do(newTestRouter(nil, 0), http.MethodPost, "/v1/analyze?weather=true", validCSV())
	require.Equal(t, http.StatusOK, rr.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotNil(t, resp.Weather)
	assert.False(t, resp.Weather.HasWeatherData)
}

func TestAnalyzeStoreAndFetch(t *testing.T) {
	store := newMemoryStore()
	router := newTestRouter(store, 0)

	rr := do(router, http.MethodPost, "/v1/analyze?store=true&filename=mei.csv", validCSV())
	require.Equal(t, http.StatusOK, rr.Code)
	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	require.Len(t, store.uploads, 1)
	assert.Equal(t, "mei.csv", store.uploads[0].Filename)
	assert.Equal(t, 10, store.uploads[0].Summary.SuccessfulRows)

	rr = do(router, http.MethodGet, "/v1/analyses/"+resp.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/v1/analyses/"+uuid.NewString(), "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/v1/analyses/not-a-uuid", "").Code)
}

func TestStoredRecordsAndReanalyse(t *testing.T) {
	router := newTestRouter(newMemoryStore(), 0)

	rr := do(router, http.MethodPost, "/v1/analyze?store=true", validCSV())
	require.Equal(t, http.StatusOK, rr.Code)
	var stored AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stored))
	require.NotEmpty(t, stored.UploadID)

	rr = do(router, http.MethodGet, "/v1/uploads/"+stored.UploadID+"/records", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var records RecordsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	assert.Equal(t, stored.UploadID, records.UploadID)
	require.Len(t, records.Records, 10)
	assert.Equal(t, "Museumplein", records.Records[0].Location)

	rr = do(router, http.MethodPost, "/v1/uploads/"+stored.UploadID+"/analyze?weather=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var again AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &again))
	assert.Equal(t, stored.UploadID, again.UploadID)
	assert.Equal(t, stored.Summary.TotalRevenue, again.Summary.TotalRevenue)
	require.NotNil(t, again.Weather)
	assert.False(t, again.Weather.HasWeatherData)

	missing := "/v1/uploads/" + uuid.NewString()
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, missing+"/records", "").Code)
	assert.Equal(t, http.StatusNotFound, do(router, http.MethodPost, missing+"/analyze", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/v1/uploads/nope/records", "").Code)
}

func TestAnalyzeErrors(t *testing.T) {
	router := newTestRouter(nil, 0)

	rr := do(router, http.MethodPost, "/v1/analyze", "2024-01-15,Dam,100\n2024-01-15,Dam,100\n")
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.Status)
	require.NotNil(t, errResp.Validation)
	assert.False(t, errResp.Validation.IsValid)

	assert.Equal(t, http.StatusUnsupportedMediaType, do(router, http.MethodPost, "/v1/analyze", "PK\x03\x04xlsx").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(router, http.MethodPost, "/v1/analyze", "datum,locatie,omzet\n").Code)

	small := newTestRouter(nil, 16)
	assert.Equal(t, http.StatusRequestEntityTooLarge, do(small, http.MethodPost, "/v1/analyze", validCSV()).Code)
}

func TestValidate(t *testing.T) {
	rr := do(newTestRouter(nil, 0), http.MethodPost, "/v1/validate", "datum,locatie,omzet\n2024-01-15,Dam,100\nkapot\n")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ValidateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.SeparatorComma, resp.Format.Separator)
	assert.True(t, resp.Format.HasHeaders)
	assert.Equal(t, 1, resp.Parse.SuccessfulRows)
	assert.Len(t, resp.Errors, 1)
	assert.False(t, resp.Validation.IsValid)
	assert.Contains(t, resp.Report, "DATA VALIDATIE RAPPORT")
}

func TestReport(t *testing.T) {
	rr := do(newTestRouter(nil, 0), http.MethodPost, "/v1/report", validCSV())
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Omzet per locatie")
}
