package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"weeromzet/models"
	"weeromzet/report"
	"weeromzet/services"
	"weeromzet/storage"
	"weeromzet/utils"
)

const (
	weatherQueryArg  = "weather"
	storeQueryArg    = "store"
	filenameQueryArg = "filename"
)

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Status     int                      `json:"status"`
	Message    string                   `json:"message"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
}

// AnalyzeResponse wraps a result with its storage IDs when it was persisted.
type AnalyzeResponse struct {
	ID       string `json:"id,omitempty"`
	UploadID string `json:"upload_id,omitempty"`
	*models.AnalysisResult
}

// RecordsResponse lists the stored records of one upload.
type RecordsResponse struct {
	UploadID string               `json:"upload_id"`
	Records  []models.SalesRecord `json:"records"`
}

// ValidateResponse is the dry-run answer of /v1/validate.
type ValidateResponse struct {
	Format     models.DetectedFormat    `json:"detected_format"`
	Parse      models.ParseSummary      `json:"parse"`
	Errors     []models.ParseError      `json:"parse_errors"`
	Validation *models.ValidationResult `json:"validation"`
	Report     string                   `json:"report"`
}

// AnalysisHandler serves the upload endpoints.
type AnalysisHandler struct {
	pipeline *services.Pipeline
	store    storage.ResultStore
	maxBytes int
	logger   *utils.Logger
}

// NewAnalysisHandler creates the handler. store may be nil.
func NewAnalysisHandler(pipeline *services.Pipeline, store storage.ResultStore, maxBytes int, logger *utils.Logger) *AnalysisHandler {
	if maxBytes <= 0 {
		maxBytes = services.DefaultMaxPayloadBytes
	}
	return &AnalysisHandler{pipeline: pipeline, store: store, maxBytes: maxBytes, logger: logger}
}

// Analyze runs the full pipeline on the raw request body.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readBody(w, r)
	if !ok {
		return
	}

	result, records, err := h.pipeline.Run(r.Context(), payload, boolArg(r, weatherQueryArg))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := AnalyzeResponse{AnalysisResult: result}
	if h.store != nil && boolArg(r, storeQueryArg) {
		upload := storage.Upload{
			ID:       uuid.New(),
			Filename: r.URL.Query().Get(filenameQueryArg),
			Format:   *result.Format,
			Summary:  *result.Parse,
		}
		id, err := h.store.SaveAnalysis(r.Context(), upload, records, result)
		if err != nil {
			h.logger.Error("[server] Storing analysis failed: %v", err)
		} else {
			resp.ID = id.String()
			resp.UploadID = upload.ID.String()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Validate parses and validates without analysing.
func (h *AnalysisHandler) Validate(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readBody(w, r)
	if !ok {
		return
	}

	parsed, checks, err := h.pipeline.Ingest(payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ValidateResponse{
		Format:     parsed.Format,
		Parse:      parsed.Summary,
		Errors:     parsed.Errors,
		Validation: checks,
		Report:     services.GenerateReport(checks),
	})
}

// Report returns the analysis as an HTML chart page.
func (h *AnalysisHandler) Report(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readBody(w, r)
	if !ok {
		return
	}

	result, _, err := h.pipeline.Run(r.Context(), payload, boolArg(r, weatherQueryArg))
	if err != nil {
		h.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, result); err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GetAnalysis returns a stored result by ID.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := h.storedID(w, r, "ongeldig analyse id")
	if !ok {
		return
	}

	result, err := h.store.FetchAnalysis(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{ID: id.String(), AnalysisResult: result})
}

// GetRecords returns the stored records of an upload.
func (h *AnalysisHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := h.storedID(w, r, "ongeldig upload id")
	if !ok {
		return
	}

	records, err := h.store.FetchRecords(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecordsResponse{UploadID: id.String(), Records: records})
}

// Reanalyse runs the analysis again on the stored records of an upload,
// optionally with weather data that was not requested the first time.
func (h *AnalysisHandler) Reanalyse(w http.ResponseWriter, r *http.Request) {
	id, ok := h.storedID(w, r, "ongeldig upload id")
	if !ok {
		return
	}

	records, err := h.store.FetchRecords(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	result, err := h.pipeline.Reanalyse(r.Context(), records, boolArg(r, weatherQueryArg))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{UploadID: id.String(), AnalysisResult: result})
}

// Ping is the liveness probe.
func (h *AnalysisHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// storedID checks that a store is configured and parses the {id} route var.
func (h *AnalysisHandler) storedID(w http.ResponseWriter, r *http.Request, invalid string) (uuid.UUID, bool) {
	if h.store == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Status: http.StatusNotImplemented, Message: "opslag is niet geconfigureerd"})
		return uuid.Nil, false
	}
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Status: http.StatusBadRequest, Message: invalid})
		return uuid.Nil, false
	}
	return id, true
}

func (h *AnalysisHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	defer r.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(r.Body, int64(h.maxBytes)+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Status: http.StatusBadRequest, Message: "kon upload niet lezen"})
		return nil, false
	}
	if len(payload) > h.maxBytes {
		h.writeError(w, models.ErrPayloadTooLarge)
		return nil, false
	}
	return payload, true
}

// writeError maps pipeline errors onto HTTP statuses.
func (h *AnalysisHandler) writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Status: http.StatusInternalServerError, Message: err.Error()}

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		resp.Status = http.StatusUnprocessableEntity
		resp.Validation = verr.Result
	case errors.Is(err, models.ErrPayloadTooLarge):
		resp.Status = http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrBinaryContent):
		resp.Status = http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrEmptyDataset):
		resp.Status = http.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound):
		resp.Status = http.StatusNotFound
	default:
		h.logger.Error("[server] Request failed: %v", err)
		resp.Message = "interne fout"
	}
	writeJSON(w, resp.Status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func boolArg(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
