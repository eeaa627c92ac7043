package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/dnayak/lifelog/internal/domain"
	"github.com/dnayak/lifelog/internal/importer"
	"github.com/dnayak/lifelog/internal/limiter"
	"github.com/dnayak/lifelog/internal/store"
)

// Bulk-import bodies are capped well above expected batch sizes (hundreds of
// rows) but low enough to keep a single request from ballooning memory.
const maxImportBodyBytes = 16 << 20

type ImportHandler struct {
	pipeline *importer.Pipeline
	cache    *store.TypeCache
	limiter  *limiter.ImportLimiter
}

func NewImportHandler(p *importer.Pipeline, cache *store.TypeCache, lim *limiter.ImportLimiter) *ImportHandler {
	return &ImportHandler{pipeline: p, cache: cache, limiter: lim}
}

type structuredBatch struct {
	Events []importer.Record `json:"events"`
}

// Batch handles structured-batch mode. The body is either
// {"events": [...]} or a bare array of the same record shape.
func (h *ImportHandler) Batch(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if !h.limiter.Allow(r.Context(), owner) {
		respondError(w, http.StatusTooManyRequests, "too many imports, slow down")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	records, err := decodeBatch(body)
	if err != nil {
		respondDomainError(w, err, "import failed")
		return
	}

	report := h.pipeline.ImportBatch(r.Context(), owner, records)
	if report.Imported > 0 {
		h.cache.Invalidate(r.Context(), owner)
	}
	respondJSON(w, http.StatusOK, report)
}

// CSV handles text mode: the request body is the raw delimited text.
func (h *ImportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)
	if !h.limiter.Allow(r.Context(), owner) {
		respondError(w, http.StatusTooManyRequests, "too many imports, slow down")
		return
	}

	report, err := h.pipeline.ImportCSV(r.Context(), owner, http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err != nil {
		respondDomainError(w, err, "import failed")
		return
	}
	if report.Imported > 0 {
		h.cache.Invalidate(r.Context(), owner)
	}
	respondJSON(w, http.StatusOK, report)
}

// Preview dry-runs a delimited-text import: no writes, bounded sample.
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.pipeline.PreviewCSV(http.MaxBytesReader(w, r.Body, maxImportBodyBytes))
	if err != nil {
		respondDomainError(w, err, "preview failed")
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

func decodeBatch(body []byte) ([]importer.Record, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, domain.Validationf("request body is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	if trimmed[0] == '[' {
		var records []importer.Record
		if err := dec.Decode(&records); err != nil {
			return nil, domain.Validationf("invalid request body")
		}
		return records, nil
	}

	var batch structuredBatch
	if err := dec.Decode(&batch); err != nil {
		return nil, domain.Validationf("invalid request body")
	}
	if batch.Events == nil {
		return nil, domain.Validationf("events is required")
	}
	return batch.Events, nil
}
