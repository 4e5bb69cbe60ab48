package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	appMiddleware "github.com/markdave123-py/resumex/internal/api/middlewares"
	"github.com/markdave123-py/resumex/internal/logger"
	"github.com/markdave123-py/resumex/internal/models"
	"github.com/markdave123-py/resumex/internal/services"
)

// ResumeService is the part of services.ResumeService the handlers need.
type ResumeService interface {
	Ingest(ctx context.Context, filename, contentType string, data []byte) *models.IngestResult
	Search(ctx context.Context, q models.CandidateQuery, similar string) ([]models.Candidate, error)
	Candidate(ctx context.Context, id string) (*models.Candidate, error)
	OpenResume(ctx context.Context, id string) (io.ReadCloser, string, error)
	Reparse(ctx context.Context, id string) (*models.ExtractionRecord, error)
}

var _ ResumeService = (*services.ResumeService)(nil)

// Request deadlines. Uploads get longer for extraction, NER and archiving.
const (
	RequestTimeout = 60 * time.Second
	UploadTimeout  = 2 * time.Minute
)

type ResumeHandler struct {
	svc      ResumeService
	maxBytes int64
	log      *zap.Logger
}

func NewResumeHandler(svc ResumeService, maxUploadMB int, log *zap.Logger) *ResumeHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 16
	}
	return &ResumeHandler{svc: svc, maxBytes: int64(maxUploadMB) << 20, log: logger.OrNop(log).Named("http")}
}

// Upload parses a résumé sent as the multipart field "file".
func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file too large"})
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.log.Warn("reading upload failed", zap.String("filename", header.Filename), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable file"})
		return
	}

	filename := filepath.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(r.Context(), UploadTimeout)
	defer cancel()

	h.log.Info("résumé uploaded",
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
		zap.String("subject", appMiddleware.Subject(r.Context())),
	)
	res := h.svc.Ingest(ctx, filename, contentType, data)
	writeJSON(w, http.StatusOK, res)
}

// Search lists candidates by ?skill=, ?q= or ?similar=. Store errors yield [].
func (h *ResumeHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := models.CandidateQuery{
		Skill: params.Get("skill"),
		Text:  params.Get("q"),
	}
	if limit, err := strconv.Atoi(params.Get("limit")); err == nil {
		q.Limit = limit
	}

	results, err := h.svc.Search(r.Context(), q, params.Get("similar"))
	if err != nil {
		h.log.Warn("search failed",
			zap.String("skill", logger.Truncate(q.Skill, 64)),
			zap.String("q", logger.Truncate(q.Text, 64)),
			zap.String("similar", logger.Truncate(params.Get("similar"), 64)),
			zap.Error(err),
		)
		results = []models.Candidate{}
	}
	if results == nil {
		results = []models.Candidate{}
	}
	writeJSON(w, http.StatusOK, results)
}

// GetCandidate returns the stored candidate {id}.
func (h *ResumeHandler) GetCandidate(w http.ResponseWriter, r *http.Request) {
	cand, err := h.svc.Candidate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cand)
}

// DownloadResume streams the archived original file of candidate {id}.
func (h *ResumeHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	rc, name, err := h.svc.OpenResume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn("streaming résumé failed", zap.String("candidate_id", chi.URLParam(r, "id")), zap.Error(err))
	}
}

// Reparse re-extracts the archived original of candidate {id}.
func (h *ResumeHandler) Reparse(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Reparse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ResumeHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, services.ErrSearchUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		h.log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *ResumeHandler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
