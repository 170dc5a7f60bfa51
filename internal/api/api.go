package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/trustscope/trustscope/internal/analysis"
	"github.com/trustscope/trustscope/internal/comments"
	"github.com/trustscope/trustscope/internal/disclosure"
	"github.com/trustscope/trustscope/internal/validation"
)

const maxBodyBytes = 1 << 20

// Analyzer runs and loads analyses
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Record, error)
	Get(ctx context.Context, id uuid.UUID) (*analysis.Record, error)
}

// CommentService stores and lists comments
type CommentService interface {
	Submit(ctx context.Context, target string, sub comments.Submission) (*comments.Comment, error)
	List(ctx context.Context, target string) (*comments.Listing, error)
	MarkHelpful(ctx context.Context, id uuid.UUID) (int, error)
}

// Options configures the API
type Options struct {
	Analyses  Analyzer
	Comments  CommentService
	Policy    *disclosure.Policy
	JWTSecret []byte
	RateLimit int // requests per minute per client, 0 disables
	Health    func(ctx context.Context) error
	Logger    hclog.Logger
}

// API handles HTTP API requests
type API struct {
	analyses  Analyzer
	comments  CommentService
	policy    *disclosure.Policy
	jwtSecret []byte
	limiter   *clientLimiter
	health    func(ctx context.Context) error
	logger    hclog.Logger
}

// New creates a new API handler
func New(opts Options) *API {
	if opts.Policy == nil {
		opts.Policy = disclosure.New(disclosure.ModeServer)
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &API{
		analyses:  opts.Analyses,
		comments:  opts.Comments,
		policy:    opts.Policy,
		jwtSecret: opts.JWTSecret,
		limiter:   newClientLimiter(opts.RateLimit, limiterIdleTTL),
		health:    opts.Health,
		logger:    opts.Logger.Named("api"),
	}
}

// Router creates the API router
func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(a.rateLimit)
	r.Use(a.viewer)

	r.Get("/healthz", a.healthz)
	r.Post("/analyze", a.analyze)
	r.Get("/analyses/{id}", a.getAnalysis)
	r.Get("/targets/{target}/comments", a.listComments)
	r.Post("/targets/{target}/comments", a.submitComment)
	r.Post("/comments/{id}/helpful", a.markHelpful)

	return r
}

// Response wraps API responses
type Response struct {
	Data  interface{} `json:"data,omitempty"`
	Meta  *Meta       `json:"meta,omitempty"`
	Error *ErrorMsg   `json:"error,omitempty"`
}

// Meta contains listing metadata
type Meta struct {
	Total int    `json:"total"`
	Time  string `json:"timestamp"`
}

// ErrorMsg represents an error response. Field names the offending input for
// validation failures.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// AnalysisView is an analysis as returned to a viewer
type AnalysisView struct {
	ID         uuid.UUID `json:"id"`
	AnalyzedAt time.Time `json:"analyzedAt"`
	disclosure.View
}

// healthz handles GET /healthz
func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health(r.Context()); err != nil {
			a.logger.Error("health check failed", "error", err)
			respondError(w, http.StatusServiceUnavailable, "unhealthy", "Dependency check failed")
			return
		}
	}
	respondJSON(w, http.StatusOK, Response{Data: map[string]string{"status": "ok"}})
}

// analyze handles POST /analyze
func (a *API) analyze(w http.ResponseWriter, r *http.Request) {
	var req analysis.Request
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := a.analyses.Analyze(r.Context(), req)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Data: a.analysisView(r, rec)})
}

// getAnalysis handles GET /analyses/{id}
func (a *API) getAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", "Invalid analysis ID")
		return
	}

	rec, err := a.analyses.Get(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Data: a.analysisView(r, rec)})
}

// analysisView gates rec for the current viewer, attaching the domain's comments
func (a *API) analysisView(r *http.Request, rec *analysis.Record) AnalysisView {
	listing, err := a.comments.List(r.Context(), rec.Result.Domain)
	if err != nil {
		a.logger.Warn("loading comments failed", "domain", rec.Result.Domain, "error", err)
		listing = nil
	}

	return AnalysisView{
		ID:         rec.ID,
		AnalyzedAt: rec.AnalyzedAt,
		View:       a.policy.Envelope(rec.Result, ViewerFrom(r.Context()), listing),
	}
}

// listComments handles GET /targets/{target}/comments
func (a *API) listComments(w http.ResponseWriter, r *http.Request) {
	listing, err := a.comments.List(r.Context(), chi.URLParam(r, "target"))
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Data: a.policy.Comments(listing, ViewerFrom(r.Context())),
		Meta: &Meta{
			Total: listing.Summary.TotalComments,
			Time:  time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// submitComment handles POST /targets/{target}/comments
func (a *API) submitComment(w http.ResponseWriter, r *http.Request) {
	var sub comments.Submission
	if !decodeBody(w, r, &sub) {
		return
	}

	c, err := a.comments.Submit(r.Context(), chi.URLParam(r, "target"), sub)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{Data: c})
}

// markHelpful handles POST /comments/{id}/helpful
func (a *API) markHelpful(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_id", "Invalid comment ID")
		return
	}

	count, err := a.comments.MarkHelpful(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Data: map[string]interface{}{
		"id":            id,
		"helpful_count": count,
	}})
}

// decodeBody reads a JSON request body into v, answering 400 itself on failure.
// A value of the wrong type is reported against its field.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		respondJSON(w, http.StatusBadRequest, Response{Error: &ErrorMsg{
			Code:    "invalid_input",
			Message: fmt.Sprintf("%s: must be of type %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
			Field:   typeErr.Field,
		}})
		return false
	}

	respondError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
	return false
}

// respondServiceError maps service errors onto status codes
func (a *API) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, Response{Error: &ErrorMsg{
			Code:    "invalid_input",
			Message: verr.Error(),
			Field:   verr.Field,
		}})
	case errors.Is(err, analysis.ErrNotFound), errors.Is(err, comments.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		a.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, Response{
		Error: &ErrorMsg{
			Code:    code,
			Message: message,
		},
	})
}
