package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matchmate/internal/domain"
	domlisting "github.com/kailas-cloud/matchmate/internal/domain/listing"
	dommatch "github.com/kailas-cloud/matchmate/internal/domain/match"
	logpkg "github.com/kailas-cloud/matchmate/internal/logger"
	"github.com/kailas-cloud/matchmate/internal/metrics"
	healthuc "github.com/kailas-cloud/matchmate/internal/usecase/health"
	"github.com/kailas-cloud/matchmate/internal/version"
)

// maxBodyBytes caps request bodies; listings are well under this.
const maxBodyBytes = 1 << 20

// Matcher ranks candidate listings.
type Matcher interface {
	Match(ctx context.Context, req *dommatch.Request) ([]dommatch.Result, error)
}

// ListingService manages the listing lifecycle.
type ListingService interface {
	Create(ctx context.Context, l *domlisting.Listing) (domlisting.Listing, error)
	Get(ctx context.Context, id string) (domlisting.Listing, error)
	Update(ctx context.Context, id string, l *domlisting.Listing) (domlisting.Listing, error)
	Close(ctx context.Context, id string) (domlisting.Listing, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// MatchLimits bounds top_n on search requests.
type MatchLimits struct {
	DefaultTopN int
	MaxTopN     int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the matchmate HTTP API.
type Server struct {
	matcher       Matcher
	listings      ListingService
	health        HealthChecker
	limits        MatchLimits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(matcher Matcher, listings ListingService, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		matcher:  matcher,
		listings: listings,
		health:   health,
		limits:   MatchLimits{DefaultTopN: dommatch.DefaultTopN, MaxTopN: dommatch.MaxTopN},
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeListingNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorCodeListingExists),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, ErrorCodeQuotaExceeded),
		sentinelHandler(domain.ErrCandidateStoreUnavailable, http.StatusServiceUnavailable, ErrorCodeStoreUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, ErrorCodeProviderError),
	}
	return s
}

// WithLimits overrides the top_n default and ceiling.
func (s *Server) WithLimits(l MatchLimits) *Server {
	if l.DefaultTopN > 0 {
		s.limits.DefaultTopN = l.DefaultTopN
	}
	if l.MaxTopN > 0 {
		s.limits.MaxTopN = l.MaxTopN
	}
	return s
}

// Handler builds the chi router with the full middleware chain.
func (s *Server) Handler(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeRouteNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/matches", s.Match)
		r.Post("/listings", s.CreateListing)
		r.Get("/listings/{id}", s.GetListing)
		r.Put("/listings/{id}", s.UpdateListing)
		r.Post("/listings/{id}/close", s.CloseListing)
	})
	return r
}

// Match handles POST /v1/matches.
func (s *Server) Match(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	matchReq, err := s.matchRequestFromDTO(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ctx = logpkg.With(ctx, zap.String("searcher_id", matchReq.SearcherID()))
	results, err := s.matcher.Match(ctx, &matchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]MatchResultItem, len(results))
	for i := range results {
		items[i] = matchResultToResponse(&results[i])
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, MatchResponse{Items: items, Total: len(items)})
}

func (s *Server) matchRequestFromDTO(req *MatchRequest) (dommatch.Request, error) {
	t, err := domlisting.ParseType(req.ListingType)
	if err != nil {
		return dommatch.Request{}, err
	}

	topN := s.limits.DefaultTopN
	if req.TopN != nil {
		if *req.TopN <= 0 || *req.TopN > s.limits.MaxTopN {
			return dommatch.Request{}, fmt.Errorf("top_n must be between 1 and %d", s.limits.MaxTopN)
		}
		topN = *req.TopN
	}

	mr, err := dommatch.NewRequest(
		req.SearcherID, t, req.Description, req.Keywords, req.Filters, topN, dommatch.Strategy(req.Strategy),
	)
	if err != nil {
		return dommatch.Request{}, fmt.Errorf("build match request: %w", err)
	}
	return mr, nil
}

// CreateListing handles POST /v1/listings.
func (s *Server) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req ListingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	l, err := listingFromRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	created, err := s.listings.Create(ctx, &l)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/v1/listings/"+created.ID)
	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusCreated, listingToResponse(&created))
}

// GetListing handles GET /v1/listings/{id}.
func (s *Server) GetListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingToResponse(&l))
}

// UpdateListing handles PUT /v1/listings/{id}.
func (s *Server) UpdateListing(w http.ResponseWriter, r *http.Request) {
	var req ListingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	l, err := listingFromRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	updated, err := s.listings.Update(ctx, chi.URLParam(r, "id"), &l)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, listingToResponse(&updated))
}

// CloseListing handles POST /v1/listings/{id}/close.
func (s *Server) CloseListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.listings.Close(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingToResponse(&l))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// Degraded still serves matches through fallbacks.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if n := usage.EmbeddingTokens(); n > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(n))
	}
	if n := usage.CompletionTokens(); n > 0 {
		w.Header().Set("X-Completion-Tokens", strconv.Itoa(n))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		// Validation messages are written for the caller.
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrQuotaExceeded,
		domain.ErrCandidateStoreUnavailable,
		domain.ErrEmbeddingProviderError,
		domain.ErrCompletionProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
