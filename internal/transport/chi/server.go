package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docapi/internal/domain"
	"github.com/kailas-cloud/docapi/internal/domain/filter"
	logpkg "github.com/kailas-cloud/docapi/internal/logger"
	documentuc "github.com/kailas-cloud/docapi/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docapi/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/docapi/internal/usecase/ingest"
)

// DefaultMaxUploadBytes caps the multipart body of insert_csv.
const DefaultMaxUploadBytes = 32 << 20

// uploadField is the multipart form field carrying the CSV.
const uploadField = "file"

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory before spilling to disk.
const multipartMemory = 8 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the document HTTP API.
type Server struct {
	documents      *documentuc.Service
	ingest         *ingestuc.Service
	health         *healthuc.Service
	logger         *zap.Logger
	validate       *validator.Validate
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	documents *documentuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents:      documents,
		ingest:         ingest,
		health:         health,
		logger:         logger,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		maxUploadBytes: DefaultMaxUploadBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, ErrorCodeValidationFailed),
		invalidCSVHandler,
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
	}
	return s
}

// WithMaxUploadBytes overrides the insert_csv body limit. Non-positive values keep the default.
func (s *Server) WithMaxUploadBytes(n int64) *Server {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.Post("/get_by_filters", s.GetByFilters)
		r.Post("/delete_by_filters", s.DeleteByFilters)
		r.Post("/insert_csv", s.InsertCSV)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})
}

// GetByFilters handles POST /documents/get_by_filters.
func (s *Server) GetByFilters(w http.ResponseWriter, r *http.Request) {
	f, ok := s.decodeFilter(w, r)
	if !ok {
		return
	}

	docs, err := s.documents.GetByFilters(r.Context(), f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentToResponse(&docs[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// DeleteByFilters handles POST /documents/delete_by_filters.
func (s *Server) DeleteByFilters(w http.ResponseWriter, r *http.Request) {
	f, ok := s.decodeFilter(w, r)
	if !ok {
		return
	}

	n, err := s.documents.DeleteByFilters(r.Context(), f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logpkg.FromContext(r.Context()).Debug("Documents deleted", zap.Int("count", n))
	writeJSON(w, http.StatusOK, true)
}

// InsertCSV handles POST /documents/insert_csv.
func (s *Server) InsertCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "multipart field \"file\" is required")
		return
	}
	defer func() { _ = file.Close() }()

	res, err := s.ingest.Ingest(r.Context(), header.Filename, file)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logpkg.FromContext(r.Context()).Info("CSV ingested",
		zap.String("filename", res.Filename),
		zap.String("staged_path", res.StagedPath),
		zap.Int("rows", res.Rows),
		zap.Int("chunks", res.Chunks),
	)
	writeJSON(w, http.StatusOK, res.Message())
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	resp := HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	}
	if report.Documents >= 0 {
		n := report.Documents
		resp.Documents = &n
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeFilter reads a FilterRequest. An empty body means no filter.
func (s *Server) decodeFilter(w http.ResponseWriter, r *http.Request) (filter.Filter, bool) {
	var req FilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "invalid request body: "+err.Error())
		return filter.Filter{}, false
	}

	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return filter.Filter{}, false
	}

	f, err := filter.New(filterFields(req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return filter.Filter{}, false
	}
	return f, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return "invalid filters: " + fe.Field() + " failed " + fe.Tag()
	}
	return "invalid filters"
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
	var mce *domain.MissingColumnsError
	if errors.As(err, &mce) {
		return mce.Error()
	}

	sentinels := []error{
		domain.ErrInvalidFilter,
		domain.ErrInvalidCSV,
		domain.ErrEmbeddingProviderError,
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

// invalidCSVHandler reports ErrInvalidCSV along with the missing columns, if known.
func invalidCSVHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidCSV) {
		return false
	}
	var mce *domain.MissingColumnsError
	if errors.As(err, &mce) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":            ErrorCodeInvalidCSV,
			"message":         msg,
			"missing_columns": mce.Columns,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, ErrorCodeInvalidCSV, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := s.requestLogger(r)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

// requestLogger prefers the per-request logger placed in the context by the access log middleware.
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if l := logpkg.FromContext(r.Context()); l.Core().Enabled(zap.FatalLevel) {
		return l
	}
	return s.logger
}
