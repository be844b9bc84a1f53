package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/peruna/internal/domain"
	"github.com/kailas-cloud/peruna/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/peruna/internal/logger"
	chatuc "github.com/kailas-cloud/peruna/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/peruna/internal/usecase/health"
	"github.com/kailas-cloud/peruna/internal/usecase/retrieval"
)

const maxSearchK = 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the chat widget API.
type Server struct {
	chat          *chatuc.Service
	search        *retrieval.Engine
	health        *healthuc.Service
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat *chatuc.Service,
	search *retrieval.Engine,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		chat:     chat,
		search:   search,
		health:   health,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeInvalidQuery),
	}
	return s
}

// Routes mounts the API handlers on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/greeting", s.Greeting)
	r.Post("/chat", s.Chat)
	r.Get("/search", s.Search)
	r.Get("/categories/{category}/search", s.CategorySearch)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Greeting handles GET /greeting.
func (s *Server) Greeting(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, replyToResponse(s.chat.Greeting()))
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	reply, err := s.chat.Respond(r.Context(), req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			s.handleDomainError(w, err)
			return
		}
		logpkg.FromContext(r.Context()).Warn("Chat reply fell back", zap.Error(err))
		reply = s.chat.Fallback()
	}
	writeJSON(w, http.StatusOK, replyToResponse(reply))
}

// Search handles GET /search?q=&k=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var q string
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter q: "+err.Error())
		return
	}
	k, ok := bindK(w, r)
	if !ok {
		return
	}

	out := s.search.Retrieve(r.Context(), q, k)
	writeJSON(w, http.StatusOK, outcomeToResponse(q, out))
}

// CategorySearch handles GET /categories/{category}/search?k=.
func (s *Server) CategorySearch(w http.ResponseWriter, r *http.Request) {
	var category string
	err := runtime.BindStyledParameterWithOptions("simple", "category", gochi.URLParam(r, "category"), &category,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter category: "+err.Error())
		return
	}
	k, ok := bindK(w, r)
	if !ok {
		return
	}

	out := s.search.RetrieveByCategory(r.Context(), category, k)
	writeJSON(w, http.StatusOK, outcomeToResponse(s.search.CategoryQuery(category), out))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindK reads the optional k parameter; 0 means the engine default.
func bindK(w http.ResponseWriter, r *http.Request) (int, bool) {
	var k int
	if err := runtime.BindQueryParameter("form", true, false, "k", r.URL.Query(), &k); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter k: "+err.Error())
		return 0, false
	}
	if k < 0 || k > maxSearchK {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("k must be between 1 and %d", maxSearchK))
		return 0, false
	}
	return k, true
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

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, e := range verrs {
		fields[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    ErrorCodeValidationFailed,
		Message: "request validation failed",
		Fields:  fields,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
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

func replyToResponse(r chatuc.Reply) ReplyResponse {
	opts := r.Options
	if opts == nil {
		opts = []string{}
	}
	return ReplyResponse{
		ID:      r.ID,
		Kind:    string(r.Kind),
		Text:    r.Text,
		Options: opts,
		Sources: r.Sources,
	}
}

func outcomeToResponse(query string, out retrieval.Outcome) SearchResponse {
	items := make([]SearchResultItem, len(out.Matches))
	for i := range out.Matches {
		items[i] = matchToItem(&out.Matches[i])
	}
	return SearchResponse{Query: query, Results: items, Degraded: out.Degraded}
}

func matchToItem(m *result.Match) SearchResultItem {
	d := m.Document()
	meta := d.Metadata()
	return SearchResultItem{
		ID:                d.ID(),
		Title:             d.Title(),
		Text:              d.Text(),
		Category:          d.Category(),
		Tags:              d.Tags(),
		Score:             m.Score(),
		GroupType:         meta.GroupType,
		Duration:          meta.Duration,
		RecruitmentPeriod: meta.RecruitmentPeriod,
		ContactName:       meta.ContactName,
		ContactEmail:      meta.ContactEmail,
	}
}
