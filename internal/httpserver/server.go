package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/adlens/insight/internal/config"
	"github.com/adlens/insight/internal/dashboard"
	"github.com/adlens/insight/internal/metrics"
	"github.com/adlens/insight/internal/report"
	"go.uber.org/zap"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	Config       *config.Config
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Orchestrator *dashboard.Orchestrator
}

// Server exposes the dashboard pipeline over HTTP.
type Server struct {
	orch    *dashboard.Orchestrator
	logger  *zap.Logger
	config  *config.Config
	metrics *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	s := &Server{
		orch:    deps.Orchestrator,
		logger:  deps.Logger,
		config:  deps.Config,
		metrics: deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Dashboard
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/dashboard/refresh", s.handleRefresh)
	mux.HandleFunc("/dashboard/export.csv", s.handleExport)
	mux.HandleFunc("/dashboard/kpi", s.handleKPI)

	// Clients
	mux.HandleFunc("/clients", s.handleClients)

	return mux
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ---- Dashboard ----

// handleDashboard applies any filter parameters present in the query and
// returns the resulting view. Absent parameters leave the current filter
// values untouched, so a bare GET just reads the current state.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.applyFilters(r); err != nil {
		s.errorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.jsonResponse(w, s.orch.View())
}

func (s *Server) applyFilters(r *http.Request) error {
	q := r.URL.Query()

	startStr := q.Get("start")
	endStr := q.Get("end")
	if startStr != "" || endStr != "" {
		cur := s.orch.Filters().Range
		if startStr == "" {
			startStr = cur.Start.Format("2006-01-02")
		}
		if endStr == "" {
			endStr = cur.End.Format("2006-01-02")
		}
		dr, err := report.ParseDateRange(startStr, endStr)
		if err != nil {
			return err
		}
		s.orch.SetDateRange(dr)
	}

	if q.Has("view") {
		switch v := dashboard.ViewKind(q.Get("view")); v {
		case dashboard.ViewCampaign, dashboard.ViewSeller:
			s.orch.SetView(v)
		default:
			return &report.ConfigError{Msg: "view must be campaign or seller"}
		}
	}

	if q.Has("campaign") {
		s.orch.SetCampaign(q.Get("campaign"))
	}

	if q.Has("search") {
		s.orch.SetSearch(q.Get("search"))
	}

	if q.Has("page_size") {
		size, err := strconv.Atoi(q.Get("page_size"))
		if err != nil {
			return &report.ConfigError{Msg: "page_size must be an integer"}
		}
		if err := s.orch.SetPageSize(size); err != nil {
			return err
		}
	}

	if q.Has("page") {
		page, err := strconv.Atoi(q.Get("page"))
		if err != nil {
			return &report.ConfigError{Msg: "page must be an integer"}
		}
		s.orch.SetPage(page)
	}

	return nil
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.orch.Refresh(r.Context()); err != nil {
		s.logger.Error("refresh failed", zap.Error(err))
	}

	s.jsonResponse(w, s.orch.View())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="report.csv"`)
	if err := s.orch.WriteCSV(w); err != nil {
		s.logger.Error("csv export failed", zap.Error(err))
	}
}

// ---- KPI preference ----

func (s *Server) handleKPI(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.jsonResponse(w, map[string]string{"kpiTarget": s.orch.KPITarget()})

	case http.MethodPut:
		var body struct {
			KPITarget string `json:"kpiTarget"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.orch.SetKPITarget(r.Context(), body.KPITarget); err != nil {
			s.logger.Error("failed to store kpi target", zap.Error(err))
			s.errorResponse(w, "failed to store kpi target", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, map[string]string{"kpiTarget": body.KPITarget})

	case http.MethodDelete:
		if err := s.orch.ClearKPITarget(r.Context()); err != nil {
			s.logger.Error("failed to clear kpi target", zap.Error(err))
			s.errorResponse(w, "failed to clear kpi target", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Clients ----

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.jsonResponse(w, s.orch.Clients())
}

// ---- Helper Methods ----

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
