package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/pbaille/contentforge/internal/metrics"
	"github.com/pbaille/contentforge/internal/persist"
	"github.com/pbaille/contentforge/internal/planner"
	"github.com/pbaille/contentforge/internal/session"
	"github.com/pbaille/contentforge/internal/tier"
	"github.com/pbaille/contentforge/internal/workflow"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// errForbidden marks an operation the current plan does not include
var errForbidden = errors.New("not available on this plan")

// Options wires a Server to its collaborators
type Options struct {
	Addr     string
	Tier     tier.Tier
	Planner  *planner.Store
	Session  *session.Session
	Backend  persist.Backend
	Workflow workflow.Deps
	Log      logrus.FieldLogger
	Now      func() time.Time
}

// Server handles HTTP requests for the content planner API
type Server struct {
	addr    string
	tier    tier.Tier
	planner *planner.Store
	backend persist.Backend
	deps    workflow.Deps
	log     logrus.FieldLogger
	now     func() time.Time

	// mu guards sess and serializes snapshot writes
	mu   sync.Mutex
	sess *session.Session
}

// New creates a new API server
func New(opts Options) *Server {
	s := &Server{
		addr:    opts.Addr,
		tier:    opts.Tier,
		planner: opts.Planner,
		backend: opts.Backend,
		deps:    opts.Workflow,
		log:     opts.Log,
		now:     opts.Now,
		sess:    opts.Session,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.planner == nil {
		s.planner = planner.New()
	}
	if s.sess == nil {
		s.sess = session.New(s.now())
	}
	if s.deps.Planner == nil {
		s.deps.Planner = s.planner
	}
	if s.deps.Log == nil {
		s.deps.Log = s.log
	}
	if s.deps.Now == nil {
		s.deps.Now = s.now
	}
	return s
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Generation
	mux.HandleFunc("POST /generate", s.generate)
	mux.HandleFunc("POST /score", s.score)

	// Planner
	mux.HandleFunc("GET /planner/week", s.week)
	mux.HandleFunc("POST /planner/events", s.schedule)
	mux.HandleFunc("POST /planner/events/{id}/complete", s.complete)
	mux.HandleFunc("DELETE /planner/events/{id}", s.remove)
	mux.HandleFunc("GET /history", s.history)

	// Export
	mux.HandleFunc("GET /export.txt", s.exportText)
	mux.HandleFunc("GET /export.csv", s.exportCSV)

	mux.HandleFunc("GET /session", s.getSession)
	mux.HandleFunc("GET /health", s.health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return withCORS(s.withLogging(mux))
}

// Run starts the HTTP server and stops it when ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithFields(logrus.Fields{"addr": s.addr, "plan": s.tier.Name}).Info("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()

		entry := s.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request")
		}
	})
}

// save persists the current state. Callers hold s.mu.
func (s *Server) save(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	live, history := s.planner.Snapshot()
	sess := *s.sess
	if err := s.backend.Save(ctx, persist.Snapshot{Planner: live, History: history, Session: &sess}); err != nil {
		s.log.WithError(err).Error("save snapshot")
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// commit applies mutate and persists the result. When the save fails the
// planner and session go back to their state before mutate. Callers hold s.mu.
func (s *Server) commit(ctx context.Context, mutate func() error) error {
	live, history := s.planner.Snapshot()
	sess := *s.sess

	if err := mutate(); err != nil {
		return err
	}
	if err := s.save(ctx); err != nil {
		s.planner.Reset(live, history)
		*s.sess = sess
		return err
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var (
		verr *planner.ValidationError
		rerr *requestError
	)
	switch {
	case errors.Is(err, planner.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrAmbiguousID):
		return http.StatusConflict
	case errors.Is(err, session.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.As(err, &verr), errors.As(err, &rerr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// requestError reports rejected request fields
type requestError struct {
	fields []string
}

func (e *requestError) Error() string {
	return fmt.Sprintf("invalid request: %s", strings.Join(e.fields, ", "))
}

// decode reads a JSON body and runs struct validation on it
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &requestError{fields: []string{"body (json)"}}
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate request: %w", err)
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return &requestError{fields: fields}
	}
	return nil
}
