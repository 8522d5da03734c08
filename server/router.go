package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"weeromzet/utils"
)

// Handler is the set of endpoints the router exposes.
type Handler interface {
	Analyze(w http.ResponseWriter, r *http.Request)
	Validate(w http.ResponseWriter, r *http.Request)
	Report(w http.ResponseWriter, r *http.Request)
	GetAnalysis(w http.ResponseWriter, r *http.Request)
	GetRecords(w http.ResponseWriter, r *http.Request)
	Reanalyse(w http.ResponseWriter, r *http.Request)
	Ping(w http.ResponseWriter, r *http.Request)
}

type Router struct {
	handler Handler
	router  *mux.Router
	logger  *utils.Logger
}

// NewRouter creates a router with the app's routes.
func NewRouter(handler Handler, router *mux.Router, logger *utils.Logger) *Router {
	return &Router{handler: handler, router: router, logger: logger}
}

func (r *Router) RegisterRoutes() {
	r.router.Use(r.requestLogger)

	// raw CSV text body; ?weather=true adds the weather correlation, ?store=true persists
	r.router.HandleFunc("/v1/analyze", r.handler.Analyze).Methods(http.MethodPost)
	r.router.HandleFunc("/v1/validate", r.handler.Validate).Methods(http.MethodPost)
	r.router.HandleFunc("/v1/report", r.handler.Report).Methods(http.MethodPost)
	r.router.HandleFunc("/v1/analyses/{id}", r.handler.GetAnalysis).Methods(http.MethodGet)
	r.router.HandleFunc("/v1/uploads/{id}/records", r.handler.GetRecords).Methods(http.MethodGet)
	r.router.HandleFunc("/v1/uploads/{id}/analyze", r.handler.Reanalyse).Methods(http.MethodPost)

	r.router.HandleFunc("/ping", r.handler.Ping).Methods(http.MethodGet)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := req.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, req)
		r.logger.Info("[server] %s %s %d %v (%s)", req.Method, req.URL.Path, rec.status, time.Since(start), id)
	})
}
