package tracker

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NotificationSource hands queued notifications to the UI
type NotificationSource interface {
	Drain() []Notification
}

// Server handles HTTP requests for the finance tracker
type Server struct {
	service       *Service
	notifications NotificationSource
	basicAuth     BasicAuth
	mux           *http.ServeMux
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, notifications NotificationSource, basicAuth BasicAuth) *Server {
	return NewServerWithMux(service, notifications, basicAuth, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, notifications NotificationSource, basicAuth BasicAuth, mux *http.ServeMux) *Server {
	s := &Server{
		service:       service,
		notifications: notifications,
		basicAuth:     basicAuth,
		mux:           mux,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return false
	}

	return username == s.basicAuth.Username && password == s.basicAuth.Password
}

// corsMiddleware answers preflight requests and sets CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			setCORSHeaders(w)
			w.Header().Set("WWW-Authenticate", `Basic realm="Finance Tracker"`)
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	// Transactions
	s.mux.HandleFunc("GET /api/transactions/{id}/document", s.requireAuth(s.handleGetTransactionDocument))
	s.mux.HandleFunc("GET /api/transactions/{id}", s.requireAuth(s.handleGetTransaction))
	s.mux.HandleFunc("DELETE /api/transactions/{id}", s.requireAuth(s.handleDeleteTransaction))
	s.mux.HandleFunc("GET /api/transactions", s.requireAuth(s.handleListTransactions))
	s.mux.HandleFunc("POST /api/transactions", s.requireAuth(s.handleCreateTransaction))
	s.mux.HandleFunc("DELETE /api/transactions", s.requireAuth(s.handleClearTransactions))

	// Budget
	s.mux.HandleFunc("GET /api/summary", s.requireAuth(s.handleSummary))
	s.mux.HandleFunc("POST /api/savings/evaluate", s.requireAuth(s.handleEvaluateSavings))
	s.mux.HandleFunc("POST /api/advice", s.requireAuth(s.handleAdvice))

	// Goals
	s.mux.HandleFunc("POST /api/goals/{id}/complete", s.requireAuth(s.handleCompleteGoal))
	s.mux.HandleFunc("DELETE /api/goals/{id}", s.requireAuth(s.handleDeleteGoal))
	s.mux.HandleFunc("GET /api/goals", s.requireAuth(s.handleListGoals))
	s.mux.HandleFunc("POST /api/goals", s.requireAuth(s.handleCreateGoal))

	// Document scanning
	s.mux.HandleFunc("POST /api/scans", s.requireAuth(s.handleScan))

	// Rewards
	s.mux.HandleFunc("GET /api/rewards", s.requireAuth(s.handleRewards))
	s.mux.HandleFunc("POST /api/rewards/checkin", s.requireAuth(s.handleCheckIn))
	s.mux.HandleFunc("POST /api/rewards/redeem", s.requireAuth(s.handleRedeem))
	s.mux.HandleFunc("PUT /api/rewards/username", s.requireAuth(s.handleRenameUser))
	s.mux.HandleFunc("GET /api/notifications", s.requireAuth(s.handleNotifications))

	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	corsMiddleware(s.mux).ServeHTTP(w, r)
}
