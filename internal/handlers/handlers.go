package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"slices"
	"strings"

	"github.com/chepyr/kanban-board/internal/db"
	"github.com/chepyr/kanban-board/internal/metrics"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	BoardRepo   db.BoardRepositoryInterface
	RateLimiter *RateLimiter
	WSHub       *WSHub

	// empty disables bearer auth
	JWTSecret string
	// empty allows every origin
	AllowedOrigins []string
}

type errorResponse struct {
	Error string `json:"error"`
}

/*
Routes builds the service router:
  - GET  /api/board
  - PUT  /api/board
  - GET  /api/board/columns
  - GET  /api/board/columns/{columnID}
  - GET  /ws
  - GET  /metrics, /healthz
*/
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(h.RequestLogger, metrics.Middleware)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// full paths on the root router: a PathPrefix subrouter answers 404 instead of 405 on method mismatch
	api := func(path string, handler http.HandlerFunc, method string) {
		r.Handle(path, h.AuthMiddleware(handler)).Methods(method)
	}
	api("/api/board", h.GetBoard, http.MethodGet)
	api("/api/board", h.UpsertBoard, http.MethodPut)
	api("/api/board/columns", h.ListColumns, http.MethodGet)
	api("/api/board/columns/{columnID}", h.GetColumn, http.MethodGet)
	api("/ws", h.HandleWebSocket, http.MethodGet)

	return cors.Handler(cors.Options{
		AllowedOrigins: h.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})(r)
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, errorResponse{Error: message}, status)
}

func sendJSON(w http.ResponseWriter, body any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(ct), "application/json")
}

// clientIP prefers the first X-Forwarded-For hop over the peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// checkOrigin accepts requests without an Origin header (non-browser clients).
func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(h.AllowedOrigins, origin)
}
