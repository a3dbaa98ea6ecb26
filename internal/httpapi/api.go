package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"vistagram.app/internal/auth"
	"vistagram.app/internal/cron"
	"vistagram.app/internal/media"
	"vistagram.app/internal/obs"
	"vistagram.app/internal/social"
)

// ReadyProbe — readiness check backed by a database ping.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config carries the request-facing settings the handlers need.
type Config struct {
	FrontendURL string
	// DevMode drops the Secure attribute from the refresh cookie so local
	// HTTP frontends can use it.
	DevMode bool
	Version string
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	store      social.Store
	tokens     *auth.TokenManager
	scheduler  *cron.Scheduler
	uploader   media.StreamUploader
	readyProbe ReadyProbe
	cfg        Config

	rateBurst  int
	ratePerSec int
}

func New(store social.Store, tokens *auth.TokenManager, scheduler *cron.Scheduler, uploader media.StreamUploader, rp ReadyProbe, cfg Config) *API {
	a := &API{
		mux:        http.NewServeMux(),
		store:      store,
		tokens:     tokens,
		scheduler:  scheduler,
		uploader:   uploader,
		readyProbe: rp,
		cfg:        cfg,
		rateBurst:  50,
		ratePerSec: 25,
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/auth/register", a.handleRegister)
	a.mux.HandleFunc("/auth/login", a.handleLogin)
	a.mux.HandleFunc("/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/auth/logout", a.requireAuth(a.handleLogout))

	// posts
	a.mux.HandleFunc("/posts", a.handlePostsCollection)
	a.mux.HandleFunc("/posts/", a.handlePostResource)

	// users
	a.mux.HandleFunc("/users/", a.handleUserResource)

	// scheduler
	a.mux.HandleFunc("/cron/status", a.handleCronStatus)
	a.mux.HandleFunc("/cron/trigger", a.handleCronTrigger)

	a.mux.HandleFunc("/", a.Root)

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, 10<<20)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h, a.cfg.FrontendURL)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Vistagram API is running!",
	})
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "vistagram-api",
		"version": a.cfg.Version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleStoreError maps store failures onto HTTP codes. Unexpected errors
// surface their message verbatim.
func handleStoreError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, social.ErrNotFound):
		writeError(w, r, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, social.ErrAlreadyExists):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}
