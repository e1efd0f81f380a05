package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"ngohub.org/internal/auth"
	"ngohub.org/internal/ngo"
	"ngohub.org/internal/obs"
	"ngohub.org/internal/store"
)

const (
	serviceName  = "ngohub-api"
	maxBodyBytes = 1 << 20
)

// ReadinessChecker reports whether dependencies are able to serve traffic.
type ReadinessChecker interface {
	Check(ctx context.Context) error
}

// Pinger is satisfied by the database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks readiness by pinging the store.
type ReadyProbe struct {
	Store Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Store == nil {
		return nil
	}
	return rp.Store.Ping(ctx)
}

// RecordStore persists the NGO records served under /{kind}.
type RecordStore interface {
	CreateRecord(ctx context.Context, rec ngo.Record) error
	GetRecord(ctx context.Context, kind ngo.Kind, id string) (ngo.Record, error)
	ListRecords(ctx context.Context, kind ngo.Kind, opts store.ListOptions) ([]ngo.Record, error)
	UpdateRecord(ctx context.Context, rec ngo.Record) error
	DeleteRecord(ctx context.Context, kind ngo.Kind, id string) error
}

// API is the HTTP layer.
type API struct {
	router     *mux.Router
	svc        *auth.Service
	authn      *auth.Authenticator
	records    RecordStore
	readyProbe ReadinessChecker
	version    string
	now        func() time.Time
}

// New wires handlers for the auth, user and record endpoints.
func New(svc *auth.Service, records RecordStore, ready ReadinessChecker, version string) *API {
	if ready == nil {
		ready = ReadyProbe{}
	}
	a := &API{
		router:     mux.NewRouter(),
		svc:        svc,
		authn:      auth.NewAuthenticator(svc.Tokens(), svc.Store()),
		records:    records,
		readyProbe: ready,
		version:    version,
		now:        time.Now,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	r := a.router
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", a.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.Ready).Methods(http.MethodGet)
	r.HandleFunc("/info", a.Info).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	authRoutes := r.PathPrefix("/auth").Subrouter()
	authRoutes.HandleFunc("/login", a.login).Methods(http.MethodPost)
	authRoutes.Handle("/register", a.optionalAuth(a.register)).Methods(http.MethodPost)
	authRoutes.Handle("/me", a.requireAuth(a.me)).Methods(http.MethodGet)

	r.Handle("/users", a.requireAuth(a.listUsers)).Methods(http.MethodGet)
	r.Handle("/users", a.requireAuth(a.createUser)).Methods(http.MethodPost)
	r.Handle("/users/{id}", a.requireAuth(a.getUser)).Methods(http.MethodGet)
	r.Handle("/users/{id}", a.requireAuth(a.updateUser)).Methods(http.MethodPatch)
	r.Handle("/users/{id}", a.requireAuth(a.deleteUser)).Methods(http.MethodDelete)
	r.Handle("/users/{id}/role", a.requireAuth(a.setUserRole)).Methods(http.MethodPut)

	for _, kind := range ngo.Kinds() {
		base := "/" + string(kind)
		r.Handle(base, a.requireAuth(a.listRecords(kind))).Methods(http.MethodGet)
		r.Handle(base, a.requireAuth(a.createRecord(kind))).Methods(http.MethodPost)
		r.Handle(base+"/{id}", a.requireAuth(a.getRecord(kind))).Methods(http.MethodGet)
		r.Handle(base+"/{id}", a.requireAuth(a.updateRecord(kind))).Methods(http.MethodPatch)
		r.Handle(base+"/{id}", a.requireAuth(a.deleteRecord(kind))).Methods(http.MethodDelete)
	}
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = MaxBodyBytes(h, maxBodyBytes)
	h = obs.Instrument(h)
	h = Logging(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return RequestID(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		obs.Logger().WithError(err).Warn("readiness check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      serviceName,
		"time":      a.now().UTC().Format(time.RFC3339),
		"version":   a.version,
		"token_ttl": int64(a.svc.Tokens().TTL().Seconds()),
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

var (
	errBodyRequired = errors.New("request body is required")
	errInvalidBody  = errors.New("invalid JSON body")
)

// decodeJSON reads exactly one JSON object into dst. Decoder detail is logged,
// never returned, so clients only see errBodyRequired or errInvalidBody.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errBodyRequired
		}
		return rejectBody(r, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON body")
		}
		return rejectBody(r, err)
	}
	return nil
}

func rejectBody(r *http.Request, err error) error {
	obs.Logger().WithError(err).WithFields(logrus.Fields{
		"request_id": RequestIDFromContext(r.Context()),
		"path":       r.URL.Path,
	}).Debug("request body rejected")
	return errInvalidBody
}

// clientMessage strips the package prefix from sentinel error text.
func clientMessage(err error) string {
	msg := err.Error()
	for _, prefix := range []string{"auth: ", "ngo: "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return msg
}
