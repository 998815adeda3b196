// Package testinternals provides a fake gym backend for package tests.
package testinternals

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/2beens/gymclient/internal/apiclient"
	"github.com/2beens/gymclient/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// Backend is an httptest server with a gorilla router; every request it sees
// is recorded, handled or not.
type Backend struct {
	Server *httptest.Server

	router   *mux.Router
	mu       sync.Mutex
	requests []RecordedRequest
}

func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		router: mux.NewRouter(),
	}
	b.router.Use(otelmux.Middleware("fake-gym-api"))
	b.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusNotFound, map[string]any{"message": "ruta no encontrada"})
	})

	b.Server = httptest.NewServer(b.recorder(b.router))
	t.Cleanup(b.Server.Close)

	return b
}

func (b *Backend) URL() string {
	return b.Server.URL
}

// NewClient returns an api client bound to the backend.
func (b *Backend) NewClient() *apiclient.Client {
	return apiclient.NewClient(apiclient.Params{
		BaseURL:    b.Server.URL,
		HTTPClient: b.Server.Client(),
		Timeout:    2 * time.Second,
		Metrics:    metrics.NewTestManager(),
	})
}

func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.router.HandleFunc(path, h).Methods(method)
}

func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *Backend) RequestCount(method, path string) int {
	count := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			count++
		}
	}
	return count
}

func (b *Backend) LastRequest() (RecordedRequest, bool) {
	reqs := b.Requests()
	if len(reqs) == 0 {
		return RecordedRequest{}, false
	}
	return reqs[len(reqs)-1], true
}

func (b *Backend) recorder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) record(r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteEnvelope answers with the {success, data, message} envelope.
func WriteEnvelope(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, map[string]any{
		"success": status < http.StatusBadRequest,
		"data":    data,
	})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}

// JSONHandler always answers with status and v as a bare payload.
func JSONHandler(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, v)
	}
}

// EnvelopeHandler always answers with status and data in an envelope.
func EnvelopeHandler(status int, data any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteEnvelope(w, status, data)
	}
}

// SequenceHandler plays the handlers in order, repeating the last one.
func SequenceHandler(handlers ...http.HandlerFunc) http.HandlerFunc {
	var (
		mu   sync.Mutex
		next int
	)
	return func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		h := handlers[next]
		if next < len(handlers)-1 {
			next++
		}
		mu.Unlock()
		h(w, r)
	}
}
