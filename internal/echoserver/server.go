// Package echoserver is a stand-in backend for the three create endpoints.
// It records every request it receives and replies with a configurable
// status, which makes it useful both in tests and for manual runs of the CLI.
package echoserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxMultipartMemory bounds in-memory parsing of multipart bodies.
const maxMultipartMemory = 8 << 20

// FilePart describes an uploaded file.
type FilePart struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Received is one recorded request.
type Received struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	ContentType string            `json:"content_type"`
	RequestID   string            `json:"request_id"`
	JSON        map[string]any    `json:"json,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
	Files       []FilePart        `json:"files,omitempty"`
	At          time.Time         `json:"at"`
}

// Multipart reports whether the request was a multipart form.
func (r Received) Multipart() bool {
	return strings.HasPrefix(r.ContentType, "multipart/")
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStatus sets the reply status for path.
func WithStatus(path string, status int) Option {
	return func(s *Server) { s.status[path] = status }
}

// WithErrorBody sets the JSON body returned with non-2xx replies on path.
func WithErrorBody(path string, body map[string]any) Option {
	return func(s *Server) { s.errorBody[path] = body }
}

// Server records create requests.
type Server struct {
	mu        sync.Mutex
	received  []Received
	status    map[string]int
	errorBody map[string]map[string]any
	logger    *slog.Logger
}

// Endpoints lists the create routes the server answers.
var Endpoints = []string{"/auth/register", "/proformas", "/customers"}

// New returns a server answering 201 on every create endpoint.
func New(opts ...Option) *Server {
	s := &Server{
		status:    make(map[string]int),
		errorBody: make(map[string]map[string]any),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SetStatus changes the reply status for path.
func (s *Server) SetStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[path] = status
}

// Received returns a copy of the recorded requests.
func (s *Server) Received() []Received {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Received(nil), s.received...)
}

// Reset clears recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = nil
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	for _, path := range Endpoints {
		r.Post(path, s.create)
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/_received", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.Received())
	})
	r.Delete("/_received", func(w http.ResponseWriter, _ *http.Request) {
		s.Reset()
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	rec := Received{
		Method:      r.Method,
		Path:        r.URL.Path,
		ContentType: r.Header.Get("Content-Type"),
		RequestID:   r.Header.Get("X-Request-ID"),
		At:          time.Now().UTC(),
	}

	mediaType, _, err := mime.ParseMediaType(rec.ContentType)
	if err != nil {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"message": "missing content type"})
		return
	}
	switch mediaType {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&rec.JSON); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON: " + err.Error()})
			return
		}
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid multipart: " + err.Error()})
			return
		}
		rec.Fields = make(map[string]string, len(r.MultipartForm.Value))
		for key, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				rec.Fields[key] = values[0]
			}
		}
		for field, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				rec.Files = append(rec.Files, FilePart{
					Field:       field,
					Filename:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Size:        fh.Size,
				})
			}
		}
	default:
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"message": "unsupported content type " + mediaType})
		return
	}

	s.mu.Lock()
	s.received = append(s.received, rec)
	status, ok := s.status[rec.Path]
	body := s.errorBody[rec.Path]
	s.mu.Unlock()
	if !ok {
		status = http.StatusCreated
	}

	if status >= 200 && status < 300 {
		writeJSON(w, status, map[string]string{"id": uuid.NewString()})
		return
	}
	if body == nil {
		body = map[string]any{"message": http.StatusText(status)}
	}
	writeJSON(w, status, body)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", r.Header.Get("X-Request-ID"),
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
