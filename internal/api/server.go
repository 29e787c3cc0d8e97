package api

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pbaille/pyq/internal/auth"
	"github.com/pbaille/pyq/internal/domain"
	"github.com/pbaille/pyq/internal/pipeline"
	"golang.org/x/crypto/bcrypt"
)

// UploadField is the multipart field carrying exam papers
const UploadField = "pyqs"

// Organizer runs the organize pipeline
type Organizer interface {
	Run(ctx context.Context, docs []domain.InputDocument, syllabus string) (domain.OrganizedResult, error)
}

// Options configures the server
type Options struct {
	Addr           string
	MaxDocuments   int
	MaxUploadBytes int64
	Logf           func(format string, args ...any)
}

// Server handles HTTP requests for the organizer API
type Server struct {
	organizer Organizer
	auth      *auth.Service
	opts      Options

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New creates a new API server
func New(organizer Organizer, authSvc *auth.Service, opts Options) *Server {
	if opts.MaxDocuments <= 0 {
		opts.MaxDocuments = 5
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	return &Server{
		organizer: organizer,
		auth:      authSvc,
		opts:      opts,
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

// Handler returns the routed API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Users
	mux.HandleFunc("POST /api/users/register", s.register)
	mux.HandleFunc("POST /api/users/login", s.login)

	// Organizer
	mux.Handle("POST /api/organize", s.auth.Require(http.HandlerFunc(s.organize)))

	// Health check
	mux.HandleFunc("GET /health", s.health)

	return withCORS(s.withRequestID(mux))
}

// Run starts the HTTP server and stops it when ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.opts.Logf("starting server on %s", s.opts.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS adds CORS headers for the browser frontend
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestID(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		id := ulid.MustNew(ulid.Now(), s.entropy).String()
		s.mu.Unlock()

		w.Header().Set("X-Request-ID", id)
		h.ServeHTTP(w, r.WithContext(pipeline.WithRunID(r.Context(), id)))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Credentials is the request body for register and login
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := s.auth.Register(req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Email and password are required.")
	case errors.Is(err, domain.ErrUserExists):
		writeError(w, http.StatusBadRequest, "User with this email already exists.")
	case errors.Is(err, auth.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, "A valid email address is required.")
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		writeError(w, http.StatusBadRequest, "Password is too long.")
	case err != nil:
		s.opts.Logf("register: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error during registration.")
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully."})
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.auth.Login(req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Email and password are required.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid credentials.")
	case err != nil:
		s.opts.Logf("login: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error during login.")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"token": token})
	}
}

func (s *Server) organize(w http.ResponseWriter, r *http.Request) {
	// Room for every file at its limit plus the syllabus and multipart framing
	limit := s.opts.MaxUploadBytes*int64(s.opts.MaxDocuments) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Upload too large.")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var files []*multipart.FileHeader
	if r.MultipartForm != nil {
		files = r.MultipartForm.File[UploadField]
	}
	if len(files) > s.opts.MaxDocuments {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("At most %d files may be uploaded.", s.opts.MaxDocuments))
		return
	}

	docs := make([]domain.InputDocument, 0, len(files))
	for _, fh := range files {
		if fh.Size > s.opts.MaxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("%s exceeds %d bytes.", fh.Filename, s.opts.MaxUploadBytes))
			return
		}
		doc, err := readUpload(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		docs = append(docs, doc)
	}

	result, err := s.organizer.Run(r.Context(), docs, r.FormValue("syllabus"))
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func readUpload(fh *multipart.FileHeader) (domain.InputDocument, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.InputDocument{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.InputDocument{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return domain.InputDocument{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// ErrorResponse is the body of every failed request. Message is what the
// browser client displays; Error carries the same text for older callers.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// RunErrorResponse is the body returned when organizing fails
type RunErrorResponse struct {
	ErrorResponse
	Kind  string `json:"kind"`
	Cause string `json:"cause,omitempty"`
}

func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	var perr *pipeline.Error
	if !errors.As(err, &perr) {
		s.opts.Logf("organize: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to organize the papers.")
		return
	}

	status := http.StatusBadGateway
	switch perr.Kind {
	case pipeline.KindPrecondition:
		status = http.StatusBadRequest
	case pipeline.KindExtraction:
		status = http.StatusUnprocessableEntity
	case pipeline.KindCanceled:
		// Client closed request
		status = 499
	}

	msg := perr.Message()
	resp := RunErrorResponse{ErrorResponse: ErrorResponse{Message: msg, Error: msg}, Kind: string(perr.Kind)}
	if perr.Kind != pipeline.KindPrecondition {
		resp.Cause = perr.Err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message, Error: message})
}
