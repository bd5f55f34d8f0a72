package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"ai_blog_post_writer/config"
	"ai_blog_post_writer/generator"
	"ai_blog_post_writer/publisher"
)

//go:embed web
var embeddedStatic embed.FS

type Server struct {
	agent    *generator.Agent
	cfg      config.Config
	store    *sessionStore
	proxy    *proxy
	staticFS http.Handler
	logger   *slog.Logger
}

// Option customises a Server.
type Option func(*Server)

// WithProxyClients sets the OpenAI clients behind /api/generate and /api/dalle.
func WithProxyClients(llm generator.LLMClient, images generator.ImageGenerator) Option {
	return func(s *Server) { s.proxy = &proxy{llm: llm, images: images} }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(agent *generator.Agent, cfg config.Config, opts ...Option) (*Server, error) {
	if agent == nil {
		return nil, errors.New("generator agent required")
	}

	sub, err := fs.Sub(embeddedStatic, "web")
	if err != nil {
		return nil, err
	}

	ttl := cfg.SessionTTLDuration()
	if ttl <= 0 {
		ttl = time.Hour
	}
	s := &Server{
		agent:    agent,
		cfg:      cfg,
		store:    newStore(ttl),
		staticFS: http.FileServer(http.FS(sub)),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.proxy == nil {
		s.proxy = proxyFromConfig(cfg, s.logger)
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/sessions", s.handleSessionCreate)
	mux.HandleFunc("GET /api/sessions/{id}", s.withSession(s.handleSessionGet))
	mux.HandleFunc("POST /api/sessions/{id}/topics", s.withSession(s.handleTopics))
	mux.HandleFunc("POST /api/sessions/{id}/posts", s.withSession(s.handlePosts))
	mux.HandleFunc("DELETE /api/sessions/{id}/draft", s.withSession(s.handleReset))
	mux.HandleFunc("GET /api/sessions/{id}/export", s.withSession(s.handleExport))
	mux.HandleFunc("GET /api/sessions/{id}/download", s.withSession(s.handleDownload))
	if s.cfg.ProxyEnabled() {
		// No method in the pattern: the proxies answer other methods with a JSON 405.
		mux.HandleFunc("/api/generate", s.proxy.handleGenerate)
		mux.HandleFunc("/api/dalle", s.proxy.handleDalle)
		mux.HandleFunc("/api/generate-image", s.proxy.handleGenerateImage)
	}
	mux.Handle("/", s.staticHandler())
	return s.logMiddleware(mux)
}

func (s *Server) staticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			errJSON(w, http.StatusNotFound, "not found")
			return
		}
		s.staticFS.ServeHTTP(w, r)
	})
}

// --- Handlers ---

type draftReq struct {
	Topic          string `json:"topic"`
	Category       string `json:"category"`
	Region         string `json:"region"`
	TargetAudience string `json:"target_audience"`
	Tone           string `json:"tone"`
	// Mode is "structured" (default) or "freeform".
	Mode string `json:"mode"`
}

func (r draftReq) draft() generator.Draft {
	return generator.Draft{
		Topic:          strings.TrimSpace(r.Topic),
		Category:       r.Category,
		Region:         r.Region,
		TargetAudience: r.TargetAudience,
		Tone:           r.Tone,
	}
}

type topicsReq struct {
	Category string `json:"category"`
}

type topicsResp struct {
	SessionID string   `json:"session_id"`
	Topics    []string `json:"topics"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.count()})
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, _ *http.Request) {
	sess := s.store.create(s.agent)
	s.logger.Info("session created", "session_id", sess.ID)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) withSession(h func(http.ResponseWriter, *http.Request, *generator.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.store.get(r.PathValue("id"))
		if !ok {
			errJSON(w, http.StatusNotFound, "session not found")
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleSessionGet(w http.ResponseWriter, _ *http.Request, sess *generator.Session) {
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	var req topicsReq
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()
	topics, err := sess.Suggest(ctx, s.credential(r), req.Category)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topicsResp{SessionID: sess.ID, Topics: topics})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	var req draftReq
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	var err error
	switch req.Mode {
	case "", "structured":
		_, err = sess.Propose(ctx, s.credential(r), req.draft())
	case "freeform":
		_, err = sess.ProposeFreeform(ctx, req.draft())
	default:
		errJSON(w, http.StatusBadRequest, "unknown mode "+req.Mode)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request, sess *generator.Session) {
	if err := sess.Reset(); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request, sess *generator.Session) {
	post, ok := sess.Post()
	if !ok {
		errJSON(w, http.StatusNotFound, "no post generated yet")
		return
	}
	out, err := publisher.ExportHTML(post)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, out)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, sess *generator.Session) {
	post, ok := sess.Post()
	if !ok {
		errJSON(w, http.StatusNotFound, "no post generated yet")
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = publisher.FormatHTML
	}
	out, err := publisher.Render(post, format)
	if errors.Is(err, publisher.ErrNoMarkdown) {
		errJSON(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		errJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := "text/html; charset=utf-8"
	switch format {
	case publisher.FormatMarkdown:
		contentType = "text/markdown; charset=utf-8"
	case publisher.FormatText:
		contentType = "text/plain; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": publisher.Filename(post.Topic, format),
	}))
	_, _ = io.WriteString(w, out)
}

// --- Helpers ---

// credential reads the caller's key from X-Api-Key, falling back to the
// server's configured key.
func (s *Server) credential(r *http.Request) generator.Credential {
	cred := generator.Credential{
		APIKey: strings.TrimSpace(r.Header.Get("X-Api-Key")),
		Model:  strings.TrimSpace(r.Header.Get("X-Model")),
	}
	if cred.APIKey == "" {
		cred.APIKey = s.cfg.Gemini.APIKey
	}
	if cred.Model == "" {
		cred.Model = s.cfg.Gemini.Model
	}
	return cred
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if d := s.cfg.RequestTimeout(); d > 0 {
		return context.WithTimeout(r.Context(), d)
	}
	return context.WithCancel(r.Context())
}

type errorResp struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeError maps pipeline errors to HTTP status codes. The body carries the
// user-facing message and the underlying error.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		ve *generator.ValidationError
		re *generator.RequestError
		se *generator.ShapeError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, generator.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, generator.ErrFreeformDisabled):
		status = http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &re), errors.As(err, &se):
		status = http.StatusBadGateway
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorResp{Error: generator.UserMessage(err), Detail: err.Error()})
}

const maxBodyBytes = 1 << 20

// decodeBody treats an empty body as an empty object. Bodies over
// maxBodyBytes are rejected with 413.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		errJSON(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	errJSON(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Error: msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"latency", time.Since(start),
		)
	})
}
