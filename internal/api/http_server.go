package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cleanbook/internal/auth"
	"cleanbook/internal/config"
	"cleanbook/internal/export"
	"cleanbook/internal/metrics"
	"cleanbook/internal/models"
	"cleanbook/internal/rpc"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	listProcedure = "bookings.list"
	xlsxMIME      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// HTTPServer exposes the router over JSON at /api/rpc/{procedure}.
type HTTPServer struct {
	router   *rpc.Router
	identity *Identity
	limiter  *rateLimiter
	maxBody  int64
	server   *http.Server
	log      zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, router *rpc.Router, identity *Identity, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		router:   router,
		identity: identity,
		limiter:  newRateLimiter(cfg.RateLimit),
		maxBody:  cfg.HTTP.MaxBodyBytes,
		log:      zerolog.Nop(),
	}
	if logger != nil {
		srv.log = logger.With().Str("component", "http").Logger()
	}
	if srv.maxBody <= 0 {
		srv.maxBody = 1 << 20
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.identify)
		r.Get("/api/rpc/{procedure}", s.handleRPC)
		r.Post("/api/rpc/{procedure}", s.handleRPC)
		r.Get("/api/export/bookings.xlsx", s.handleExport)
	})

	return r
}

// Handler exposes the routing tree, mostly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// identify resolves the caller once per request and stores it in the context.
func (s *HTTPServer) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := s.identity.FromRequest(r)

		if !s.limiter.Allow(clientKeyHTTP(r, creds)) {
			writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorPayload{
				Code:    codeRateLimited,
				Message: "rate limit exceeded",
			}})
			return
		}

		ctx := rpc.WithCaller(r.Context(), s.identity.Resolve(r.Context(), creds))
		ctx = auth.WithSession(ctx, auth.SessionHandle{
			Token: creds.SessionToken,
			Clear: func() { http.SetCookie(w, s.identity.expiredCookie()) },
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type errorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Procedure string      `json:"procedure,omitempty"`
	Issues    []rpc.Issue `json:"issues,omitempty"`
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

type resultBody struct {
	Result any `json:"result"`
}

func (s *HTTPServer) handleRPC(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "procedure")
	start := time.Now()

	proc, ok := s.router.Lookup(name)
	if !ok {
		s.finish(w, name, start, nil, rpc.Errorf(rpc.CodeNotFound, "no procedure named %q", name))
		return
	}

	allow := http.MethodPost
	if proc.Kind == rpc.KindQuery {
		allow = http.MethodGet
	}
	if r.Method != allow {
		metrics.ObserveRPC(name, "http", codeMethodNotSupported, time.Since(start))
		w.Header().Set("Allow", allow)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: errorPayload{
			Code:      codeMethodNotSupported,
			Message:   fmt.Sprintf("%s %s is not supported; use %s", r.Method, name, allow),
			Procedure: name,
		}})
		return
	}

	raw, err := s.readInput(w, r)
	if err != nil {
		s.finish(w, name, start, nil, err)
		return
	}

	result, err := proc.Invoke(r.Context(), raw)
	s.finish(w, name, start, result, err)
}

func (s *HTTPServer) readInput(w http.ResponseWriter, r *http.Request) (json.RawMessage, error) {
	if r.Method == http.MethodGet {
		if input := r.URL.Query().Get("input"); input != "" {
			return json.RawMessage(input), nil
		}
		return nil, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, rpc.Errorf(rpc.CodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, rpc.Errorf(rpc.CodeInvalidInput, "read request body: %v", err)
	}
	return body, nil
}

func (s *HTTPServer) finish(w http.ResponseWriter, name string, start time.Time, result any, err error) {
	metrics.ObserveRPC(name, "http", metricCode(err), time.Since(start))
	if err != nil {
		s.writeRPCError(w, name, rpc.AsError(err))
		return
	}
	writeJSON(w, http.StatusOK, resultBody{Result: result})
}

func (s *HTTPServer) writeRPCError(w http.ResponseWriter, name string, e *rpc.Error) {
	if e.Code == rpc.CodeInternal || e.Code == rpc.CodeStorageError {
		s.log.Error().Err(e).Str("procedure", name).Msg("procedure failed")
	}
	writeJSON(w, httpStatus(e.Code), errorBody{Error: errorPayload{
		Code:      string(e.Code),
		Message:   e.Message,
		Procedure: name,
		Issues:    e.Issues,
	}})
}

// handleExport streams every booking as a spreadsheet. Access follows bookings.list.
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	result, err := s.router.Call(r.Context(), listProcedure, nil)
	if err != nil {
		s.writeRPCError(w, listProcedure, rpc.AsError(err))
		return
	}

	bookings, _ := result.([]models.Booking)

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings); err != nil {
		s.writeRPCError(w, listProcedure, rpc.AsError(err))
		return
	}

	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(time.Now())))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.Warn().Err(err).Msg("write export")
	}
}

func (s *HTTPServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
