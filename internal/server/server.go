// Package server exposes exports over HTTP.
//
//	GET  /healthz   database ping
//	POST /exports   body is the query text; responds with the .xlsx document
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/export"
	"github.com/koustreak/sqlsheet/internal/logger"
	"github.com/koustreak/sqlsheet/internal/querysource"
	"github.com/koustreak/sqlsheet/internal/sheet"
)

// Response headers set on a successful export.
const (
	HeaderRunID       = "X-Export-Run-Id"
	HeaderDiagnostics = "X-Export-Diagnostics"
	HeaderSkipped     = "X-Export-Skipped"
)

const (
	pingTimeout     = 5 * time.Second
	shutdownTimeout = 15 * time.Second
)

// Server serves the export API.
type Server struct {
	db       database.DB
	exporter *export.Exporter
	log      *logger.Logger
	router   chi.Router
}

// New wires the routes. db is used for health checks; exporter runs the
// exports.
func New(db database.DB, exporter *export.Exporter, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{db: db, exporter: exporter, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/exports", s.handleExport)

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errs.Wrap(errs.ErrKindConnectionFailed, "listen on "+addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// --- handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, querysource.MaxQuerySize+1))
	if err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrKindInvalidInput, "read request body", err))
		return
	}
	if len(body) > querysource.MaxQuerySize {
		s.writeError(w, r, errs.Newf(errs.ErrKindInvalidInput, "query exceeds %d bytes", querysource.MaxQuerySize))
		return
	}

	wb, res, err := s.exporter.Build(r.Context(), export.Request{
		Query: string(body),
		Sheet: r.URL.Query().Get("sheet"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer wb.Close()

	data, err := wb.Bytes()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", sheet.ContentType)
	h.Set("Content-Disposition", `attachment; filename="export-`+res.RunID+`.xlsx"`)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set(HeaderRunID, res.RunID)
	h.Set(HeaderDiagnostics, strconv.Itoa(len(res.Report.Diagnostics)))
	h.Set(HeaderSkipped, strconv.Itoa(res.Report.Skipped))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// --- helpers ---

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.HTTPEvent().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.ErrorWith("export request failed", err, map[string]interface{}{
			"request_id": middleware.GetReqID(r.Context()),
		})
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  errs.KindOf(err).String(),
	})
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindQueryFailed, errs.ErrKindDecodeFailed:
		return http.StatusUnprocessableEntity
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
