package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/casestore"
	"github.com/gardar/laudo/pkg/laudo"
)

// maxCaseBytes caps a posted case record.
const maxCaseBytes = 16 << 20

// exportFunc matches laudo.Export.
type exportFunc func(ctx context.Context, c *casedata.Case, format laudo.Format, opts laudo.Options) (*laudo.Result, error)

// server exports laudos over HTTP. store is nil when no database is configured and a nil
// exporter means laudo.Export.
type server struct {
	store    *casestore.Store
	opts     laudo.Options
	log      *zap.Logger
	exporter exportFunc
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/reports/{format}", s.handleExport).Methods(http.MethodPost)
	r.HandleFunc("/cases/{id}/report.{format}", s.handleCaseExport).Methods(http.MethodGet)
	r.HandleFunc("/cases/{id}/flammable-products", s.handleFlammableProducts).Methods(http.MethodPut)
	return otelhttp.NewHandler(s.withRequestLogging(r), "laudod")
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "healthy", "database": s.store != nil}
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.log.Warn("database ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "database": false})
			return
		}
	}
	writeJSON(w, http.StatusOK, status)
}

// handleExport renders the case record posted in the body.
func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := s.format(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCaseBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if len(body) > maxCaseBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "case_too_large", "")
		return
	}
	c, err := casedata.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_case", err.Error())
		return
	}
	s.export(w, r, c, format)
}

// handleCaseExport renders a case read from the database.
func (s *server) handleCaseExport(w http.ResponseWriter, r *http.Request) {
	format, ok := s.format(w, r)
	if !ok || !s.requireStore(w) {
		return
	}
	c, err := s.store.Get(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, casestore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "case_not_found", "")
		return
	}
	if err != nil {
		s.log.Error("failed to load case", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db_error", "")
		return
	}
	s.export(w, r, c, format)
}

// handleFlammableProducts replaces the flammable product list of a case.
func (s *server) handleFlammableProducts(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var products []casedata.FlammableProduct
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCaseBytes)).Decode(&products); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	err := s.store.SaveFlammableProducts(r.Context(), mux.Vars(r)["id"], products)
	var verr *casedata.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "validation_failed",
			"field":   verr.Field,
			"message": verr.Message,
		})
	case err != nil:
		s.log.Error("failed to save flammable products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "db_error", "")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *server) export(w http.ResponseWriter, r *http.Request, c *casedata.Case, format laudo.Format) {
	opts := s.opts
	if t := r.URL.Query().Get("type"); t != "" {
		opts.ReportType = t
	}
	if v, err := strconv.ParseBool(r.URL.Query().Get("safe_mode")); err == nil {
		opts.SafeMode = v
	}
	export := s.exporter
	if export == nil {
		export = laudo.Export
	}
	res, err := export(r.Context(), c, format, opts)
	if err != nil {
		// The cause has already been logged with the render id.
		writeError(w, http.StatusInternalServerError, "export_failed", laudo.ErrExportFailed.Error())
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

func (s *server) format(w http.ResponseWriter, r *http.Request) (laudo.Format, bool) {
	f, err := laudo.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_format", err.Error())
		return "", false
	}
	return f, true
}

func (s *server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "database_not_configured", "")
		return false
	}
	return true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sr.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	body := map[string]any{"error": code}
	if detail != "" {
		body["detail"] = detail
	}
	writeJSON(w, status, body)
}
