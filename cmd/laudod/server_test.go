package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gardar/laudo/pkg/casedata"
	"github.com/gardar/laudo/pkg/casestore"
	"github.com/gardar/laudo/pkg/laudo"
)

const emptyCase = `{"process_number":"1234567-89.2024.5.02.0001","report_config":{}}`

func testServer(t *testing.T, withStore bool) *server {
	t.Helper()
	opts := laudo.DefaultOptions()
	opts.Today = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	s := &server{opts: opts, log: zap.NewNop()}
	if withStore {
		store, err := casestore.Open("sqlite://" + filepath.Join(t.TempDir(), "cases.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		require.NoError(t, store.EnsureSchema(context.Background()))
		require.NoError(t, store.Put(context.Background(), "c1", []byte(emptyCase)))
		s.store = store
	}
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	code, _ := body["error"].(string)
	return code
}

func TestHealth(t *testing.T) {
	rec := do(t, testServer(t, false).routes(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	rec = do(t, testServer(t, true).routes(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":true`)
}

func TestExportPostedCase(t *testing.T) {
	rec := do(t, testServer(t, false).routes(), http.MethodPost, "/reports/pdf", emptyCase)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=laudo_1234567-89.2024.5.02.0001_2024-03-05.pdf`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestExportErrors(t *testing.T) {
	h := testServer(t, false).routes()
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{name: "unknown format", method: http.MethodPost, path: "/reports/odt", body: emptyCase, status: http.StatusNotFound, code: "unknown_format"},
		{name: "not an object", method: http.MethodPost, path: "/reports/pdf", body: `[1]`, status: http.StatusBadRequest, code: "invalid_case"},
		{name: "no database", method: http.MethodGet, path: "/cases/c1/report.pdf", status: http.StatusServiceUnavailable, code: "database_not_configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestExportDOCX(t *testing.T) {
	rec := do(t, testServer(t, false).routes(), http.MethodPost, "/reports/docx", emptyCase)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, laudo.FormatDOCX.ContentType(), rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename=laudo_1234567-89.2024.5.02.0001_2024-03-05.docx`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestExportFailureIsGeneric(t *testing.T) {
	s := testServer(t, false)
	s.exporter = func(context.Context, *casedata.Case, laudo.Format, laudo.Options) (*laudo.Result, error) {
		return nil, &laudo.ExportError{Format: laudo.FormatDOCX, Cause: errors.New("zip: write to closed writer")}
	}
	rec := do(t, s.routes(), http.MethodPost, "/reports/docx", emptyCase)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "export_failed", errorCode(t, rec))
	assert.Contains(t, rec.Body.String(), "document export failed")
	assert.NotContains(t, rec.Body.String(), "zip")
}

func TestCaseExport(t *testing.T) {
	h := testServer(t, true).routes()
	rec := do(t, h, http.MethodGet, "/cases/c1/report.pdf", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))

	rec = do(t, h, http.MethodGet, "/cases/nope/report.pdf", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "case_not_found", errorCode(t, rec))
}

func TestFlammableProducts(t *testing.T) {
	s := testServer(t, true)
	h := s.routes()

	rec := do(t, h, http.MethodPut, "/cases/c1/flammable-products", `[{"name":"Diesel"}]`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "flammable_products[0].attachment_path")

	rec = do(t, h, http.MethodPut, "/cases/c1/flammable-products", `[{"name":"Diesel","attachment_path":"fispq/diesel.pdf"}]`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, err := s.store.Get(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, c.FlammableProducts, 1)
	assert.Equal(t, "Diesel", c.FlammableProducts[0].Name.Trim())

	rec = do(t, h, http.MethodPut, "/cases/c1/flammable-products", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
