package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/koustreak/sqlsheet/internal/database/dbtest"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/export"
	"github.com/koustreak/sqlsheet/internal/logger"
	"github.com/koustreak/sqlsheet/internal/querysource"
	"github.com/koustreak/sqlsheet/internal/resultset"
	"github.com/koustreak/sqlsheet/internal/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func orders(t *testing.T) *resultset.ResultSet {
	t.Helper()
	rs := resultset.New([]resultset.Column{
		{Name: "OrderID", Type: resultset.TypeIntN},
		{Name: "Shipped", Type: resultset.TypeBitN},
		{Name: "Amount", Type: resultset.TypeMoneyN},
	})
	require.NoError(t, rs.Append(resultset.I32(1001), resultset.Bit(true), resultset.Raw(resultset.WireNumeric, "9.99")))
	require.NoError(t, rs.Append(resultset.I32(1002), resultset.Null(resultset.WireBit), resultset.Raw(resultset.WireNumeric, "1.00")))
	return rs
}

func newTestServer(db *dbtest.DB) *Server {
	return New(db, export.New(db), logger.Nop())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	db := dbtest.New()
	srv := newTestServer(db)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	db.PingErr = errs.New(errs.ErrKindConnectionFailed, "ping failed")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decodeBody(t, rec)["status"])
}

func TestExport(t *testing.T) {
	db := dbtest.New(orders(t))
	srv := newTestServer(db)

	req := httptest.NewRequest(http.MethodPost, "/exports?sheet=Orders", strings.NewReader("SELECT * FROM Orders"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, sheet.ContentType, rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(HeaderRunID))
	assert.Equal(t, "2", rec.Header().Get(HeaderDiagnostics))
	assert.Equal(t, "1", rec.Header().Get(HeaderSkipped))
	assert.Equal(t, []string{"SELECT * FROM Orders"}, db.Queries())

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Orders")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"OrderID", "Shipped", "Amount"},
		{"1001", "TRUE"},
		{"1002"},
	}, rows)
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name   string
		db     *dbtest.DB
		body   string
		status int
		kind   string
	}{
		{"empty body", dbtest.New(orders(t)), "", http.StatusBadRequest, "invalid_input"},
		{"query failure", &dbtest.DB{QueryErr: errs.New(errs.ErrKindQueryFailed, "bad syntax")}, "SELEC", http.StatusUnprocessableEntity, "query_failed"},
		{"connection failure", &dbtest.DB{QueryErr: errs.New(errs.ErrKindConnectionFailed, "reset")}, "SELECT 1", http.StatusBadGateway, "connection_failed"},
		{"no result sets", dbtest.New(), "UPDATE t SET x = 1", http.StatusBadRequest, "invalid_input"},
		{"oversized", dbtest.New(), strings.Repeat("x", querysource.MaxQuerySize+1), http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestServer(tt.db).Handler().ServeHTTP(rec,
				httptest.NewRequest(http.MethodPost, "/exports", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, decodeBody(t, rec)["kind"])
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(dbtest.New()).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/exports", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, statusFor(errs.New(errs.ErrKindPermissionDenied, "x")))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(errs.New(errs.ErrKindTimeout, "x")))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(errs.New(errs.ErrKindDecodeFailed, "x")))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
