package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nordflytt_backend/internal/pricing/engine"
	"nordflytt_backend/internal/pricing/transport"
	"nordflytt_backend/platform/httpkit"
	"nordflytt_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	val := validator.New()
	if err := RegisterValidations(val); err != nil {
		t.Fatalf("register validations: %v", err)
	}
	r := gin.New()
	New(engine.New(engine.DefaultTable()), val).RegisterRoutes(r.Group("/api/v1/pricing"))
	return r
}

func postQuote(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quote", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestQuote_ReturnsBreakdown(t *testing.T) {
	r := newRouter(t)
	rec := postQuote(t, r, `{
		"volume": 20, "distance": 30,
		"fromElevator": "Trappa", "fromFloor": 3,
		"toElevator": "stor", "toFloor": 5,
		"livingArea": 60, "packing": true, "cleaning": true,
		"heavyItems": 1, "keyCustomer": true, "lowSeason": true
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp transport.QuoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Slutpris != 8159 {
		t.Fatalf("expected slutpris 8159, got %d", resp.Slutpris)
	}
	if resp.Currency != "SEK" || resp.TableVersion != "2025.1" {
		t.Fatalf("unexpected sheet metadata %q %q", resp.Currency, resp.TableVersion)
	}
	if len(resp.Discounts) != 3 {
		t.Fatalf("expected 3 discount rows, got %d", len(resp.Discounts))
	}
}

func TestQuote_ParkingDistanceBecomesLongCarry(t *testing.T) {
	r := newRouter(t)
	rec := postQuote(t, r, `{"parkingFrom": 25, "parkingTo": 12}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp transport.QuoteResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 15 m beyond the free 10 m at 80 kr/m on top of the 1600 minimum.
	if resp.Slutpris != 1600+15*80 {
		t.Fatalf("expected %d, got %d", 1600+15*80, resp.Slutpris)
	}
}

func TestQuote_RejectsInvalidInput(t *testing.T) {
	r := newRouter(t)
	cases := map[string]string{
		"negative volume":  `{"volume": -3}`,
		"oversized volume": `{"volume": 1e17}`,
		"unknown elevator": `{"toElevator": "rulltrappa"}`,
		"malformed json":   `{"volume": `,
	}
	for name, body := range cases {
		rec := postQuote(t, r, body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
		var resp httpkit.ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
			t.Fatalf("%s: expected error body, got %s", name, rec.Body.String())
		}
	}
}

func TestGetTable(t *testing.T) {
	r := newRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/pricing/table", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var tbl engine.Table
	if err := json.Unmarshal(rec.Body.Bytes(), &tbl); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tbl.Base.Minimum != 1600 {
		t.Fatalf("expected minimum 1600, got %v", tbl.Base.Minimum)
	}
}
