package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/katachat/insight-api/internal/analyze"
	"github.com/katachat/insight-api/internal/audit"
)

type fakeGen struct {
	mu      sync.Mutex
	prompts []string
}

func (f *fakeGen) Complete(_ context.Context, p string, _ float32) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	f.mu.Unlock()
	if strings.Contains(p, "###") {
		return "###Sleep\nDeep sleep: 65%\nAwakenings: 40%", nil
	}
	return "Generated text.", nil
}

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(context.Context) error { return f.err }

func newTestServer(gen *fakeGen) *Server {
	return &Server{
		Svc: &analyze.Service{Gen: gen, Log: zap.NewNop()},
		Log: zap.NewNop(),
		Now: func() time.Time { return time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC) },
	}
}

func postJSON(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

const validBody = `{
	"dob_year": 1990,
	"dob_month": 11,
	"dob_day": 20,
	"gender": "male",
	"country": "Singapore",
	"condition": "fatigue",
	"details": "poor sleep"
}`

func TestAnalyzeEndpoint_HappyPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &fakeGen{}
	router := newTestServer(gen).Router()

	w := postJSON(t, router, "/health_analyze", validBody)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Metrics []struct {
			Title  string   `json:"title"`
			Labels []string `json:"labels"`
			Values []int    `json:"values"`
		} `json:"metrics"`
		HTML        string `json:"html_result"`
		Footer      string `json:"footer"`
		ReportTitle string `json:"report_title"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if len(resp.Metrics) != 1 || resp.Metrics[0].Title != "Sleep" {
		t.Fatalf("unexpected metrics: %+v", resp.Metrics)
	}
	if resp.HTML == "" || resp.Footer == "" || resp.ReportTitle == "" {
		t.Fatalf("incomplete response: %+v", resp)
	}

	// Birthday (Nov 20) has not happened by the fixed clock (Jun 15).
	found := false
	for _, p := range gen.prompts {
		if strings.Contains(p, "35-year-old") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected age 35 in a prompt, got %v", gen.prompts)
	}
}

func TestAnalyzeEndpoint_StringDOB(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &fakeGen{}
	router := newTestServer(gen).Router()

	body := strings.Replace(validBody, `"dob_year": 1990`, `"dob_year": "1990"`, 1)
	w := postJSON(t, router, "/health_analyze", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for string dob_year, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAnalyzeEndpoint_UnparseableDOBYieldsAgeZero(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := &fakeGen{}
	router := newTestServer(gen).Router()

	body := strings.Replace(validBody, `"dob_year": 1990`, `"dob_year": "unknown"`, 1)
	w := postJSON(t, router, "/health_analyze", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unparseable dob_year, got %d: %s", w.Code, w.Body.String())
	}

	found := false
	for _, p := range gen.prompts {
		if strings.Contains(p, "0-year-old") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected age 0 in prompts, got %v", gen.prompts)
	}
}

func TestAnalyzeEndpoint_MissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestServer(&fakeGen{}).Router()

	w := postJSON(t, router, "/health_analyze", `{"gender": "male"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := w.Body.String()
	for _, field := range []string{"dob_year", "country", "condition", "details"} {
		if !strings.Contains(body, field) {
			t.Fatalf("expected %q listed in error, got %s", field, body)
		}
	}
	if strings.Contains(body, `"gender"`) {
		t.Fatalf("gender was provided and must not be listed: %s", body)
	}
}

func TestAnalyzeEndpoint_MissingFieldsLocalized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestServer(&fakeGen{}).Router()

	w := postJSON(t, router, "/health_analyze", `{"lang": "zh"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "缺少必填字段") {
		t.Fatalf("expected zh error message, got %s", w.Body.String())
	}
}

func TestAnalyzeEndpoint_InvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestServer(&fakeGen{}).Router()

	w := postJSON(t, router, "/health_analyze", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid JSON, got %d", w.Code)
	}
}

func TestAnalyzeEndpoint_ChineseResponseStrings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestServer(&fakeGen{}).Router()

	body := strings.Replace(validBody, `"details": "poor sleep"`, `"details": "poor sleep", "lang": "zh"`, 1)
	w := postJSON(t, router, "/health_analyze", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "全球健康洞察报告") {
		t.Fatalf("expected zh report title, got %s", w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestServer(&fakeGen{}).Router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected healthz response: %d %s", w.Code, w.Body.String())
	}
}

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("db disabled", func(t *testing.T) {
		router := newTestServer(&fakeGen{}).Router()
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/readyz", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "disabled") {
			t.Fatalf("unexpected readyz response: %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("db unhealthy", func(t *testing.T) {
		srv := newTestServer(&fakeGen{})
		srv.DB = fakeDB{err: errors.New("connection refused")}
		router := srv.Router()
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/readyz", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", w.Code)
		}
	})
}

func TestAuditLatestEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("disabled", func(t *testing.T) {
		router := newTestServer(&fakeGen{}).Router()
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/audit/latest", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"entries":[]`) {
			t.Fatalf("unexpected response: %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("records appear after analysis", func(t *testing.T) {
		store := audit.NewMemoryStore()
		srv := newTestServer(&fakeGen{})
		srv.Audit = store
		srv.Svc.Audit = store
		router := srv.Router()

		if w := postJSON(t, router, "/health_analyze", validBody); w.Code != http.StatusOK {
			t.Fatalf("analyze failed: %d", w.Code)
		}

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/audit/latest?limit=5", nil)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "fatigue") {
			t.Fatalf("expected recorded entry, got %d %s", w.Code, w.Body.String())
		}
	})
}

func TestRequestIDHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestServer(&fakeGen{}).Router()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	router.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id header")
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	router.ServeHTTP(w, req)
	if w.Header().Get("X-Request-ID") != "fixed-id" {
		t.Fatal("expected caller request id echoed")
	}
}

func TestLimitBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("12345"))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("01234567890"))
		router.ServeHTTP(w, req)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})
}

func TestFlexIntUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want FlexInt
	}{
		{`1990`, 1990},
		{`"1990"`, 1990},
		{`" 1990 "`, 1990},
		{`""`, 0},
		{`null`, 0},
		{`"abc"`, 0},
	}
	for _, tc := range cases {
		var f FlexInt
		if err := json.Unmarshal([]byte(tc.in), &f); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if f != tc.want {
			t.Fatalf("unmarshal %s = %d, want %d", tc.in, f, tc.want)
		}
	}
}
