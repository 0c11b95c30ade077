package routes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/impresiones-magicas/storefront/api/middleware"
	"github.com/impresiones-magicas/storefront/internal/backend"
	"github.com/impresiones-magicas/storefront/internal/clientstate"
	"github.com/impresiones-magicas/storefront/internal/customize"
	"github.com/impresiones-magicas/storefront/internal/session"
	"github.com/impresiones-magicas/storefront/pkg/config"
	"github.com/impresiones-magicas/storefront/pkg/logger"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Env: "development", Port: "8080"},
		Upload: config.UploadConfig{
			MaxBytes:     5 * 1024 * 1024,
			AllowedMimes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
	logg := logger.New(logger.Options{ServiceName: "router-test", Level: zerolog.Disabled, Output: io.Discard})

	httpClient := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Status:     "404 Not Found",
			Body:       io.NopCloser(strings.NewReader(`{"error":"not found"}`)),
			Header:     http.Header{},
		}, nil
	})}
	client, err := backend.NewClient("http://backend.test", time.Second, backend.WithHTTPClient(httpClient))
	if err != nil {
		t.Fatalf("backend client: %v", err)
	}

	state := clientstate.NewMemoryStore()
	sessions, err := session.NewService(client, state, logg)
	if err != nil {
		t.Fatalf("session service: %v", err)
	}

	return NewRouter(Deps{
		Config:   cfg,
		Logger:   logg,
		Sessions: sessions,
		Uploader: customize.NewUploader(cfg.Upload),
	})
}

func TestHealthLiveIssuesSessionCookie(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected a browser session cookie on first contact")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}
}

func TestSessionRestoreDefaultsToAnonymous(t *testing.T) {
	router := testRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			State string `json:"state"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.State != "anonymous" {
		t.Fatalf("state = %s", envelope.Data.State)
	}
}

func TestCustomizeValidateReportsPrintAreaFit(t *testing.T) {
	router := testRouter(t)

	body := `{
		"canvasWidth": 500,
		"canvasHeight": 600,
		"productName": "Camiseta Shirt",
		"customization": {
			"imageUrl": "https://cdn/art.png",
			"position": {"x": 35, "y": 30},
			"scale": 1.0
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customize/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			WithinPrintArea bool `json:"withinPrintArea"`
			PrintArea       struct {
				Family string `json:"family"`
			} `json:"printArea"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.PrintArea.Family != "shirt" {
		t.Fatalf("family = %s", envelope.Data.PrintArea.Family)
	}
}

func TestCustomizeValidateRejectsOutOfRangeScale(t *testing.T) {
	router := testRouter(t)

	body := `{
		"canvasWidth": 500,
		"canvasHeight": 600,
		"customization": {
			"imageUrl": "https://cdn/art.png",
			"position": {"x": 35, "y": 30},
			"scale": 9.0
		}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/customize/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
