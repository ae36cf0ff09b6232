package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hubia/hubia/internal/config"
	"github.com/hubia/hubia/internal/pipeline"
)

func testConfig() config.Config {
	cfg, err := config.Load("hubia-server", func(string) (string, bool) { return "", false })
	if err != nil {
		panic(err)
	}
	return cfg
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return payload
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["service"] != "hubia-server" {
		t.Fatalf("service = %v", payload["service"])
	}
}

func TestReadyEndpointWithoutChecks(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestReadyEndpointReportsFailingCheck(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Readiness: func(context.Context) error { return errors.New("data file is not readable") },
	})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if recorder.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", recorder.Code)
	}
	payload := decodeBody(t, recorder)
	if payload["error_code"] != "NOT_READY" {
		t.Fatalf("error_code = %v", payload["error_code"])
	}
}

func TestCombineReadinessChecksStopsAtFirstFailure(t *testing.T) {
	calls := 0
	failing := func(context.Context) error { calls++; return errors.New("boom") }
	never := func(context.Context) error { calls++; return nil }

	err := CombineReadinessChecks(nil, failing, never)(context.Background())
	if err == nil {
		t.Fatal("expected combined check to fail")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/v1/metrics", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
}

type fakeAsker struct {
	answer       pipeline.Answer
	sql          string
	err          error
	lastQuestion string
}

func (f *fakeAsker) Answer(_ context.Context, question string) (pipeline.Answer, error) {
	f.lastQuestion = question
	if f.err != nil {
		return pipeline.Answer{}, f.err
	}
	return f.answer, nil
}

func (f *fakeAsker) Translate(_ context.Context, question string) (string, error) {
	f.lastQuestion = question
	if f.err != nil {
		return "", f.err
	}
	return f.sql, nil
}
