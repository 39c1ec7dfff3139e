package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/askcampus/config"
	"github.com/mohammad-safakhou/askcampus/internal/app"
	"github.com/mohammad-safakhou/askcampus/internal/research"
	"github.com/mohammad-safakhou/askcampus/internal/store"
	"github.com/mohammad-safakhou/askcampus/models"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeService struct {
	lastQuery string
	lastOpts  app.AskOptions
	askErr    error
	results   map[string]models.ResearchResult
}

func (f *fakeService) Ask(_ context.Context, query string, opts app.AskOptions) (app.Answer, error) {
	f.lastQuery, f.lastOpts = query, opts
	if strings.TrimSpace(query) == "" {
		return app.Answer{}, app.ErrEmptyQuery
	}
	if f.askErr != nil {
		return app.Answer{}, f.askErr
	}
	return app.Answer{
		Result: models.ResearchResult{
			ID:          "run-1",
			Query:       query,
			State:       models.StateDone,
			FinalAnswer: "answer",
			Sources:     []models.Source{{Title: "Parking", URL: "https://transportation.ncsu.edu/parking", RelevanceScore: 0.8, WordCount: 9}},
		},
		Files: map[string]string{"answer": "results/answer.txt"},
	}, nil
}

func (f *fakeService) Get(_ context.Context, id string) (models.ResearchResult, error) {
	r, ok := f.results[id]
	if !ok {
		return models.ResearchResult{}, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeService) List(_ context.Context, limit int) ([]models.ResearchResult, error) {
	out := []models.ResearchResult{}
	for _, r := range f.results {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r)
	}
	return out, nil
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateResearch(t *testing.T) {
	t.Parallel()
	svc := &fakeService{}
	e := New(config.ServerConfig{}, svc, prometheus.NewRegistry(), nil)

	rec := do(t, e, http.MethodPost, "/api/research", `{"query":"parking permits","threshold":0.7,"max_pages":3}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	var resp ResearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "run-1" || resp.State != "DONE" || len(resp.Sources) != 1 || resp.Files["answer"] == "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if svc.lastQuery != "parking permits" || svc.lastOpts.Threshold == nil || *svc.lastOpts.Threshold != 0.7 || svc.lastOpts.MaxPages != 3 {
		t.Fatalf("options not forwarded: %q %+v", svc.lastQuery, svc.lastOpts)
	}
}

func TestCreateResearchErrors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		body   string
		askErr error
		want   int
	}{
		{name: "empty query", body: `{"query":"  "}`, want: http.StatusBadRequest},
		{name: "bad threshold", body: `{"query":"q","threshold":2}`, want: http.StatusBadRequest},
		{name: "malformed", body: `{"query":`, want: http.StatusBadRequest},
		{name: "synthesis failure", body: `{"query":"q"}`, askErr: research.ErrSynthesis, want: http.StatusBadGateway},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			e := New(config.ServerConfig{}, &fakeService{askErr: tc.askErr}, prometheus.NewRegistry(), nil)
			rec := do(t, e, http.MethodPost, "/api/research", tc.body, nil)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("expected JSON error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestGetAndListResearch(t *testing.T) {
	t.Parallel()
	svc := &fakeService{results: map[string]models.ResearchResult{
		"run-9": {ID: "run-9", Query: "dining", State: models.StateNoResults, Timestamp: time.Now()},
	}}
	e := New(config.ServerConfig{}, svc, prometheus.NewRegistry(), nil)

	if rec := do(t, e, http.MethodGet, "/api/research/run-9", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"NO_RESULTS"`) {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, e, http.MethodGet, "/api/research/missing", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	rec := do(t, e, http.MethodGet, "/api/research?limit=5", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var list []ResearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("unexpected list %s (%v)", rec.Body.String(), err)
	}
	if rec := do(t, e, http.MethodGet, "/api/research?limit=x", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "askcampus_test_total"}))
	e := New(config.ServerConfig{JWTSecret: "s"}, &fakeService{}, reg, nil)

	if rec := do(t, e, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}
	rec := do(t, e, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "askcampus_test_total") {
		t.Fatalf("metrics: %d %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequiredWhenSecretSet(t *testing.T) {
	t.Parallel()
	secret := "top-secret"
	e := New(config.ServerConfig{JWTSecret: secret}, &fakeService{}, prometheus.NewRegistry(), nil)

	if rec := do(t, e, http.MethodGet, "/api/research", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	bad, _ := SignJWT("alice", []byte("other"), time.Minute)
	if rec := do(t, e, http.MethodGet, "/api/research", "", map[string]string{"Authorization": "Bearer " + bad}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}
	expired, _ := SignJWT("alice", []byte(secret), -time.Minute)
	if rec := do(t, e, http.MethodGet, "/api/research", "", map[string]string{"Authorization": "Bearer " + expired}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with expired token, got %d", rec.Code)
	}
	good, err := SignJWT("alice", []byte(secret), time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if rec := do(t, e, http.MethodGet, "/api/research", "", map[string]string{"Authorization": "Bearer " + good}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	if rec := do(t, e, http.MethodGet, "/api/research", "", map[string]string{"Cookie": "auth=" + good}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with cookie, got %d", rec.Code)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	e := New(config.ServerConfig{}, &fakeService{}, prometheus.NewRegistry(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, e, "127.0.0.1:0", nil) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
