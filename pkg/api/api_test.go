package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/modelgraph/pkg/errors"
	"github.com/matzehuels/modelgraph/pkg/observability"
	"github.com/matzehuels/modelgraph/pkg/pipeline"
)

const modelsJSON = `[{"id":"m1","entities":{
	"A":{"type":"class"},
	"B":{"type":"class"},
	"C":{"type":"class"},
	"g1":{"type":"generalization","child":"B","parent":"A"},
	"r1":{"type":"relationship","ends":[{"concept":"C"},{"concept":"A"}]}
}}]`

const randomConfigJSON = `{"seed":1,"main":{"algorithm":"random","should_be_considered":true}}`

func newTestServer(opts ...Option) *httptest.Server {
	s := NewServer(pipeline.NewRunner(nil, nil, nil), opts...)
	return httptest.NewServer(s.Handler())
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func TestLayout(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	body := fmt.Sprintf(`{"models":%s,"config":%s,"group":true}`, modelsJSON, randomConfigJSON)
	resp, data := post(t, srv.URL+"/v1/layout", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", resp.StatusCode, data)
	}
	var got LayoutResponse
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Entities) != 3 {
		t.Errorf("entities = %d, want 3", len(got.Entities))
	}
	if _, ok := got.Metrics["edge_crossing"]; !ok {
		t.Errorf("metrics = %v, want edge_crossing", got.Metrics)
	}
	if got.Stats.SubgraphCount != 1 {
		t.Errorf("subgraphs = %d, want 1", got.Stats.SubgraphCount)
	}
}

func TestLayoutErrors(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   errors.Code
	}{
		{"malformed json", `{"models":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", `{"modles":[]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no models", `{"models":[]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{
			"bad algorithm",
			fmt.Sprintf(`{"models":%s,"config":{"main":{"algorithm":"spiral"}}}`, modelsJSON),
			http.StatusBadRequest, errors.ErrCodeInvalidAlgorithm,
		},
		{
			"bad subset",
			fmt.Sprintf(`{"models":%s,"config":{"main":{"algorithm":"random","constrained_nodes":"SOME"}}}`, modelsJSON),
			http.StatusBadRequest, errors.ErrCodeInvalidSubset,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := post(t, srv.URL+"/v1/layout", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var got ErrorResponse
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("decode error body %s: %v", data, err)
			}
			if got.Code != tt.wantCode || got.Message == "" {
				t.Errorf("error = %+v, want code %s", got, tt.wantCode)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	srv := newTestServer()
	defer srv.Close()

	visual := `{"entities":{
		"A":{"visible":true,"position":{"x":0,"y":0},"width":100,"height":50},
		"B":{"visible":true,"position":{"x":300,"y":0},"width":100,"height":50},
		"C":{"visible":true,"position":{"x":0,"y":300},"width":100,"height":50}
	}}`
	resp, data := post(t, srv.URL+"/v1/metrics", fmt.Sprintf(`{"models":%s,"visual":%s}`, modelsJSON, visual))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", resp.StatusCode, data)
	}
	var got MetricsResponse
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Metrics["area"] != 600*600 {
		t.Errorf("area = %v, want %v", got.Metrics["area"], 600*600)
	}

	resp, _ = post(t, srv.URL+"/v1/metrics", fmt.Sprintf(`{"models":%s}`, modelsJSON))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status without visual = %d, want 400", resp.StatusCode)
	}
}

func TestHealthAndPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := observability.NewPrometheusHooks(reg)
	hooks.Install()
	t.Cleanup(observability.Reset)

	srv := newTestServer(WithGatherer(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || health.Status != "ok" {
		t.Errorf("healthz = %d %+v, want 200 ok", resp.StatusCode, health)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), `modelgraph_http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Errorf("/metrics does not report the healthz request:\n%s", buf.String())
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidConfig, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidPath, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeLayoutFailed, "x"), http.StatusBadGateway},
		{fmt.Errorf("layout: %w", errors.New(errors.ErrCodeTimeout, "x")), http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeLayoutStopped, "x"), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
