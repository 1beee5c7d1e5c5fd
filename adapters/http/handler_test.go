package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/artpar/convreg/adapters/auth"
	"github.com/artpar/convreg/adapters/clock"
	apihttp "github.com/artpar/convreg/adapters/http"
	"github.com/artpar/convreg/adapters/idgen"
	"github.com/artpar/convreg/adapters/memory"
	"github.com/artpar/convreg/adapters/metrics"
	"github.com/artpar/convreg/app"
	"github.com/artpar/convreg/core/provider"
	"github.com/artpar/convreg/pkg/jsonapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router   http.Handler
	registry *prometheus.Registry
}

func setupTestRouter(t *testing.T, admin apihttp.AdminCredentials) testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	store := memory.NewSelectorStore()
	fake := clock.NewFake(baseTime)

	resolver := app.NewResolverService(app.ResolverDeps{
		Registry:  provider.MustNewRegistry(""),
		Selectors: store,
		Audit:     memory.NewResolutionStore(10),
		Observer:  m,
		Clock:     fake,
		IDGen:     idgen.NewSequential("res_"),
		Logger:    zerolog.Nop(),
	}, app.ResolverConfig{Aliases: map[string]string{"money": "to-number-or-expression-number(number-to-number)"}})
	selectors := app.NewSelectorService(store, resolver, m, fake, zerolog.Nop())

	router := apihttp.NewRouter(
		apihttp.NewHandler(resolver, selectors, zerolog.Nop()),
		apihttp.NewHealthHandler(nil),
		zerolog.Nop(),
		apihttp.RouterConfig{
			Version:        "1.2.3",
			Metrics:        m,
			MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			EnableOpenAPI:  true,
			Admin:          func() apihttp.AdminCredentials { return admin },
			Clock:          fake,
		},
	)
	return testServer{router: router, registry: reg}
}

func do(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type resourceDoc struct {
	Data   jsonapi.Resource `json:"data"`
	Errors []jsonapi.Error  `json:"errors"`
}

type collectionDoc struct {
	Data []jsonapi.Resource `json:"data"`
	Meta jsonapi.Meta       `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndVersion(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		if rec := do(t, srv.router, "GET", path, ""); rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, rec.Code)
		}
	}

	rec := do(t, srv.router, "GET", "/version", "")
	var v apihttp.VersionResponse
	decode(t, rec, &v)
	if v.Version != "1.2.3" || v.Service != "convreg" {
		t.Errorf("version = %+v", v)
	}
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("database is locked") }

func TestHealthHandler_ReadinessFailure(t *testing.T) {
	h := apihttp.NewHealthHandler(failingPinger{})
	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest("GET", "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var body apihttp.HealthResponse
	decode(t, rec, &body)
	if body.Status != "unhealthy" || body.Error == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestListConverters(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	rec := do(t, srv.router, "GET", "/api/v1/converters", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != jsonapi.ContentType {
		t.Errorf("Content-Type = %s", ct)
	}

	var doc collectionDoc
	decode(t, rec, &doc)
	if len(doc.Data) != 4 {
		t.Fatalf("len(data) = %d, want 4", len(doc.Data))
	}
	if doc.Data[0].ID != "number-or-expression-number-to-number" {
		t.Errorf("first = %s, want sorted catalogue", doc.Data[0].ID)
	}
	if doc.Data[2].Attributes["arity"] != float64(2) {
		t.Errorf("to-expression-number-then arity = %v", doc.Data[2].Attributes["arity"])
	}
}

func TestGetConverter(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	rec := do(t, srv.router, "GET", "/api/v1/converters/number-to-number", "")
	var doc resourceDoc
	decode(t, rec, &doc)
	if rec.Code != http.StatusOK || doc.Data.Attributes["url"] != provider.DefaultBaseURL+"/number-to-number" {
		t.Errorf("status = %d data = %+v", rec.Code, doc.Data)
	}

	rec = do(t, srv.router, "GET", "/api/v1/converters/nope", "")
	decode(t, rec, &doc)
	if rec.Code != http.StatusNotFound || doc.Errors[0].Code != "unknown_component" {
		t.Errorf("status = %d errors = %+v", rec.Code, doc.Errors)
	}
}

func TestResolve(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantID     string
	}{
		{"ok", `{"selector":"to-expression-number-then (number-to-number,number-to-number)"}`, 200, "", "to-expression-number-then(number-to-number, number-to-number)"},
		{"alias", `{"selector":"money"}`, 200, "", "to-number-or-expression-number(number-to-number)"},
		{"syntax", `{"selector":"number-to-number("}`, 400, "selector_syntax", ""},
		{"unknown", `{"selector":"nope(number-to-number)"}`, 404, "unknown_component", ""},
		{"arity", `{"selector":"to-expression-number-then(number-to-number)"}`, 422, "arity_mismatch", ""},
		{"parameter type", `{"selector":"to-number-or-expression-number(\"x\")"}`, 422, "parameter_type", ""},
		{"missing selector", `{}`, 422, "validation_error", ""},
		{"bad json", `{`, 400, "bad_request", ""},
		{"unknown field", `{"selector":"number-to-number","x":1}`, 400, "bad_request", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.router, "POST", "/api/v1/resolve", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var doc resourceDoc
			decode(t, rec, &doc)
			if tt.wantCode != "" {
				if len(doc.Errors) != 1 || doc.Errors[0].Code != tt.wantCode {
					t.Errorf("errors = %+v, want %s", doc.Errors, tt.wantCode)
				}
				return
			}
			if doc.Data.ID != tt.wantID || doc.Data.Attributes["converter"] != tt.wantID {
				t.Errorf("data = %+v", doc.Data)
			}
			if doc.Data.Attributes["tree"] == nil {
				t.Error("tree missing")
			}
		})
	}
}

func TestResolve_ArityErrorMeta(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	rec := do(t, srv.router, "POST", "/api/v1/resolve", `{"selector":"to-expression-number-then(number-to-number)"}`)
	var doc resourceDoc
	decode(t, rec, &doc)

	e := doc.Errors[0]
	if e.Meta["expected"] != float64(2) || e.Meta["actual"] != float64(1) {
		t.Errorf("meta = %v", e.Meta)
	}
	if !strings.Contains(e.Detail, "expected 2 values got 1") {
		t.Errorf("detail = %s", e.Detail)
	}
}

func TestConvert(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantValue  any
		wantCode   string
	}{
		{"json number to int64", `{"selector":"number-to-number","value":12,"target":"int64"}`, 200, float64(12), ""},
		{"string number to decimal", `{"selector":"number-to-number","value":"12.50","target":"decimal"}`, 200, "12.5", ""},
		{"expression number", `{"selector":"money","value":2.5,"target":"expression-number"}`, 200, nil, ""},
		{"lossy", `{"selector":"number-to-number","value":2.5,"target":"int"}`, 422, nil, "conversion_failed"},
		{"not a number", `{"selector":"number-to-number","value":"abc","target":"int"}`, 422, nil, "conversion_failed"},
		{"float64 overflow", `{"selector":"number-to-number","value":1e400,"target":"float64"}`, 422, nil, "conversion_failed"},
		{"bad target", `{"selector":"number-to-number","value":1,"target":"string"}`, 422, nil, "validation_error"},
		{"missing value", `{"selector":"number-to-number","target":"int"}`, 422, nil, "validation_error"},
		{"unknown", `{"selector":"nope","value":1,"target":"int"}`, 404, nil, "unknown_component"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.router, "POST", "/api/v1/convert", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			var doc resourceDoc
			decode(t, rec, &doc)
			if tt.wantCode != "" {
				if len(doc.Errors) != 1 || doc.Errors[0].Code != tt.wantCode {
					t.Errorf("errors = %+v, want %s", doc.Errors, tt.wantCode)
				}
				return
			}
			if tt.wantValue != nil && doc.Data.Attributes["value"] != tt.wantValue {
				t.Errorf("value = %v (%T), want %v", doc.Data.Attributes["value"], doc.Data.Attributes["value"], tt.wantValue)
			}
			if doc.Data.Attributes["value"] == nil {
				t.Error("value missing")
			}
		})
	}
}

func TestSelectors_OpenWithoutAdminKey(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	rec := do(t, srv.router, "PUT", "/api/v1/selectors/n2n", `{"selector":"number-to-number ()","description":"plain"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d: %s", rec.Code, rec.Body.String())
	}
	var doc resourceDoc
	decode(t, rec, &doc)
	if doc.Data.ID != "n2n" || doc.Data.Attributes["selector"] != "number-to-number" {
		t.Errorf("data = %+v", doc.Data)
	}

	rec = do(t, srv.router, "GET", "/api/v1/selectors", "")
	var list collectionDoc
	decode(t, rec, &list)
	if len(list.Data) != 1 {
		t.Errorf("len(list) = %d", len(list.Data))
	}

	rec = do(t, srv.router, "POST", "/api/v1/resolve", `{"selector":"n2n"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("resolve saved alias = %d", rec.Code)
	}

	if rec = do(t, srv.router, "DELETE", "/api/v1/selectors/n2n", ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	rec = do(t, srv.router, "GET", "/api/v1/selectors/n2n", "")
	decode(t, rec, &doc)
	if rec.Code != http.StatusNotFound || doc.Errors[0].Code != "not_found" {
		t.Errorf("GET after delete = %d %+v", rec.Code, doc.Errors)
	}
}

func TestSelectors_SaveValidation(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	tests := []struct {
		path     string
		body     string
		status   int
		wantCode string
	}{
		{"/api/v1/selectors/bad", `{"selector":"nope"}`, 404, "unknown_component"},
		{"/api/v1/selectors/bad", `{"selector":"to-expression-number-then(number-to-number)"}`, 422, "arity_mismatch"},
		{"/api/v1/selectors/number-to-number", `{"selector":"number-to-number"}`, 422, "validation_error"},
		{"/api/v1/selectors/9lives", `{"selector":"number-to-number"}`, 422, "validation_error"},
		{"/api/v1/selectors/empty", `{}`, 422, "validation_error"},
	}

	for _, tt := range tests {
		rec := do(t, srv.router, "PUT", tt.path, tt.body)
		var doc resourceDoc
		decode(t, rec, &doc)
		if rec.Code != tt.status || len(doc.Errors) == 0 || doc.Errors[0].Code != tt.wantCode {
			t.Errorf("PUT %s %s = %d %+v, want %d %s", tt.path, tt.body, rec.Code, doc.Errors, tt.status, tt.wantCode)
		}
	}
}

func TestSelectors_AdminKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	srv := setupTestRouter(t, apihttp.AdminCredentials{KeyHash: string(hash)})
	body := `{"selector":"number-to-number"}`

	tests := []struct {
		name    string
		headers []string
		status  int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", []string{apihttp.AdminKeyHeader, "nope"}, http.StatusUnauthorized},
		{"valid key", []string{apihttp.AdminKeyHeader, "s3cret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.router, "PUT", "/api/v1/selectors/a", body, tt.headers...)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}

	// Reads stay open.
	if rec := do(t, srv.router, "GET", "/api/v1/selectors/a", ""); rec.Code != http.StatusOK {
		t.Errorf("GET status = %d", rec.Code)
	}
	if rec := do(t, srv.router, "DELETE", "/api/v1/selectors/a", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("DELETE without key = %d", rec.Code)
	}
}

func TestSelectors_AdminToken(t *testing.T) {
	const secret = "0123456789abcdef0123456789abcdef"
	srv := setupTestRouter(t, apihttp.AdminCredentials{TokenSecret: secret, TokenTTL: time.Hour})

	tokens, err := auth.NewTokenService(secret, time.Hour, clock.NewFake(baseTime))
	if err != nil {
		t.Fatal(err)
	}
	valid, _, _ := tokens.Issue("ops")

	other, _ := auth.NewTokenService(strings.Repeat("x", 32), time.Hour, clock.NewFake(baseTime))
	forged, _, _ := other.Issue("ops")

	expired, err := auth.NewTokenService(secret, time.Hour, clock.NewFake(baseTime.Add(-2*time.Hour)))
	if err != nil {
		t.Fatal(err)
	}
	old, _, _ := expired.Issue("ops")

	body := `{"selector":"number-to-number"}`
	tests := []struct {
		name    string
		headers []string
		status  int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"admin key without hash", []string{apihttp.AdminKeyHeader, "s3cret"}, http.StatusUnauthorized},
		{"forged token", []string{"Authorization", "Bearer " + forged}, http.StatusUnauthorized},
		{"expired token", []string{"Authorization", "Bearer " + old}, http.StatusUnauthorized},
		{"valid token", []string{"Authorization", "Bearer " + valid}, http.StatusOK},
		{"lowercase scheme", []string{"Authorization", "bearer " + valid}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.router, "PUT", "/api/v1/selectors/a", body, tt.headers...)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestListResolutions(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	do(t, srv.router, "POST", "/api/v1/resolve", `{"selector":"number-to-number"}`)
	do(t, srv.router, "POST", "/api/v1/resolve", `{"selector":"nope"}`)

	rec := do(t, srv.router, "GET", "/api/v1/resolutions?limit=1", "")
	var doc collectionDoc
	decode(t, rec, &doc)
	if len(doc.Data) != 1 || doc.Data[0].Attributes["outcome"] != app.OutcomeUnknown {
		t.Errorf("data = %+v", doc.Data)
	}

	if rec := do(t, srv.router, "GET", "/api/v1/resolutions?limit=x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	do(t, srv.router, "GET", "/api/v1/converters/number-to-number", "")
	do(t, srv.router, "POST", "/api/v1/resolve", `{"selector":"number-to-number"}`)

	rec := do(t, srv.router, "GET", "/metrics", "")
	body := rec.Body.String()
	for _, want := range []string{
		`convreg_requests_total{method="GET",path="/api/v1/converters/{name}",status="2xx"} 1`,
		`convreg_resolutions_total{outcome="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestSwaggerDoc(t *testing.T) {
	srv := setupTestRouter(t, apihttp.AdminCredentials{})

	rec := do(t, srv.router, "GET", "/swagger/doc.json", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/api/v1/resolve") {
		t.Error("swagger doc missing resolve path")
	}
}
