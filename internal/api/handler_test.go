package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/plotina/internal/dashboard"
	"github.com/mtlprog/plotina/internal/domain"
	"github.com/mtlprog/plotina/internal/events"
	"github.com/mtlprog/plotina/internal/store"
)

const seriesBody = `{
  "S1": {"title": "S1 Recruitment", "url": "guide.pdf#page=4", "description": "Share of recruited members",
         "data": [{"date": "2018-01-10", "m": 1, "value": 80}, {"date": "2018-06-10", "m": 2, "value": 40}]},
  "CI2": {"title": "CI2 Cohesion", "url": null, "description": "",
          "data": [{"date": "2018-01-10", "m": 1, "value": 20}, {"date": "2018-06-10", "m": 2, "value": 60}]},
  "non_normalized_S1": {"title": "raw", "url": null, "description": "",
          "data": [{"date": "2018-01-10", "m": 1, "value": 8000}, {"date": "2018-06-10", "m": 2, "value": 4000}]}
}`

const settingsBody = `{
  "S1": {"weight": 50, "threshold": 30},
  "CI2": {"weight": 50, "threshold": 40},
  "COMP": {"threshold": 45}
}`

type staticFetcher struct {
	name string
	body string
	err  error
}

func (f *staticFetcher) Name() string { return f.name }

func (f *staticFetcher) Fetch(context.Context) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

type testEnv struct {
	dash   *dashboard.Service
	bus    *events.Bus
	router http.Handler
	series *staticFetcher
}

func newEnv(t *testing.T, opts Options, seriesErr error) *testEnv {
	t.Helper()
	series := &staticFetcher{name: "series.json", body: seriesBody, err: seriesErr}
	settings := &staticFetcher{name: "settings.json", body: settingsBody}
	bus := events.NewBus()
	dash := dashboard.NewService(store.NewLoader(series, settings), store.New(bus), bus)
	t.Cleanup(dash.Stop)

	env := &testEnv{dash: dash, bus: bus, series: series, router: NewRouter(dash, bus, opts)}
	if err := dash.Start(context.Background()); err != nil && seriesErr == nil {
		t.Fatalf("Start: %v", err)
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestGetState(t *testing.T) {
	env := newEnv(t, Options{}, nil)

	w := env.do(t, http.MethodGet, "/api/v1/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	state := decode[dashboard.State](t, w)
	if len(state.Indicators) != 3 || state.Indicators[2].Code != domain.CompositeCode {
		t.Errorf("indicators = %+v", state.Indicators)
	}
	if len(state.Composite) != 2 || state.Composite[0].Value != "50.00" {
		t.Errorf("composite = %+v", state.Composite)
	}
	if state.Threshold != 45 {
		t.Errorf("threshold = %v, want 45", state.Threshold)
	}
}

func TestGetStateLoadFailure(t *testing.T) {
	env := newEnv(t, Options{}, errors.New("connection refused"))

	w := env.do(t, http.MethodGet, "/api/v1/state", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "load failed") {
		t.Errorf("body = %s", w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz status = %d, want 503", w.Code)
	}
}

func TestGetComposite(t *testing.T) {
	env := newEnv(t, Options{}, nil)

	w := env.do(t, http.MethodGet, "/api/v1/composite", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[struct {
		Threshold float64                 `json:"threshold"`
		Points    []domain.CompositePoint `json:"points"`
	}](t, w)
	if resp.Threshold != 45 || len(resp.Points) != 2 || resp.Points[1].M != 2 {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetImpacts(t *testing.T) {
	env := newEnv(t, Options{}, nil)

	impacts := decode[[]domain.Impact](t, env.do(t, http.MethodGet, "/api/v1/impacts", ""))
	if len(impacts) != 2 {
		t.Fatalf("impacts = %+v", impacts)
	}
	if impacts[0].Code != "CI2" || impacts[0].Impact != 50 {
		t.Errorf("impacts[0] = %+v", impacts[0])
	}
}

func TestRecalculate(t *testing.T) {
	env := newEnv(t, Options{}, nil)

	w := env.do(t, http.MethodPost, "/api/v1/recalculate", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestReloadRequiresAdminKey(t *testing.T) {
	env := newEnv(t, Options{AdminAPIKey: "secret"}, errors.New("timeout"))

	w := env.do(t, http.MethodPost, "/api/v1/reload", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	env.series.err = nil
	w = env.do(t, http.MethodPost, "/api/v1/reload", "", "Authorization", "Bearer secret")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodGet, "/api/v1/state", ""); w.Code != http.StatusOK {
		t.Errorf("state after reload = %d, want 200", w.Code)
	}
}

func TestSetSelection(t *testing.T) {
	env := newEnv(t, Options{}, nil)

	w := env.do(t, http.MethodPut, "/api/v1/selection", `{"index": 1, "show": true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[map[string]any](t, w)
	if resp["index"] != 1.0 || resp["show"] != true {
		t.Errorf("response = %v", resp)
	}

	w = env.do(t, http.MethodPut, "/api/v1/selection", `{"show": false}`)
	resp = decode[map[string]any](t, w)
	if resp["index"] != 1.0 || resp["show"] != false {
		t.Errorf("show-only update changed index: %v", resp)
	}

	w = env.do(t, http.MethodPut, "/api/v1/selection", `{"index": null}`)
	resp = decode[map[string]any](t, w)
	if resp["index"] != nil || resp["show"] != false {
		t.Errorf("explicit null should clear index: %v", resp)
	}

	if w := env.do(t, http.MethodPut, "/api/v1/selection", `{"index": "one"}`); w.Code != http.StatusBadRequest {
		t.Errorf("non-integer index status = %d, want 400", w.Code)
	}
	if w := env.do(t, http.MethodPut, "/api/v1/selection", `{"index": 9}`); w.Code != http.StatusUnprocessableEntity {
		t.Errorf("out of range status = %d, want 422", w.Code)
	}
	if w := env.do(t, http.MethodPut, "/api/v1/selection", `{`); w.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d, want 400", w.Code)
	}
}

func TestDownloadSettings(t *testing.T) {
	env := newEnv(t, Options{}, nil)

	w := env.do(t, http.MethodGet, "/api/v1/settings", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "settings.json") {
		t.Errorf("Content-Disposition = %q", got)
	}

	settings := decode[map[string]domain.SettingsEntry](t, w)
	if len(settings) != 3 {
		t.Errorf("settings = %v", settings)
	}
	if settings["COMP"].Weight != nil || settings["COMP"].Threshold != 45 {
		t.Errorf("COMP = %+v", settings["COMP"])
	}
}

func TestExportXLSX(t *testing.T) {
	env := newEnv(t, Options{}, nil)

	w := env.do(t, http.MethodGet, "/api/v1/export.xlsx", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()
	if len(f.GetSheetList()) != 3 {
		t.Errorf("sheets = %v", f.GetSheetList())
	}
}

func TestMetaAndHealth(t *testing.T) {
	env := newEnv(t, Options{Demo: true}, nil)

	meta := decode[map[string]bool](t, env.do(t, http.MethodGet, "/api/v1/meta", ""))
	if !meta["demo"] {
		t.Error("demo flag not reported")
	}
	if w := env.do(t, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newEnv(t, Options{CORSOrigins: []string{"https://dash.example.com"}}, nil)

	w := env.do(t, http.MethodOptions, "/api/v1/indicators/S1/weight", "",
		"Origin", "https://dash.example.com",
		"Access-Control-Request-Method", "PUT")
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
