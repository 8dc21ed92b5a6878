package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kiyon21/Finsight-AI/internal/api/controller"
	"github.com/kiyon21/Finsight-AI/internal/metrics"
	"github.com/kiyon21/Finsight-AI/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func newRouter(t *testing.T, gatherer prometheus.Gatherer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewAnalysisService(nil, nil, nil, metrics.Nop(), zerolog.Nop())
	r := gin.New()
	RegisterRoutes(r, controller.NewInsightController(svc, zerolog.Nop()), gatherer)
	return r
}

func TestHealth(t *testing.T) {
	r := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("GET /health = %d %s", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.AnalysesStored.WithLabelValues("quick_insight").Inc()
	r := newRouter(t, reg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `finsight_analyses_stored_total{analysis_type="quick_insight"} 1`) {
		t.Errorf("metrics output missing counter:\n%s", w.Body.String())
	}
}

func TestMetricsDisabledWithoutGatherer(t *testing.T) {
	r := newRouter(t, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("GET /metrics = %d, want 404", w.Code)
	}
}

func TestRoutesRegistered(t *testing.T) {
	r := newRouter(t, nil)

	want := map[string]bool{
		"POST /api/ai/insights/":         false,
		"POST /api/ai/account-insights/": false,
		"POST /api/ai/quick-insight/":    false,
		"GET /api/ai/history/:user_id/":  false,
		"GET /api/ai/analysis/:id/":      false,
	}
	for _, route := range r.Routes() {
		key := route.Method + " " + route.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for route, found := range want {
		if !found {
			t.Errorf("route %s not registered", route)
		}
	}
}
