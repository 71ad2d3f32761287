package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddlewareRecordsRequestsByRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	r := mux.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.HandleFunc("/discovery/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/discovery/nacos1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() != "gwsyncer_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if labelValue(metric, "path") == "/discovery/{name}" {
				found = true
				assert.Equal(t, float64(1), metric.GetCounter().GetValue())
			}
		}
	}
	assert.True(t, found, "expected a requests_total sample labeled with the route template")
}

func labelValue(m *dto.Metric, name string) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == name {
			return l.GetValue()
		}
	}
	return ""
}
