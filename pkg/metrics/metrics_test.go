package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerMetrics_Exposed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewServerMetrics(reg, "storefront")

	m.Fulfillments.WithLabelValues("completed").Inc()
	m.Fulfillments.WithLabelValues("completed").Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fulfillments.WithLabelValues("completed")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "artshop_storefront_fulfillments_total"))
}
