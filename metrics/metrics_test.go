package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/projects", "200"))
	RecordHTTPRequest("GET", "/api/projects", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/projects", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordPaymentTransition_PaidAddsAmount(t *testing.T) {
	before := testutil.ToFloat64(paidAmount)
	RecordPaymentTransition("approved", 500)
	RecordPaymentTransition("paid", 500)
	assert.Equal(t, before+500, testutil.ToFloat64(paidAmount))
}

func TestHandler_ExposesNamespace(t *testing.T) {
	RecordPhaseTransition("completed")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "buildtrack_phases_transitions_total")
}
