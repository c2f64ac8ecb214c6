package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/bankapi/internal/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.RecordAuth("authenticated")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.authGate.WithLabelValues("authenticated")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.authGate.WithLabelValues("authenticated")))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New()

	m.RecordHTTPRequest("GET", "/money", "200", 10*time.Millisecond)
	m.RecordHTTPRequest("GET", "/money", "200", 20*time.Millisecond)
	m.RecordHTTPRequest("POST", "/money", "400", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/money", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/money", "400")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.httpDuration))
}

func TestInFlight(t *testing.T) {
	m := New()
	m.IncInFlight()
	m.IncInFlight()
	m.DecInFlight()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inFlight))
}

func TestTransferOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{common.ErrorInsufficientFunds, "insufficient_funds"},
		{fmt.Errorf("wrapped: %w", common.ErrorUnknownAccount), "unknown_account"},
		{common.ErrorInvalidAmount, "invalid_amount"},
		{common.ErrorSelfTransfer, "self_transfer"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TransferOutcome(tt.err))
	}
}

func TestRecordTransferAndRateLimited(t *testing.T) {
	m := New()
	m.RecordTransfer(nil)
	m.RecordTransfer(common.ErrorInsufficientFunds)
	m.RecordTransfer(common.ErrorInsufficientFunds)
	m.RecordRateLimited("/signin")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.transfers.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transfers.WithLabelValues("insufficient_funds")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("/signin")))
}

func TestHandler_ServesExposition(t *testing.T) {
	m := New()
	m.RecordTransfer(nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bankapi_transfers_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
