package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTornRequest(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(TornRequestsTotal.WithLabelValues("test_endpoint"))
	beforeErrors := testutil.ToFloat64(TornErrorsTotal.WithLabelValues("test_endpoint"))

	RecordTornRequest("test_endpoint", nil)
	RecordTornRequest("test_endpoint", errors.New("boom"))

	if got := testutil.ToFloat64(TornRequestsTotal.WithLabelValues("test_endpoint")); got != before+2 {
		t.Errorf("Expected %v requests, got %v", before+2, got)
	}
	if got := testutil.ToFloat64(TornErrorsTotal.WithLabelValues("test_endpoint")); got != beforeErrors+1 {
		t.Errorf("Expected %v errors, got %v", beforeErrors+1, got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordSheetWrite("sample")

	recorder := httptest.NewRecorder()
	Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "torn_war_odds_sheet_writes_total") {
		t.Errorf("Expected sheet write counter in output")
	}
}
