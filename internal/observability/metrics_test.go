package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()
}

func TestStreamCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(streamRecords)
	RecordStreamRecord()
	RecordStreamResync()
	RecordStreamOverflow()
	if got := testutil.ToFloat64(streamRecords); got != before+1 {
		t.Fatalf("records counter = %v, want %v", got, before+1)
	}
}

func TestLabeledCountersIncrement(t *testing.T) {
	RecordSCPIRequest("ask", "ok")
	RecordFramedMessage("sent")
	RecordFramedDiscard("unsolicited")
	if got := testutil.ToFloat64(scpiRequests.WithLabelValues("ask", "ok")); got < 1 {
		t.Fatalf("scpi counter = %v, want >= 1", got)
	}
}
