package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommendation(t *testing.T) {
	tests := []struct {
		name    string
		found   bool
		err     error
		outcome string
	}{
		{"hit", true, nil, OutcomeHit},
		{"empty", false, nil, OutcomeEmpty},
		{"error wins over found", true, errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Recommendations.WithLabelValues("test_"+tt.name, tt.outcome)
			before := testutil.ToFloat64(c)
			RecordRecommendation("test_"+tt.name, tt.found, tt.err)
			if got := testutil.ToFloat64(c) - before; got != 1 {
				t.Errorf("counter delta = %v, want 1", got)
			}
		})
	}
}

func TestRecordTableLoad_CountsErrors(t *testing.T) {
	c := TableLoadErrors.WithLabelValues("test_table")
	before := testutil.ToFloat64(c)

	RecordTableLoad("test_table", time.Millisecond, nil)
	RecordTableLoad("test_table", time.Millisecond, errors.New("missing"))

	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("error delta = %v, want 1", got)
	}
}

func TestRecordClusterAssignment(t *testing.T) {
	c := ClusterAssignments.WithLabelValues("42")
	before := testutil.ToFloat64(c)
	RecordClusterAssignment(42)
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("delta = %v, want 1", got)
	}
}
