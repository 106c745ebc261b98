package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
}

func TestSearchTierTotal_Labels(t *testing.T) {
	before := testutil.ToFloat64(SearchTierTotal.WithLabelValues("hybrid", "hit"))
	SearchTierTotal.WithLabelValues("hybrid", "hit").Inc()
	if got := testutil.ToFloat64(SearchTierTotal.WithLabelValues("hybrid", "hit")); got != before+1 {
		t.Errorf("search_tier_total = %v, want %v", got, before+1)
	}
}
