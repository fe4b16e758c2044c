package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
)

func TestCollector_ObserveEvaluation(t *testing.T) {
	c := NewCollector(nil)

	c.ObserveEvaluation(&domain.DecisionEvaluation{
		DecisionKey: "beverages",
		HitPolicy:   domain.HitPolicyCollect,
		Duration:    2 * time.Millisecond,
		Result: &domain.DecisionResult{Results: []domain.ResultEntries{
			{{Name: "beverages", Value: "Guiness"}},
			{{Name: "beverages", Value: "Water"}},
		}},
	})
	c.ObserveEvaluation(&domain.DecisionEvaluation{
		DecisionKey: "beverages",
		HitPolicy:   domain.HitPolicyCollect,
		Error:       "missing variable",
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.evaluations.WithLabelValues("beverages", "COLLECT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures.WithLabelValues("beverages")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.matched))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(nil)
	c.ObserveEvaluation(&domain.DecisionEvaluation{
		DecisionKey: "carrier",
		HitPolicy:   domain.HitPolicyFirst,
		Result:      &domain.DecisionResult{Results: []domain.ResultEntries{{{Name: "carrier", Value: "Colissimo"}}}},
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `decisions_evaluations_total{decision="carrier",hit_policy="FIRST"} 1`)
	assert.Contains(t, string(body), `decisions_results_count{decision="carrier"} 1`)
}
