package domain

import (
	"fmt"
	"math"
)

// Aggregate reduces collected output values with the given aggregation.
// COUNT counts values of any type; SUM, MIN and MAX require numbers.
func Aggregate(agg Aggregation, values []any) (any, error) {
	if agg == AggregationCount {
		return float64(len(values)), nil
	}
	if len(values) == 0 {
		return nil, nil
	}

	nums := make([]float64, 0, len(values))
	for _, v := range values {
		f, ok := ToFloat64(v)
		if !ok {
			return nil, fmt.Errorf("%w: %s aggregation needs numbers, got %T", ErrRuleExecutionFailed, agg, v)
		}
		nums = append(nums, f)
	}

	switch agg {
	case AggregationSum:
		return Sum(nums...), nil
	case AggregationMin:
		m := math.Inf(1)
		for _, n := range nums {
			m = math.Min(m, n)
		}
		return m, nil
	case AggregationMax:
		m := math.Inf(-1)
		for _, n := range nums {
			m = math.Max(m, n)
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: unknown aggregation %q", ErrRuleExecutionFailed, agg)
}

func Sum(args ...float64) float64 {
	s := 0.0
	for _, a := range args {
		s += a
	}
	return s
}

// ToFloat64 converts numeric kinds to float64.
func ToFloat64(v any) (float64, bool) {
	switch val := NormalizeValue(v).(type) {
	case float64:
		return val, true
	default:
		return 0, false
	}
}
