package domain

import (
	"fmt"
	"strings"
)

// HitPolicy decides how the matched rules of a decision table become its result.
type HitPolicy string

const (
	HitPolicyUnique      HitPolicy = "UNIQUE"
	HitPolicyFirst       HitPolicy = "FIRST"
	HitPolicyAny         HitPolicy = "ANY"
	HitPolicyPriority    HitPolicy = "PRIORITY"
	HitPolicyRuleOrder   HitPolicy = "RULE ORDER"
	HitPolicyOutputOrder HitPolicy = "OUTPUT ORDER"
	HitPolicyCollect     HitPolicy = "COLLECT"
)

// Aggregation reduces the outputs of a COLLECT table to a single value.
type Aggregation string

const (
	AggregationNone  Aggregation = ""
	AggregationSum   Aggregation = "SUM"
	AggregationMin   Aggregation = "MIN"
	AggregationMax   Aggregation = "MAX"
	AggregationCount Aggregation = "COUNT"
)

// AnyEntry is the input entry that matches every value.
const AnyEntry = "-"

// DecisionTable is a deployable rule set. Input entries are jsonlogic
// conditions evaluated with "cellInput" bound to the input value; a scalar
// entry means equality, a list entry means membership, "-" or null matches
// anything.
type DecisionTable struct {
	Key         string         `json:"key" yaml:"key"`
	Name        string         `json:"name,omitempty" yaml:"name,omitempty"`
	VersionTag  string         `json:"versionTag,omitempty" yaml:"versionTag,omitempty"`
	HitPolicy   HitPolicy      `json:"hitPolicy,omitempty" yaml:"hitPolicy,omitempty"`
	Aggregation Aggregation    `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
	Requires    []string       `json:"requires,omitempty" yaml:"requires,omitempty"`
	Inputs      []InputClause  `json:"inputs" yaml:"inputs"`
	Outputs     []OutputClause `json:"outputs" yaml:"outputs"`
	Rules       []Rule         `json:"rules" yaml:"rules"`
}

type InputClause struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Expression names the variable the input reads.
	Expression string `json:"expression" yaml:"expression"`
}

type OutputClause struct {
	Name  string `json:"name" yaml:"name"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	// Values lists the allowed output values by descending priority.
	Values []any `json:"values,omitempty" yaml:"values,omitempty"`
}

type Rule struct {
	ID          string `json:"id" yaml:"id"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	When        []any  `json:"when" yaml:"when"`
	Then        []any  `json:"then" yaml:"then"`
}

// EffectiveHitPolicy returns the declared policy, UNIQUE when none is set.
func (t *DecisionTable) EffectiveHitPolicy() HitPolicy {
	if t.HitPolicy == "" {
		return HitPolicyUnique
	}
	return HitPolicy(strings.ToUpper(strings.ReplaceAll(string(t.HitPolicy), "_", " ")))
}

// Validate checks the structural consistency of the table.
func (t *DecisionTable) Validate() error {
	if t.Key == "" {
		return fmt.Errorf("%w: missing key", ErrInvalidDecisionTable)
	}
	if len(t.Outputs) == 0 {
		return fmt.Errorf("%w: table %q has no outputs", ErrInvalidDecisionTable, t.Key)
	}
	for _, in := range t.Inputs {
		if in.Expression == "" {
			return fmt.Errorf("%w: table %q input %q has no expression", ErrInvalidDecisionTable, t.Key, in.ID)
		}
	}

	policy := t.EffectiveHitPolicy()
	switch policy {
	case HitPolicyUnique, HitPolicyFirst, HitPolicyAny, HitPolicyRuleOrder, HitPolicyCollect:
	case HitPolicyPriority, HitPolicyOutputOrder:
		for _, out := range t.Outputs {
			if len(out.Values) == 0 {
				return fmt.Errorf("%w: table %q uses %s but output %q has no values", ErrInvalidDecisionTable, t.Key, policy, out.Name)
			}
		}
	default:
		return fmt.Errorf("%w: table %q has unknown hit policy %q", ErrInvalidDecisionTable, t.Key, t.HitPolicy)
	}

	switch t.Aggregation {
	case AggregationNone:
	case AggregationSum, AggregationMin, AggregationMax, AggregationCount:
		if policy != HitPolicyCollect {
			return fmt.Errorf("%w: table %q aggregation %s requires COLLECT", ErrInvalidDecisionTable, t.Key, t.Aggregation)
		}
		if len(t.Outputs) != 1 {
			return fmt.Errorf("%w: table %q aggregation %s requires a single output", ErrInvalidDecisionTable, t.Key, t.Aggregation)
		}
	default:
		return fmt.Errorf("%w: table %q has unknown aggregation %q", ErrInvalidDecisionTable, t.Key, t.Aggregation)
	}

	seen := map[string]bool{}
	for i, r := range t.Rules {
		if r.ID != "" {
			if seen[r.ID] {
				return fmt.Errorf("%w: table %q has duplicate rule id %q", ErrInvalidDecisionTable, t.Key, r.ID)
			}
			seen[r.ID] = true
		}
		if len(r.When) != len(t.Inputs) {
			return fmt.Errorf("%w: table %q rule %d has %d input entries, want %d", ErrInvalidDecisionTable, t.Key, i+1, len(r.When), len(t.Inputs))
		}
		if len(r.Then) != len(t.Outputs) {
			return fmt.Errorf("%w: table %q rule %d has %d output entries, want %d", ErrInvalidDecisionTable, t.Key, i+1, len(r.Then), len(t.Outputs))
		}
	}
	return nil
}

// RuleID returns the declared id of rule i or a positional fallback.
func (t *DecisionTable) RuleID(i int) string {
	if id := t.Rules[i].ID; id != "" {
		return id
	}
	return fmt.Sprintf("rule%d", i+1)
}
