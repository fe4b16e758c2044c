package usecase

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/Victor-armando18/dmn-getstarted/internal/interfaces"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type DecisionService struct {
	repo      interfaces.DecisionRepository
	evaluator interfaces.ConditionEvaluator
	history   interfaces.HistoryRecorder
	observers []interfaces.EvaluationObserver
	log       logrus.FieldLogger
	now       func() time.Time
}

type Option func(*DecisionService)

// WithHistory records every evaluation in h.
func WithHistory(h interfaces.HistoryRecorder) Option {
	return func(s *DecisionService) { s.history = h }
}

func WithObserver(o interfaces.EvaluationObserver) Option {
	return func(s *DecisionService) { s.observers = append(s.observers, o) }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *DecisionService) { s.log = l }
}

func NewDecisionService(repo interfaces.DecisionRepository, evaluator interfaces.ConditionEvaluator, opts ...Option) interfaces.DecisionService {
	s := &DecisionService{
		repo:      repo,
		evaluator: evaluator,
		log:       logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateDecisionTableByKey evaluates the latest deployed version of key.
// Required decisions are evaluated first and their outputs join the scope.
func (s *DecisionService) EvaluateDecisionTableByKey(ctx context.Context, key string, variables *domain.VariableRecord) (*domain.DecisionResult, error) {
	if err := variables.Validate(); err != nil {
		return nil, err
	}
	// the caller keeps its record; required decisions only extend this copy
	scope := variables.Clone()
	res, _, err := s.evaluate(ctx, key, scope, map[string]bool{})
	return res, err
}

func (s *DecisionService) evaluate(ctx context.Context, key string, scope *domain.VariableRecord, visiting map[string]bool) (*domain.DecisionResult, *domain.DecisionTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	def, err := s.repo.Latest(key)
	if err != nil {
		return nil, nil, err
	}
	table := def.Table

	if visiting[key] {
		return nil, nil, fmt.Errorf("%w: %q requires itself", domain.ErrRequirementCycle, key)
	}
	visiting[key] = true
	defer delete(visiting, key)

	for _, req := range table.Requires {
		reqRes, reqTable, err := s.evaluate(ctx, req, scope, visiting)
		if err != nil {
			return nil, nil, fmt.Errorf("required decision %q of %q: %w", req, key, err)
		}
		bindRequiredResult(scope, reqTable, reqRes)
	}

	start := s.now()
	evaluation := &domain.DecisionEvaluation{
		ID:          uuid.NewString(),
		DecisionKey: key,
		Version:     def.Version,
		HitPolicy:   table.EffectiveHitPolicy(),
		EvaluatedAt: start.UTC(),
	}

	res, err := s.evaluateTable(ctx, def, scope, evaluation)
	evaluation.Duration = s.now().Sub(start)
	evaluation.Result = res
	if err != nil {
		evaluation.Error = err.Error()
	}
	s.finish(ctx, evaluation)

	if err != nil {
		return nil, nil, err
	}
	return res, table, nil
}

func (s *DecisionService) evaluateTable(ctx context.Context, def *domain.DecisionDefinition, scope *domain.VariableRecord, evaluation *domain.DecisionEvaluation) (*domain.DecisionResult, error) {
	table := def.Table

	inputs := make([]any, len(table.Inputs))
	for i, in := range table.Inputs {
		v, ok := scope.Get(in.Expression)
		if !ok {
			return nil, fmt.Errorf("%w: decision %q input %q needs variable %q", domain.ErrMissingVariable, table.Key, in.ID, in.Expression)
		}
		inputs[i] = v
		evaluation.Inputs = append(evaluation.Inputs, domain.EvaluatedInput{
			InputID:    in.ID,
			Expression: in.Expression,
			Value:      v,
		})
	}

	vars := scope.AsMap()
	var matched []int
	for i, rule := range table.Rules {
		ok, err := s.ruleMatches(ctx, rule, inputs, vars)
		if err != nil {
			return nil, fmt.Errorf("decision %q rule %q: %w", table.Key, table.RuleID(i), err)
		}
		if ok {
			matched = append(matched, i)
		}
	}

	return applyHitPolicy(def, matched)
}

func (s *DecisionService) ruleMatches(ctx context.Context, rule domain.Rule, inputs []any, vars map[string]any) (bool, error) {
	for j, entry := range rule.When {
		ok, err := s.evaluator.Matches(ctx, entry, inputs[j], vars)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (s *DecisionService) finish(ctx context.Context, evaluation *domain.DecisionEvaluation) {
	entry := s.log.WithFields(logrus.Fields{
		"decision":  evaluation.DecisionKey,
		"version":   evaluation.Version,
		"hitPolicy": evaluation.HitPolicy,
		"duration":  evaluation.Duration,
	})
	if evaluation.Error != "" {
		entry.WithField("error", evaluation.Error).Debug("decision evaluation failed")
	} else {
		entry.WithField("results", evaluation.Result.Len()).Debug("decision evaluated")
	}

	for _, o := range s.observers {
		o.ObserveEvaluation(evaluation)
	}
	if s.history != nil {
		if err := s.history.RecordEvaluation(ctx, evaluation); err != nil {
			s.log.WithError(err).WithField("decision", evaluation.DecisionKey).Warn("record decision history")
		}
	}
}

// bindRequiredResult exposes the outputs of a required decision to the
// requiring one: a single result binds each entry, several results bind the
// list of values per output.
func bindRequiredResult(scope *domain.VariableRecord, table *domain.DecisionTable, res *domain.DecisionResult) {
	if res.Len() == 1 {
		for _, e := range res.Results[0] {
			scope.Put(e.Name, e.Value)
		}
		return
	}
	for _, out := range table.Outputs {
		scope.Put(out.Name, res.CollectEntries(out.Name))
	}
}

func applyHitPolicy(def *domain.DecisionDefinition, matched []int) (*domain.DecisionResult, error) {
	table := def.Table
	res := &domain.DecisionResult{
		DecisionKey:  table.Key,
		Version:      def.Version,
		Results:      []domain.ResultEntries{},
		MatchedRules: []string{},
	}
	if len(matched) == 0 {
		return res, nil
	}

	keep := func(idx ...int) {
		for _, i := range idx {
			res.Results = append(res.Results, ruleOutputs(table, i))
			res.MatchedRules = append(res.MatchedRules, table.RuleID(i))
		}
	}

	switch policy := table.EffectiveHitPolicy(); policy {
	case domain.HitPolicyUnique:
		if len(matched) > 1 {
			return nil, fmt.Errorf("%w: %s decision %q matched rules %q and %q", domain.ErrHitPolicyViolation, policy, table.Key, table.RuleID(matched[0]), table.RuleID(matched[1]))
		}
		keep(matched[0])

	case domain.HitPolicyFirst:
		keep(matched[0])

	case domain.HitPolicyAny:
		first := ruleOutputs(table, matched[0])
		for _, i := range matched[1:] {
			if !reflect.DeepEqual(first, ruleOutputs(table, i)) {
				return nil, fmt.Errorf("%w: %s decision %q matched rules %q and %q with different outputs", domain.ErrHitPolicyViolation, policy, table.Key, table.RuleID(matched[0]), table.RuleID(i))
			}
		}
		keep(matched[0])

	case domain.HitPolicyPriority:
		keep(sortByOutputPriority(table, matched)[0])

	case domain.HitPolicyOutputOrder:
		keep(sortByOutputPriority(table, matched)...)

	case domain.HitPolicyRuleOrder:
		keep(matched...)

	case domain.HitPolicyCollect:
		if table.Aggregation == domain.AggregationNone {
			keep(matched...)
			break
		}
		name := table.Outputs[0].Name
		values := make([]any, 0, len(matched))
		for _, i := range matched {
			values = append(values, domain.NormalizeValue(table.Rules[i].Then[0]))
		}
		agg, err := domain.Aggregate(table.Aggregation, values)
		if err != nil {
			return nil, fmt.Errorf("decision %q: %w", table.Key, err)
		}
		res.Results = append(res.Results, domain.ResultEntries{{Name: name, Value: agg}})
		for _, i := range matched {
			res.MatchedRules = append(res.MatchedRules, table.RuleID(i))
		}

	default:
		return nil, fmt.Errorf("%w: unknown hit policy %q", domain.ErrInvalidDecisionTable, table.HitPolicy)
	}
	return res, nil
}

func ruleOutputs(table *domain.DecisionTable, i int) domain.ResultEntries {
	entries := make(domain.ResultEntries, len(table.Outputs))
	for j, out := range table.Outputs {
		entries[j] = domain.Entry{Name: out.Name, Value: domain.NormalizeValue(table.Rules[i].Then[j])}
	}
	return entries
}

// sortByOutputPriority orders matched rules by the position of their output
// values in each output's value list, earlier outputs first. Ties keep rule
// order.
func sortByOutputPriority(table *domain.DecisionTable, matched []int) []int {
	rank := func(rule int) []int {
		r := make([]int, len(table.Outputs))
		for j, out := range table.Outputs {
			v := domain.NormalizeValue(table.Rules[rule].Then[j])
			r[j] = len(out.Values)
			for k, allowed := range out.Values {
				if reflect.DeepEqual(domain.NormalizeValue(allowed), v) {
					r[j] = k
					break
				}
			}
		}
		return r
	}

	sorted := make([]int, len(matched))
	copy(sorted, matched)
	sort.SliceStable(sorted, func(a, b int) bool {
		ra, rb := rank(sorted[a]), rank(sorted[b])
		for j := range ra {
			if ra[j] != rb[j] {
				return ra[j] < rb[j]
			}
		}
		return false
	})
	return sorted
}
