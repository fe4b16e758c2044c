package interfaces

import (
	"context"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
)

// Re-exported so callers outside the domain can match failures with errors.Is.
var (
	ErrDecisionNotFound    = domain.ErrDecisionNotFound
	ErrMissingVariable     = domain.ErrMissingVariable
	ErrResultCardinality   = domain.ErrResultCardinality
	ErrRuleExecutionFailed = domain.ErrRuleExecutionFailed
)

// DecisionLoader reads decision table resources (from disk, network, etc.).
type DecisionLoader interface {
	Load(ctx context.Context) ([]domain.DecisionResource, error)
}

// ConditionEvaluator evaluates one rule input entry against an input value and
// the variables in scope.
type ConditionEvaluator interface {
	Matches(ctx context.Context, entry any, cellInput any, scope map[string]any) (bool, error)
}

// DecisionService evaluates deployed decision tables. It is the handle the
// runtime passes to process applications after deployment.
type DecisionService interface {
	EvaluateDecisionTableByKey(ctx context.Context, key string, variables *domain.VariableRecord) (*domain.DecisionResult, error)
}

// DecisionRepository holds the deployed definitions.
type DecisionRepository interface {
	Deploy(name string, resources []domain.DecisionResource) (*domain.Deployment, error)
	Latest(key string) (*domain.DecisionDefinition, error)
	List() []domain.DecisionDefinition
}

// HistoryRecorder persists deployments and evaluation audit trails.
type HistoryRecorder interface {
	RecordDeployment(ctx context.Context, d *domain.Deployment) error
	RecordEvaluation(ctx context.Context, e *domain.DecisionEvaluation) error
}

// EvaluationObserver is notified after every evaluation, e.g. for metrics.
type EvaluationObserver interface {
	ObserveEvaluation(e *domain.DecisionEvaluation)
}
