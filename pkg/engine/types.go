package engine

import "github.com/Victor-armando18/dmn-getstarted/internal/domain"

// Aliases so embedding programs can build inputs and read results without
// reaching into internal packages.
type (
	Variables          = domain.VariableRecord
	DecisionResult     = domain.DecisionResult
	ResultEntries      = domain.ResultEntries
	Entry              = domain.Entry
	DecisionTable      = domain.DecisionTable
	DecisionDefinition = domain.DecisionDefinition
	HitPolicy          = domain.HitPolicy
)

// NewVariables returns an empty variable record.
func NewVariables() *Variables {
	return domain.Variables()
}

var (
	ErrDecisionNotFound   = domain.ErrDecisionNotFound
	ErrMissingVariable    = domain.ErrMissingVariable
	ErrResultCardinality  = domain.ErrResultCardinality
	ErrHitPolicyViolation = domain.ErrHitPolicyViolation
)
