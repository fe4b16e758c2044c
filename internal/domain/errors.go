package domain

import "errors"

var (
	ErrDecisionNotFound     = errors.New("decision definition not found")
	ErrMissingVariable      = errors.New("missing variable")
	ErrResultCardinality    = errors.New("unexpected number of decision results")
	ErrHitPolicyViolation   = errors.New("hit policy violated")
	ErrRuleExecutionFailed  = errors.New("rule execution failed")
	ErrInvalidDecisionTable = errors.New("invalid decision table")
	ErrUnsupportedValue     = errors.New("unsupported variable value")
	ErrRequirementCycle     = errors.New("cyclic decision requirement")
)
