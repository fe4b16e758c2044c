package domain

import "time"

// DecisionDefinition is a deployed, versioned decision table.
type DecisionDefinition struct {
	Key          string         `json:"key"`
	Name         string         `json:"name"`
	Version      int            `json:"version"`
	VersionTag   string         `json:"versionTag,omitempty"`
	ResourceName string         `json:"resourceName"`
	Checksum     string         `json:"checksum"`
	DeploymentID string         `json:"deploymentId"`
	Table        *DecisionTable `json:"-"`
}

// DecisionResource is a loaded decision table along with where it came from.
type DecisionResource struct {
	Name     string
	Checksum string
	Table    *DecisionTable
}

// Deployment groups the definitions deployed by one runtime start.
type Deployment struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	DeployedAt  time.Time            `json:"deployedAt"`
	Definitions []DecisionDefinition `json:"definitions"`
}
