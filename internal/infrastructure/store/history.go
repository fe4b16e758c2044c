package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DeploymentRecord is one runtime deployment.
type DeploymentRecord struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	DeployedAt  time.Time
	Definitions []DefinitionRecord `gorm:"foreignKey:DeploymentID;constraint:OnDelete:CASCADE"`
}

// DefinitionRecord is a decision definition as it was deployed.
type DefinitionRecord struct {
	ID           uint   `gorm:"primaryKey"`
	DeploymentID string `gorm:"index"`
	DecisionKey  string `gorm:"index"`
	Name         string
	Version      int
	VersionTag   string
	ResourceName string
	Checksum     string
}

// EvaluationRecord is the history entry of one decision evaluation.
type EvaluationRecord struct {
	ID             string `gorm:"primaryKey"`
	DecisionKey    string `gorm:"index"`
	Version        int
	HitPolicy      string
	Inputs         string
	Results        string
	MatchedRules   string
	Error          string
	EvaluatedAt    time.Time `gorm:"index"`
	DurationMicros int64
}

// History persists deployments and decision evaluations in SQLite.
type History struct {
	gorm *gorm.DB
}

// Open initializes the SQLite-backed history at dsn.
func Open(dsn string, silent bool) (*History, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.AutoMigrate(&DeploymentRecord{}, &DefinitionRecord{}, &EvaluationRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &History{gorm: db}, nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	if h == nil {
		return nil
	}
	sqlDB, err := h.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (h *History) RecordDeployment(ctx context.Context, d *domain.Deployment) error {
	rec := DeploymentRecord{ID: d.ID, Name: d.Name, DeployedAt: d.DeployedAt}
	for _, def := range d.Definitions {
		rec.Definitions = append(rec.Definitions, DefinitionRecord{
			DecisionKey:  def.Key,
			Name:         def.Name,
			Version:      def.Version,
			VersionTag:   def.VersionTag,
			ResourceName: def.ResourceName,
			Checksum:     def.Checksum,
		})
	}
	if err := h.gorm.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert deployment %s: %w", d.ID, err)
	}
	return nil
}

func (h *History) RecordEvaluation(ctx context.Context, e *domain.DecisionEvaluation) error {
	inputs, err := json.Marshal(e.Inputs)
	if err != nil {
		return fmt.Errorf("encode inputs: %w", err)
	}
	rec := EvaluationRecord{
		ID:             e.ID,
		DecisionKey:    e.DecisionKey,
		Version:        e.Version,
		HitPolicy:      string(e.HitPolicy),
		Inputs:         string(inputs),
		Results:        "[]",
		MatchedRules:   "[]",
		Error:          e.Error,
		EvaluatedAt:    e.EvaluatedAt,
		DurationMicros: e.Duration.Microseconds(),
	}
	if e.Result != nil {
		results, err := json.Marshal(e.Result.Results)
		if err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
		rules, err := json.Marshal(e.Result.MatchedRules)
		if err != nil {
			return fmt.Errorf("encode matched rules: %w", err)
		}
		rec.Results = string(results)
		rec.MatchedRules = string(rules)
	}
	if err := h.gorm.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert evaluation %s: %w", e.ID, err)
	}
	return nil
}

// Evaluations returns the latest evaluations, newest first. An empty key
// matches every decision; limit <= 0 means no limit.
func (h *History) Evaluations(ctx context.Context, key string, limit int) ([]domain.DecisionEvaluation, error) {
	q := h.gorm.WithContext(ctx).Order("evaluated_at desc")
	if key != "" {
		q = q.Where("decision_key = ?", key)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []EvaluationRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}

	out := make([]domain.DecisionEvaluation, 0, len(recs))
	for _, rec := range recs {
		e := domain.DecisionEvaluation{
			ID:          rec.ID,
			DecisionKey: rec.DecisionKey,
			Version:     rec.Version,
			HitPolicy:   domain.HitPolicy(rec.HitPolicy),
			Error:       rec.Error,
			EvaluatedAt: rec.EvaluatedAt,
			Duration:    time.Duration(rec.DurationMicros) * time.Microsecond,
		}
		if err := json.Unmarshal([]byte(rec.Inputs), &e.Inputs); err != nil {
			return nil, fmt.Errorf("decode inputs of %s: %w", rec.ID, err)
		}
		if rec.Error == "" {
			res := &domain.DecisionResult{DecisionKey: rec.DecisionKey, Version: rec.Version}
			if err := json.Unmarshal([]byte(rec.Results), &res.Results); err != nil {
				return nil, fmt.Errorf("decode results of %s: %w", rec.ID, err)
			}
			if err := json.Unmarshal([]byte(rec.MatchedRules), &res.MatchedRules); err != nil {
				return nil, fmt.Errorf("decode matched rules of %s: %w", rec.ID, err)
			}
			e.Result = res
		}
		out = append(out, e)
	}
	return out, nil
}

// Deployments returns every deployment with its definitions, newest first.
func (h *History) Deployments(ctx context.Context) ([]domain.Deployment, error) {
	var recs []DeploymentRecord
	if err := h.gorm.WithContext(ctx).Preload("Definitions").Order("deployed_at desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query deployments: %w", err)
	}

	out := make([]domain.Deployment, 0, len(recs))
	for _, rec := range recs {
		d := domain.Deployment{ID: rec.ID, Name: rec.Name, DeployedAt: rec.DeployedAt}
		for _, def := range rec.Definitions {
			d.Definitions = append(d.Definitions, domain.DecisionDefinition{
				Key:          def.DecisionKey,
				Name:         def.Name,
				Version:      def.Version,
				VersionTag:   def.VersionTag,
				ResourceName: def.ResourceName,
				Checksum:     def.Checksum,
				DeploymentID: rec.ID,
			})
		}
		out = append(out, d)
	}
	return out, nil
}
