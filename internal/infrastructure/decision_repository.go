package infrastructure

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/google/uuid"
)

// MemoryDecisionRepository keeps every deployed version of every decision.
type MemoryDecisionRepository struct {
	mu       sync.RWMutex
	versions map[string][]domain.DecisionDefinition
	now      func() time.Time
}

func NewMemoryDecisionRepository() *MemoryDecisionRepository {
	return &MemoryDecisionRepository{
		versions: make(map[string][]domain.DecisionDefinition),
		now:      time.Now,
	}
}

// Deploy registers resources as one deployment. A key whose table checksum
// matches its latest version keeps that version; any change bumps it.
func (r *MemoryDecisionRepository) Deploy(name string, resources []domain.DecisionResource) (*domain.Deployment, error) {
	seen := make(map[string]bool, len(resources))
	for _, res := range resources {
		if res.Table == nil {
			return nil, fmt.Errorf("%w: resource %s has no table", domain.ErrInvalidDecisionTable, res.Name)
		}
		if seen[res.Table.Key] {
			return nil, fmt.Errorf("%w: decision key %q deployed twice in %s", domain.ErrInvalidDecisionTable, res.Table.Key, name)
		}
		seen[res.Table.Key] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dep := &domain.Deployment{
		ID:         uuid.NewString(),
		Name:       name,
		DeployedAt: r.now().UTC(),
	}

	for _, res := range resources {
		key := res.Table.Key
		history := r.versions[key]
		if n := len(history); n > 0 && history[n-1].Checksum == res.Checksum {
			dep.Definitions = append(dep.Definitions, history[n-1])
			continue
		}
		def := domain.DecisionDefinition{
			Key:          key,
			Name:         res.Table.Name,
			Version:      len(history) + 1,
			VersionTag:   res.Table.VersionTag,
			ResourceName: res.Name,
			Checksum:     res.Checksum,
			DeploymentID: dep.ID,
			Table:        res.Table,
		}
		r.versions[key] = append(history, def)
		dep.Definitions = append(dep.Definitions, def)
	}
	return dep, nil
}

// Latest returns the highest version deployed for key.
func (r *MemoryDecisionRepository) Latest(key string) (*domain.DecisionDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.versions[key]
	if len(history) == 0 {
		return nil, fmt.Errorf("%w: no decision definition deployed with key %q", domain.ErrDecisionNotFound, key)
	}
	def := history[len(history)-1]
	return &def, nil
}

// List returns the latest version of every decision, ordered by key.
func (r *MemoryDecisionRepository) List() []domain.DecisionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.DecisionDefinition, 0, len(r.versions))
	for _, history := range r.versions {
		out = append(out, history[len(history)-1])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
