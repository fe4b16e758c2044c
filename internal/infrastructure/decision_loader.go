package infrastructure

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/Victor-armando18/dmn-getstarted/internal/interfaces"
	"gopkg.in/yaml.v3"
)

// decisionDocument is a resource file. It either holds a list of decisions or
// is itself a single decision table.
type decisionDocument struct {
	Decisions []domain.DecisionTable `json:"decisions" yaml:"decisions"`
}

type FileDecisionLoader struct {
	Dir string
}

func NewFileDecisionLoader(dir string) interfaces.DecisionLoader {
	return &FileDecisionLoader{Dir: dir}
}

// Load reads every .yaml, .yml and .json file under Dir.
func (l *FileDecisionLoader) Load(ctx context.Context) ([]domain.DecisionResource, error) {
	var paths []string
	err := filepath.WalkDir(l.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan decision resources in %s: %w", l.Dir, err)
	}
	sort.Strings(paths)

	var resources []domain.DecisionResource
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := LoadDecisionFile(path)
		if err != nil {
			return nil, err
		}
		rel, relErr := filepath.Rel(l.Dir, path)
		if relErr == nil {
			for i := range res {
				res[i].Name = filepath.ToSlash(rel)
			}
		}
		resources = append(resources, res...)
	}
	return resources, nil
}

// LoadDecisionFile parses one resource file and validates its tables.
func LoadDecisionFile(path string) ([]domain.DecisionResource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decision file %s: %w", path, err)
	}

	tables, err := ParseDecisions(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse decision file %s: %w", path, err)
	}

	out := make([]domain.DecisionResource, 0, len(tables))
	for i := range tables {
		t := tables[i]
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		checksum, err := TableChecksum(&t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, domain.DecisionResource{
			Name:     filepath.Base(path),
			Checksum: checksum,
			Table:    &t,
		})
	}
	return out, nil
}

// ParseDecisions decodes the tables of a resource; ext selects JSON or YAML.
func ParseDecisions(data []byte, ext string) ([]domain.DecisionTable, error) {
	var doc decisionDocument
	var single domain.DecisionTable

	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if len(doc.Decisions) > 0 {
			return doc.Decisions, nil
		}
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, err
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if len(doc.Decisions) > 0 {
			return doc.Decisions, nil
		}
		if err := yaml.Unmarshal(data, &single); err != nil {
			return nil, err
		}
	}

	if single.Key == "" {
		return nil, fmt.Errorf("%w: no decision found", domain.ErrInvalidDecisionTable)
	}
	return []domain.DecisionTable{single}, nil
}

// TableChecksum fingerprints the canonical JSON form of a table.
func TableChecksum(t *domain.DecisionTable) (string, error) {
	canonical, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
