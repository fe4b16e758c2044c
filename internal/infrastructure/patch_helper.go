package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ApplyVariablePatch applies a JSON merge patch (RFC 7386) over defaults and
// returns a new record. Existing names keep their position, new names are
// appended in sorted order and a null removes the variable.
func ApplyVariablePatch(defaults *domain.VariableRecord, patchData []byte) (*domain.VariableRecord, error) {
	if len(bytes.TrimSpace(patchData)) == 0 {
		return defaults.Clone(), nil
	}

	// 1. Encode the defaults
	originalJSON, err := json.Marshal(defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to encode variables: %w", err)
	}

	// 2. Apply the merge patch
	mergedJSON, err := jsonpatch.MergePatch(originalJSON, patchData)
	if err != nil {
		return nil, fmt.Errorf("failed to apply variable patch: %w", err)
	}

	// 3. Rebuild the record in the defaults' order
	var merged map[string]any
	dec := json.NewDecoder(bytes.NewReader(mergedJSON))
	dec.UseNumber()
	if err := dec.Decode(&merged); err != nil {
		return nil, fmt.Errorf("failed to decode patched variables: %w", err)
	}

	out := domain.Variables()
	for _, name := range defaults.Names() {
		if v, ok := merged[name]; ok {
			out.Put(name, v)
			delete(merged, name)
		}
	}
	added := make([]string, 0, len(merged))
	for name := range merged {
		added = append(added, name)
	}
	sort.Strings(added)
	for _, name := range added {
		out.Put(name, merged[name])
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}
