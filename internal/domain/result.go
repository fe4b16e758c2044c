package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one named output value of a decision result.
type Entry struct {
	Name  string
	Value any
}

// ResultEntries holds the outputs of one matched rule in output order.
type ResultEntries []Entry

func (r ResultEntries) Get(name string) (any, bool) {
	for _, e := range r {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// SingleEntry returns the only value, failing when there is not exactly one.
func (r ResultEntries) SingleEntry() (any, error) {
	if len(r) != 1 {
		return nil, fmt.Errorf("%w: expected a single entry but found %d", ErrResultCardinality, len(r))
	}
	return r[0].Value, nil
}

func (r ResultEntries) AsMap() map[string]any {
	out := make(map[string]any, len(r))
	for _, e := range r {
		out[e.Name] = e.Value
	}
	return out
}

func (r ResultEntries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object keeping the key order of the document.
func (r *ResultEntries) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("result entries must be a JSON object")
	}

	entries := ResultEntries{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected entry name token %v", tok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("entry %q: %w", name, err)
		}
		entries = append(entries, Entry{Name: name, Value: NormalizeValue(val)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = entries
	return nil
}

// DecisionResult is the ordered outcome of evaluating one decision table.
type DecisionResult struct {
	DecisionKey string          `json:"decisionKey"`
	Version     int             `json:"version"`
	Results     []ResultEntries `json:"results"`
	// MatchedRules lists the ids of the rules behind Results.
	MatchedRules []string `json:"matchedRules"`
}

func (d *DecisionResult) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Results)
}

// FirstResult returns the first result or nil when nothing matched.
func (d *DecisionResult) FirstResult() ResultEntries {
	if d.Len() == 0 {
		return nil
	}
	return d.Results[0]
}

// SingleResult fails unless exactly one result was produced.
func (d *DecisionResult) SingleResult() (ResultEntries, error) {
	if d.Len() != 1 {
		return nil, fmt.Errorf("%w: expected a single result but found %d", ErrResultCardinality, d.Len())
	}
	return d.Results[0], nil
}

// SingleEntry fails unless there is exactly one result holding exactly one
// entry.
func (d *DecisionResult) SingleEntry() (any, error) {
	res, err := d.SingleResult()
	if err != nil {
		return nil, err
	}
	return res.SingleEntry()
}

// CollectEntries returns the value of outputName from every result that has
// one, in result order.
func (d *DecisionResult) CollectEntries(outputName string) []any {
	out := make([]any, 0, d.Len())
	if d == nil {
		return out
	}
	for _, res := range d.Results {
		if v, ok := res.Get(outputName); ok {
			out = append(out, v)
		}
	}
	return out
}

// ResultList returns every result as a plain map.
func (d *DecisionResult) ResultList() []map[string]any {
	out := make([]map[string]any, 0, d.Len())
	if d == nil {
		return out
	}
	for _, res := range d.Results {
		out = append(out, res.AsMap())
	}
	return out
}

// EvaluatedInput records the value an input clause resolved to.
type EvaluatedInput struct {
	InputID    string `json:"inputId"`
	Expression string `json:"expression"`
	Value      any    `json:"value"`
}

// DecisionEvaluation is the audit trail of one decision table evaluation.
type DecisionEvaluation struct {
	ID          string           `json:"id"`
	DecisionKey string           `json:"decisionKey"`
	Version     int              `json:"version"`
	HitPolicy   HitPolicy        `json:"hitPolicy"`
	Inputs      []EvaluatedInput `json:"inputs"`
	Result      *DecisionResult  `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
	EvaluatedAt time.Time        `json:"evaluatedAt"`
	Duration    time.Duration    `json:"duration"`
}
