package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// VariableRecord is an ordered set of named input values for one evaluation.
// Values are strings, float64 numbers or booleans. Lists of those appear only
// when a required decision feeds a multi-result output into the scope.
type VariableRecord struct {
	names  []string
	values map[string]any
}

// Variables returns an empty record ready for chained Put calls.
func Variables() *VariableRecord {
	return &VariableRecord{values: make(map[string]any)}
}

// Put sets name to value. Re-putting an existing name keeps its position.
func (v *VariableRecord) Put(name string, value any) *VariableRecord {
	if v.values == nil {
		v.values = make(map[string]any)
	}
	if _, exists := v.values[name]; !exists {
		v.names = append(v.names, name)
	}
	v.values[name] = NormalizeValue(value)
	return v
}

func (v *VariableRecord) Get(name string) (any, bool) {
	if v == nil {
		return nil, false
	}
	val, ok := v.values[name]
	return val, ok
}

// Names returns the variable names in insertion order.
func (v *VariableRecord) Names() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

func (v *VariableRecord) Len() int {
	if v == nil {
		return 0
	}
	return len(v.names)
}

// Clone returns an independent copy. List values are copied too.
func (v *VariableRecord) Clone() *VariableRecord {
	c := Variables()
	if v == nil {
		return c
	}
	for _, name := range v.names {
		val := v.values[name]
		if list, ok := val.([]any); ok {
			dup := make([]any, len(list))
			copy(dup, list)
			val = dup
		}
		c.Put(name, val)
	}
	return c
}

// AsMap returns a fresh map view of the record.
func (v *VariableRecord) AsMap() map[string]any {
	out := make(map[string]any, v.Len())
	if v == nil {
		return out
	}
	for _, name := range v.names {
		out[name] = v.values[name]
	}
	return out
}

// Validate reports the first variable holding a value that is neither a
// string, a number, a boolean nor a list of those.
func (v *VariableRecord) Validate() error {
	if v == nil {
		return nil
	}
	for _, name := range v.names {
		if !supportedValue(v.values[name], true) {
			return fmt.Errorf("%w: variable %q has type %T", ErrUnsupportedValue, name, v.values[name])
		}
	}
	return nil
}

func (v *VariableRecord) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range v.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", name, v.values[name])
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalJSON writes the record as a JSON object in insertion order.
func (v *VariableRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range v.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(v.values[name])
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
func (v *VariableRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("variables must be a JSON object")
	}

	*v = VariableRecord{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected variable name token %v", tok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		v.Put(name, val)
	}
	_, err = dec.Token()
	return err
}

// NormalizeValue converts integer and float32 kinds to float64 and list kinds
// to []any so that values compare the same way after a JSON round trip.
func NormalizeValue(val any) any {
	switch t := val.(type) {
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = NormalizeValue(item)
		}
		return out
	}
	return val
}

func supportedValue(val any, allowList bool) bool {
	switch t := val.(type) {
	case string, float64, bool:
		return true
	case []any:
		if !allowList {
			return false
		}
		for _, item := range t {
			if !supportedValue(item, false) {
				return false
			}
		}
		return true
	}
	return false
}
