package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/Victor-armando18/dmn-getstarted/internal/interfaces"
	"github.com/diegoholiveira/jsonlogic/v3"
)

// CellInputVar is the variable an input entry uses to refer to the value of
// its input clause.
const CellInputVar = "cellInput"

type CustomOperator func(args ...any) any

var (
	registerBuiltins sync.Once
	operatorsMu      sync.Mutex
)

type JsonLogicExecutor struct{}

func NewJsonLogicExecutor() *JsonLogicExecutor {
	registerBuiltins.Do(func() {
		RegisterCustomOperator("between", CustomBetween)
	})
	return &JsonLogicExecutor{}
}

// RegisterCustomOperator adds an operator to the jsonlogic registry. The
// registry is process-wide, so operators are registered during setup, before
// any rule is evaluated. Arguments reach logic already evaluated, so custom
// operators nest inside standard ones.
func RegisterCustomOperator(name string, logic CustomOperator) {
	operatorsMu.Lock()
	defer operatorsMu.Unlock()
	jsonlogic.AddOperator(name, func(values, data any) any {
		args, ok := values.([]any)
		if !ok {
			args = []any{values}
		}
		for i := range args {
			args[i] = domain.NormalizeValue(args[i])
		}
		return logic(args...)
	})
}

// Matches reports whether entry holds for cellInput.
func (j *JsonLogicExecutor) Matches(ctx context.Context, entry any, cellInput any, scope map[string]any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	rule, matchAll := compileEntry(entry)
	if matchAll {
		return true, nil
	}

	data := make(map[string]any, len(scope)+1)
	for k, v := range scope {
		data[k] = v
	}
	data[CellInputVar] = cellInput

	out, err := j.Execute(ctx, rule, data)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("%w: input entry must return boolean, got %T", interfaces.ErrRuleExecutionFailed, out)
	}
	return b, nil
}

// Execute applies one jsonlogic rule to data.
func (j *JsonLogicExecutor) Execute(ctx context.Context, ruleData map[string]any, data map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ruleJSON, err := json.Marshal(ruleData)
	if err != nil {
		return nil, fmt.Errorf("%w: encode rule: %v", interfaces.ErrRuleExecutionFailed, err)
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: encode data: %v", interfaces.ErrRuleExecutionFailed, err)
	}

	var resultBuffer bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(ruleJSON), bytes.NewReader(dataJSON), &resultBuffer); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrRuleExecutionFailed, err)
	}

	if resultBuffer.Len() == 0 || bytes.Equal(bytes.TrimSpace(resultBuffer.Bytes()), []byte("null")) {
		return nil, nil
	}

	var res any
	dec := json.NewDecoder(&resultBuffer)
	dec.UseNumber()
	if err := dec.Decode(&res); err != nil {
		return nil, fmt.Errorf("%w: decode result: %v", interfaces.ErrRuleExecutionFailed, err)
	}
	return domain.NormalizeValue(res), nil
}

// compileEntry turns the shorthand forms of an input entry into a jsonlogic
// rule. The boolean result reports an entry that matches anything.
func compileEntry(entry any) (map[string]any, bool) {
	cell := map[string]any{"var": CellInputVar}
	switch e := entry.(type) {
	case nil:
		return nil, true
	case string:
		if e == domain.AnyEntry || e == "" {
			return nil, true
		}
		return map[string]any{"==": []any{cell, e}}, false
	case map[string]any:
		return e, false
	case []any:
		return map[string]any{"in": []any{cell, domain.NormalizeValue(e)}}, false
	case []string:
		return map[string]any{"in": []any{cell, domain.NormalizeValue(e)}}, false
	default:
		return map[string]any{"==": []any{cell, domain.NormalizeValue(e)}}, false
	}
}

// CustomBetween is the inclusive range test: between(value, low, high).
func CustomBetween(args ...any) any {
	if len(args) < 3 {
		return false
	}
	v, ok := domain.ToFloat64(args[0])
	if !ok {
		return false
	}
	lo, okLo := domain.ToFloat64(args[1])
	hi, okHi := domain.ToFloat64(args[2])
	if !okLo || !okHi {
		return false
	}
	return v >= lo && v <= hi
}
