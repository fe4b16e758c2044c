package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--resources", "../../resources"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"season=Spring", "guestCount=10", "guestsWithChildren=false", "poidsColis=6.0", "note=a=b", "empty="})
	require.NoError(t, err)

	assert.Equal(t, []string{"season", "guestCount", "guestsWithChildren", "poidsColis", "note", "empty"}, vars.Names())
	assert.Equal(t, map[string]any{
		"season":             "Spring",
		"guestCount":         10.0,
		"guestsWithChildren": false,
		"poidsColis":         6.0,
		"note":               "a=b",
		"empty":              "",
	}, vars.AsMap())

	_, err = parseVars([]string{"season"})
	assert.ErrorContains(t, err, "want name=value")

	_, err = parseVars([]string{"=Spring"})
	assert.Error(t, err)
}

func TestEvaluateCommand(t *testing.T) {
	out, err := execute(t, "evaluate", "--key", "beverages",
		"--var", "season=Spring", "--var", "guestCount=10", "--var", "guestsWithChildren=false")
	require.NoError(t, err)

	assert.Contains(t, out, "DECISION beverages (v1)")
	assert.Contains(t, out, "   - stew\n   - water\n")
	assert.Contains(t, out, "#1 beverages=Guiness")
	assert.Contains(t, out, "#2 beverages=Water")
}

func TestEvaluateCommand_JSON(t *testing.T) {
	out, err := execute(t, "evaluate", "--key", "carrier", "--json",
		"--var", "paysDestination=France", "--var", "poidsColis=6.0", "--var", "typeLivraison=Standard")
	require.NoError(t, err)

	var res struct {
		DecisionKey string           `json:"decisionKey"`
		Results     []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "carrier", res.DecisionKey)
	assert.Equal(t, []map[string]any{{"transporteur": "Colissimo"}}, res.Results)
}

func TestEvaluateCommand_Errors(t *testing.T) {
	_, err := execute(t, "evaluate", "--var", "season=Spring")
	assert.ErrorContains(t, err, `required flag(s) "key" not set`)

	_, err = execute(t, "evaluate", "--key", "dish", "--var", "season=Spring")
	assert.ErrorContains(t, err, "missing variable")

	_, err = execute(t, "evaluate", "--key", "dessert")
	assert.ErrorContains(t, err, "decision definition not found")
}

func TestListCommand(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)

	assert.Contains(t, out, "beverages")
	assert.Contains(t, out, "COLLECT")
	assert.Contains(t, out, "carrier")
	assert.Contains(t, out, "FIRST")
	assert.Contains(t, out, "dinnerDecisions.yaml")
}
