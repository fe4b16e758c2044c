package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/Victor-armando18/dmn-getstarted/internal/runtime"
)

type call struct {
	key       string
	variables *domain.VariableRecord
}

// fakeDecisions answers with canned results per decision key.
type fakeDecisions struct {
	calls   []call
	results map[string]*domain.DecisionResult
	errs    map[string]error
}

func (f *fakeDecisions) EvaluateDecisionTableByKey(ctx context.Context, key string, variables *domain.VariableRecord) (*domain.DecisionResult, error) {
	f.calls = append(f.calls, call{key: key, variables: variables})
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	if res, ok := f.results[key]; ok {
		return res, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrDecisionNotFound, key)
}

func single(key, output string, value any) *domain.DecisionResult {
	return &domain.DecisionResult{
		DecisionKey: key,
		Results:     []domain.ResultEntries{{{Name: output, Value: value}}},
	}
}

func messages(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

func TestCarrierApplication_LogsSelectedCarrier(t *testing.T) {
	log, hook := test.NewNullLogger()
	decisions := &fakeDecisions{results: map[string]*domain.DecisionResult{
		"carrier": single("carrier", "carrier", "Colissimo"),
	}}
	app := NewCarrierApplication(decisions, nil, log)

	require.NoError(t, app.OnPostDeploy(context.Background(), runtime.PostDeployEvent{}))

	require.Len(t, decisions.calls, 1)
	assert.Equal(t, "carrier", decisions.calls[0].key)
	assert.Equal(t, map[string]any{
		"paysDestination": "France",
		"poidsColis":      6.0,
		"typeLivraison":   "Standard",
	}, decisions.calls[0].variables.AsMap())
	assert.Equal(t, []string{"paysDestination", "poidsColis", "typeLivraison"}, decisions.calls[0].variables.Names())
	assert.Equal(t, []string{"Selected carrier: Colissimo"}, messages(hook))
}

func TestCarrierApplication_PropagatesErrors(t *testing.T) {
	t.Run("evaluation error", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		boom := errors.New("engine unavailable")
		app := NewCarrierApplication(&fakeDecisions{errs: map[string]error{"carrier": boom}}, nil, log)

		err := app.OnPostDeploy(context.Background(), runtime.PostDeployEvent{})
		assert.Same(t, boom, err)
		assert.Empty(t, messages(hook))
	})

	t.Run("no single entry", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		decisions := &fakeDecisions{results: map[string]*domain.DecisionResult{
			"carrier": {DecisionKey: "carrier", Results: []domain.ResultEntries{}},
		}}
		app := NewCarrierApplication(decisions, nil, log)

		err := app.OnPostDeploy(context.Background(), runtime.PostDeployEvent{})
		assert.ErrorIs(t, err, domain.ErrResultCardinality)
		assert.Empty(t, messages(hook))
	})
}

func TestCarrierApplication_CustomVariables(t *testing.T) {
	log, _ := test.NewNullLogger()
	decisions := &fakeDecisions{results: map[string]*domain.DecisionResult{
		"carrier": single("carrier", "carrier", "DHL Express"),
	}}
	vars := domain.Variables().Put("paysDestination", "Germany").Put("poidsColis", 1.0).Put("typeLivraison", "Standard")
	app := NewCarrierApplication(decisions, vars, log)

	require.NoError(t, app.OnPostDeploy(context.Background(), runtime.PostDeployEvent{}))
	assert.Same(t, vars, decisions.calls[0].variables)
}

func TestDinnerApplication_LogsDishAndBeverages(t *testing.T) {
	log, hook := test.NewNullLogger()
	decisions := &fakeDecisions{results: map[string]*domain.DecisionResult{
		"dish": single("dish", "desiredDish", "Stew"),
		"beverages": {
			DecisionKey: "beverages",
			Results: []domain.ResultEntries{
				{{Name: "beverages", Value: "Guiness"}},
				{{Name: "beverages", Value: "Water"}},
			},
		},
	}}
	app := NewDinnerApplication(nil, log)

	err := app.PostDeploy(context.Background(), runtime.PostDeployEvent{DecisionService: decisions})
	require.NoError(t, err)

	require.Len(t, decisions.calls, 2)
	assert.Equal(t, "dish", decisions.calls[0].key)
	assert.Equal(t, "beverages", decisions.calls[1].key)
	for _, c := range decisions.calls {
		assert.Equal(t, map[string]any{
			"season":             "Spring",
			"guestCount":         10.0,
			"guestsWithChildren": false,
		}, c.variables.AsMap())
	}
	assert.Equal(t, []string{"Desired dish: Stew", "Desired beverages: [Guiness, Water]"}, messages(hook))
	assert.Equal(t, DinnerName, app.Name())
}

func TestDinnerApplication_EmptyBeverages(t *testing.T) {
	log, hook := test.NewNullLogger()
	decisions := &fakeDecisions{results: map[string]*domain.DecisionResult{
		"dish":      single("dish", "desiredDish", "Stew"),
		"beverages": {DecisionKey: "beverages", Results: []domain.ResultEntries{}},
	}}

	err := NewDinnerApplication(nil, log).PostDeploy(context.Background(), runtime.PostDeployEvent{DecisionService: decisions})
	require.NoError(t, err)
	assert.Equal(t, []string{"Desired dish: Stew", "Desired beverages: []"}, messages(hook))
}

func TestDinnerApplication_PropagatesErrors(t *testing.T) {
	boom := errors.New("beverages table broken")

	t.Run("dish fails", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		decisions := &fakeDecisions{errs: map[string]error{"dish": boom}}

		err := NewDinnerApplication(nil, log).PostDeploy(context.Background(), runtime.PostDeployEvent{DecisionService: decisions})
		assert.Same(t, boom, err)
		assert.Len(t, decisions.calls, 1)
		assert.Empty(t, messages(hook))
	})

	t.Run("beverages fails after dish was logged", func(t *testing.T) {
		log, hook := test.NewNullLogger()
		decisions := &fakeDecisions{
			results: map[string]*domain.DecisionResult{"dish": single("dish", "desiredDish", "Stew")},
			errs:    map[string]error{"beverages": boom},
		}

		err := NewDinnerApplication(nil, log).PostDeploy(context.Background(), runtime.PostDeployEvent{DecisionService: decisions})
		assert.Same(t, boom, err)
		assert.Equal(t, []string{"Desired dish: Stew"}, messages(hook))
	})

	t.Run("dish has several results", func(t *testing.T) {
		log, _ := test.NewNullLogger()
		decisions := &fakeDecisions{results: map[string]*domain.DecisionResult{
			"dish": {DecisionKey: "dish", Results: []domain.ResultEntries{
				{{Name: "desiredDish", Value: "Stew"}},
				{{Name: "desiredDish", Value: "Roastbeef"}},
			}},
		}}

		err := NewDinnerApplication(nil, log).PostDeploy(context.Background(), runtime.PostDeployEvent{DecisionService: decisions})
		assert.ErrorIs(t, err, domain.ErrResultCardinality)
		assert.Len(t, decisions.calls, 1)
	})
}

func TestApplications_FireOncePerDeployment(t *testing.T) {
	log, hook := test.NewNullLogger()
	decisions := &fakeDecisions{results: map[string]*domain.DecisionResult{
		"carrier": single("carrier", "carrier", "Colissimo"),
		"dish":    single("dish", "desiredDish", "Stew"),
		"beverages": {DecisionKey: "beverages", Results: []domain.ResultEntries{
			{{Name: "beverages", Value: "Guiness"}},
		}},
	}}
	rt := runtime.New("test", emptyLoader{}, noopRepository{}, decisions, runtime.WithLogger(log))

	carrier := NewCarrierApplication(decisions, nil, log)
	require.NoError(t, carrier.Subscribe(rt))
	require.NoError(t, carrier.Subscribe(rt))
	dinner := NewDinnerApplication(nil, log)
	require.NoError(t, rt.Register(dinner))
	require.NoError(t, rt.Register(dinner))

	_, err := rt.Start(context.Background())
	require.NoError(t, err)

	keys := make([]string, 0, len(decisions.calls))
	for _, c := range decisions.calls {
		keys = append(keys, c.key)
	}
	assert.Equal(t, []string{"carrier", "dish", "beverages"}, keys)
	assert.Equal(t, []string{
		"Selected carrier: Colissimo",
		"Desired dish: Stew",
		"Desired beverages: [Guiness]",
	}, filterApp(messages(hook)))
}

type emptyLoader struct{}

func (emptyLoader) Load(ctx context.Context) ([]domain.DecisionResource, error) { return nil, nil }

type noopRepository struct{}

func (noopRepository) Deploy(name string, resources []domain.DecisionResource) (*domain.Deployment, error) {
	return &domain.Deployment{ID: "dep-1", Name: name}, nil
}

func (noopRepository) Latest(key string) (*domain.DecisionDefinition, error) {
	return nil, domain.ErrDecisionNotFound
}

func (noopRepository) List() []domain.DecisionDefinition { return nil }

// filterApp drops the runtime's own info lines.
func filterApp(msgs []string) []string {
	var out []string
	for _, m := range msgs {
		if m != "decision resources deployed" {
			out = append(out, m)
		}
	}
	return out
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "[]", formatList(nil))
	assert.Equal(t, "[Guiness]", formatList([]any{"Guiness"}))
	assert.Equal(t, "[Guiness, Water, 2.5]", formatList([]any{"Guiness", "Water", 2.5}))
}
