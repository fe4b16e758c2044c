package engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Victor-armando18/dmn-getstarted/internal/infrastructure"
	"github.com/Victor-armando18/dmn-getstarted/internal/interfaces"
	"github.com/Victor-armando18/dmn-getstarted/internal/usecase"
)

// Engine is a standalone decision engine over a directory of decision
// resources, for programs that do not run the full runtime.
type Engine struct {
	repo      interfaces.DecisionRepository
	decisions interfaces.DecisionService
}

type options struct {
	log  logrus.FieldLogger
	name string
}

type Option func(*options)

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

// WithDeploymentName names the deployment made by Open.
func WithDeploymentName(name string) Option {
	return func(o *options) { o.name = name }
}

// Open loads and deploys every decision resource under dir.
func Open(ctx context.Context, dir string, opts ...Option) (*Engine, error) {
	o := options{log: logrus.StandardLogger(), name: "engine"}
	for _, opt := range opts {
		opt(&o)
	}

	resources, err := infrastructure.NewFileDecisionLoader(dir).Load(ctx)
	if err != nil {
		return nil, err
	}
	repo := infrastructure.NewMemoryDecisionRepository()
	if _, err := repo.Deploy(o.name, resources); err != nil {
		return nil, err
	}

	svc := usecase.NewDecisionService(repo, infrastructure.NewJsonLogicExecutor(), usecase.WithLogger(o.log))
	return &Engine{repo: repo, decisions: svc}, nil
}

func (e *Engine) EvaluateDecisionTableByKey(ctx context.Context, key string, variables *Variables) (*DecisionResult, error) {
	return e.decisions.EvaluateDecisionTableByKey(ctx, key, variables)
}

// Definitions lists the latest version of every deployed decision.
func (e *Engine) Definitions() []DecisionDefinition {
	return e.repo.List()
}
