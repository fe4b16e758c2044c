package bootstrap

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/Victor-armando18/dmn-getstarted/internal/application"
	"github.com/Victor-armando18/dmn-getstarted/internal/config"
	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/Victor-armando18/dmn-getstarted/internal/infrastructure"
	"github.com/Victor-armando18/dmn-getstarted/internal/infrastructure/httpapi"
	"github.com/Victor-armando18/dmn-getstarted/internal/infrastructure/metrics"
	"github.com/Victor-armando18/dmn-getstarted/internal/infrastructure/store"
	"github.com/Victor-armando18/dmn-getstarted/internal/interfaces"
	"github.com/Victor-armando18/dmn-getstarted/internal/runtime"
	"github.com/Victor-armando18/dmn-getstarted/internal/usecase"
)

// App is a wired decision runtime with its process applications registered.
type App struct {
	Config     *config.Config
	Log        *logrus.Logger
	Runtime    *runtime.Runtime
	Decisions  interfaces.DecisionService
	Repository interfaces.DecisionRepository
	History    *store.History
	Metrics    *metrics.Collector
}

// Build wires the runtime described by cfg. Nothing is deployed until Start.
func Build(cfg *config.Config, log *logrus.Logger) (*App, error) {
	app := &App{Config: cfg, Log: log}

	repo := infrastructure.NewMemoryDecisionRepository()
	app.Repository = repo

	var svcOpts []usecase.Option
	var rtOpts []runtime.Option
	svcOpts = append(svcOpts, usecase.WithLogger(log))
	rtOpts = append(rtOpts, runtime.WithLogger(log))

	if cfg.History.Enabled {
		h, err := store.Open(cfg.History.DSN, log.GetLevel() < logrus.DebugLevel)
		if err != nil {
			return nil, err
		}
		app.History = h
		svcOpts = append(svcOpts, usecase.WithHistory(h))
		rtOpts = append(rtOpts, runtime.WithHistory(h))
	}
	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector(nil)
		svcOpts = append(svcOpts, usecase.WithObserver(app.Metrics))
	}

	app.Decisions = usecase.NewDecisionService(repo, infrastructure.NewJsonLogicExecutor(), svcOpts...)

	loader := infrastructure.NewFileDecisionLoader(cfg.Resources.Dir)
	app.Runtime = runtime.New(cfg.Resources.DeploymentName, loader, repo, app.Decisions, rtOpts...)

	if err := app.registerApplications(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) registerApplications() error {
	if a.Config.Applications.IsEnabled(config.AppCarrier) {
		vars, err := a.variables(config.AppCarrier, application.CarrierVariables())
		if err != nil {
			return err
		}
		carrier := application.NewCarrierApplication(a.Decisions, vars, a.Log.WithField("application", config.AppCarrier))
		if err := carrier.Subscribe(a.Runtime); err != nil {
			return err
		}
	}
	if a.Config.Applications.IsEnabled(config.AppDinner) {
		vars, err := a.variables(config.AppDinner, application.DinnerVariables())
		if err != nil {
			return err
		}
		dinner := application.NewDinnerApplication(vars, a.Log.WithField("application", config.AppDinner))
		if err := a.Runtime.Register(dinner); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) variables(name string, defaults *domain.VariableRecord) (*domain.VariableRecord, error) {
	patch, err := a.Config.VariablePatch(name)
	if err != nil {
		return nil, err
	}
	if patch == nil {
		return defaults, nil
	}
	vars, err := infrastructure.ApplyVariablePatch(defaults, patch)
	if err != nil {
		return nil, fmt.Errorf("variables of %s: %w", name, err)
	}
	return vars, nil
}

// Start deploys the decision resources and fires the post-deploy callbacks.
func (a *App) Start(ctx context.Context) error {
	_, err := a.Runtime.Start(ctx)
	return err
}

// Echo returns the HTTP server exposing the runtime.
func (a *App) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	}))

	h := httpapi.Handlers{
		Decisions:  a.Decisions,
		Repository: a.Repository,
	}
	if a.History != nil {
		h.History = a.History
	}
	if a.Metrics != nil {
		h.Metrics = a.Metrics.Handler()
		h.MetricsPath = a.Config.Metrics.Path
	}
	httpapi.Register(e, h)
	return e
}

// Close releases the history database.
func (a *App) Close() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}
