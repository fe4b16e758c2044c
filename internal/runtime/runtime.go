package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/Victor-armando18/dmn-getstarted/internal/interfaces"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyStarted = errors.New("runtime already started")
	ErrNotStarted     = errors.New("runtime not started")
)

// PostDeployEvent is published once per deployment, after every decision
// resource has been deployed.
type PostDeployEvent struct {
	Deployment      *domain.Deployment
	DecisionService interfaces.DecisionService
}

// PreUndeployEvent is published when the runtime stops.
type PreUndeployEvent struct {
	Deployment *domain.Deployment
}

// ProcessApplication is notified by the runtime it is registered with.
type ProcessApplication interface {
	Name() string
	PostDeploy(ctx context.Context, event PostDeployEvent) error
}

// PreUndeployer is implemented by applications that need to run before the
// runtime stops.
type PreUndeployer interface {
	PreUndeploy(ctx context.Context, event PreUndeployEvent) error
}

// PostDeployHandler is a plain function subscribed to PostDeployEvent.
type PostDeployHandler func(ctx context.Context, event PostDeployEvent) error

type listener struct {
	name    string
	handler PostDeployHandler
	app     ProcessApplication
}

type state int

const (
	stateCreated state = iota
	stateStarted
	stateFailed
	stateStopped
)

// Runtime deploys decision resources and drives the lifecycle callbacks of the
// process applications registered with it.
type Runtime struct {
	name      string
	loader    interfaces.DecisionLoader
	repo      interfaces.DecisionRepository
	decisions interfaces.DecisionService
	history   interfaces.HistoryRecorder
	log       logrus.FieldLogger

	mu         sync.Mutex
	listeners  []listener
	registered map[string]bool
	state      state
	deployment *domain.Deployment
}

type Option func(*Runtime)

func WithHistory(h interfaces.HistoryRecorder) Option {
	return func(r *Runtime) { r.history = h }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runtime) { r.log = l }
}

func New(name string, loader interfaces.DecisionLoader, repo interfaces.DecisionRepository, decisions interfaces.DecisionService, opts ...Option) *Runtime {
	r := &Runtime{
		name:       name,
		loader:     loader,
		repo:       repo,
		decisions:  decisions,
		log:        logrus.StandardLogger(),
		registered: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a process application. Registering the same name twice is a
// no-op, so its callbacks still fire once.
func (r *Runtime) Register(app ProcessApplication) error {
	return r.add(listener{name: app.Name(), handler: app.PostDeploy, app: app})
}

// Subscribe adds a named PostDeployEvent handler with the same once-only
// guarantee as Register.
func (r *Runtime) Subscribe(name string, handler PostDeployHandler) error {
	return r.add(listener{name: name, handler: handler})
}

func (r *Runtime) add(l listener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateCreated {
		return fmt.Errorf("register %q: %w", l.name, ErrAlreadyStarted)
	}
	if r.registered[l.name] {
		r.log.WithField("application", l.name).Debug("process application already registered")
		return nil
	}
	r.registered[l.name] = true
	r.listeners = append(r.listeners, l)
	return nil
}

// Start deploys every resource the loader finds and then publishes one
// PostDeployEvent to each listener in registration order. The first listener
// error stops the dispatch and is returned wrapped with the listener name.
func (r *Runtime) Start(ctx context.Context) (*domain.Deployment, error) {
	r.mu.Lock()
	if r.state != stateCreated {
		r.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	r.state = stateStarted
	listeners := append([]listener(nil), r.listeners...)
	r.mu.Unlock()

	dep, err := r.deploy(ctx)
	if err != nil {
		r.setState(stateFailed)
		return nil, err
	}

	event := PostDeployEvent{Deployment: dep, DecisionService: r.decisions}
	for _, l := range listeners {
		r.log.WithField("application", l.name).Debug("dispatching post-deploy event")
		if err := l.handler(ctx, event); err != nil {
			r.setState(stateFailed)
			r.log.WithError(err).WithField("application", l.name).Error("post-deploy callback failed")
			return dep, fmt.Errorf("post-deploy of %q: %w", l.name, err)
		}
	}
	return dep, nil
}

func (r *Runtime) deploy(ctx context.Context) (*domain.Deployment, error) {
	resources, err := r.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load decision resources: %w", err)
	}

	dep, err := r.repo.Deploy(r.name, resources)
	if err != nil {
		return nil, fmt.Errorf("deploy decision resources: %w", err)
	}

	if r.history != nil {
		if err := r.history.RecordDeployment(ctx, dep); err != nil {
			r.log.WithError(err).Warn("record deployment")
		}
	}

	r.mu.Lock()
	r.deployment = dep
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"deployment": dep.ID,
		"name":       dep.Name,
		"decisions":  len(dep.Definitions),
	}).Info("decision resources deployed")
	return dep, nil
}

// Stop publishes PreUndeployEvent to applications implementing PreUndeployer.
func (r *Runtime) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state == stateCreated || r.state == stateStopped {
		r.mu.Unlock()
		return ErrNotStarted
	}
	r.state = stateStopped
	listeners := append([]listener(nil), r.listeners...)
	event := PreUndeployEvent{Deployment: r.deployment}
	r.mu.Unlock()

	var errs []error
	for _, l := range listeners {
		u, ok := l.app.(PreUndeployer)
		if !ok {
			continue
		}
		if err := u.PreUndeploy(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("pre-undeploy of %q: %w", l.name, err))
		}
	}
	return errors.Join(errs...)
}

// Deployment returns the deployment made by Start, nil before it.
func (r *Runtime) Deployment() *domain.Deployment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deployment
}

func (r *Runtime) setState(s state) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}
