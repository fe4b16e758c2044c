package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/Victor-armando18/dmn-getstarted/internal/interfaces"
	"github.com/labstack/echo/v4"
)

// HistoryReader is the read side of the decision history.
type HistoryReader interface {
	Evaluations(ctx context.Context, key string, limit int) ([]domain.DecisionEvaluation, error)
	Deployments(ctx context.Context) ([]domain.Deployment, error)
}

// EvaluateRequest is the body of an evaluation call. Each variable is either
// a plain value or an object of the form {"value": ..., "type": ...}.
type EvaluateRequest struct {
	Variables *domain.VariableRecord `json:"variables"`
}

type Handlers struct {
	Decisions  interfaces.DecisionService
	Repository interfaces.DecisionRepository
	// History is optional.
	History HistoryReader
	// Metrics is optional and served on MetricsPath.
	Metrics     http.Handler
	MetricsPath string
}

// Register mounts the REST surface on e.
func Register(e *echo.Echo, h Handlers) {
	e.GET("/health", handleHealth)
	e.GET("/decision-definitions", h.handleListDefinitions)
	e.GET("/decision-definitions/key/:key", h.handleGetDefinition)
	e.POST("/decision-definitions/key/:key/evaluate", h.handleEvaluate)
	e.GET("/history/decisions", h.handleHistory)
	e.GET("/deployments", h.handleDeployments)
	if h.Metrics != nil && h.MetricsPath != "" {
		e.GET(h.MetricsPath, echo.WrapHandler(h.Metrics))
	}
}

func handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "UP"})
}

func (h Handlers) handleListDefinitions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Repository.List())
}

func (h Handlers) handleGetDefinition(c echo.Context) error {
	def, err := h.Repository.Latest(c.Param("key"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"definition": def,
		"table":      def.Table,
	})
}

func (h Handlers) handleEvaluate(c echo.Context) error {
	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid evaluation request"})
	}

	vars := unwrapTypedValues(req.Variables)
	res, err := h.Decisions.EvaluateDecisionTableByKey(c.Request().Context(), c.Param("key"), vars)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h Handlers) handleHistory(c echo.Context) error {
	if h.History == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "decision history is disabled"})
	}
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
		}
		limit = n
	}
	evals, err := h.History.Evaluations(c.Request().Context(), c.QueryParam("key"), limit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, evals)
}

func (h Handlers) handleDeployments(c echo.Context) error {
	if h.History == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "decision history is disabled"})
	}
	deps, err := h.History.Deployments(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, deps)
}

// unwrapTypedValues accepts the typed variable form {"value": v, "type": t}.
func unwrapTypedValues(vars *domain.VariableRecord) *domain.VariableRecord {
	out := domain.Variables()
	for _, name := range vars.Names() {
		v, _ := vars.Get(name)
		if typed, ok := v.(map[string]any); ok {
			if inner, ok := typed["value"]; ok {
				v = inner
			}
		}
		out.Put(name, v)
	}
	return out
}

func errorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDecisionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrMissingVariable),
		errors.Is(err, domain.ErrUnsupportedValue),
		errors.Is(err, domain.ErrHitPolicyViolation),
		errors.Is(err, domain.ErrResultCardinality):
		status = http.StatusUnprocessableEntity
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
