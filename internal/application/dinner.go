package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/Victor-armando18/dmn-getstarted/internal/runtime"
	"github.com/sirupsen/logrus"
)

const (
	DinnerName           = "Dinner App DMN"
	DishDecisionKey      = "dish"
	BeveragesDecisionKey = "beverages"
	BeveragesOutput      = "beverages"
)

// DinnerVariables describes the dinner party both dinner decisions look at.
func DinnerVariables() *domain.VariableRecord {
	return domain.Variables().
		Put("season", "Spring").
		Put("guestCount", 10).
		Put("guestsWithChildren", false)
}

// DinnerApplication picks a dish and the beverages to serve with it. It gets
// the decision service from the PostDeployEvent.
type DinnerApplication struct {
	variables *domain.VariableRecord
	log       logrus.FieldLogger
}

func NewDinnerApplication(variables *domain.VariableRecord, log logrus.FieldLogger) *DinnerApplication {
	if variables == nil {
		variables = DinnerVariables()
	}
	return &DinnerApplication{variables: variables, log: log}
}

func (a *DinnerApplication) Name() string { return DinnerName }

func (a *DinnerApplication) PostDeploy(ctx context.Context, event runtime.PostDeployEvent) error {
	decisions := event.DecisionService

	dishResult, err := decisions.EvaluateDecisionTableByKey(ctx, DishDecisionKey, a.variables)
	if err != nil {
		return err
	}
	dish, err := dishResult.SingleEntry()
	if err != nil {
		return err
	}
	a.log.Infof("Desired dish: %v", dish)

	beveragesResult, err := decisions.EvaluateDecisionTableByKey(ctx, BeveragesDecisionKey, a.variables)
	if err != nil {
		return err
	}
	beverages := beveragesResult.CollectEntries(BeveragesOutput)
	a.log.Infof("Desired beverages: %s", formatList(beverages))
	return nil
}

// formatList renders values as [a, b, c].
func formatList(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
