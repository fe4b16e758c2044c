package application

import (
	"context"

	"github.com/Victor-armando18/dmn-getstarted/internal/domain"
	"github.com/Victor-armando18/dmn-getstarted/internal/interfaces"
	"github.com/Victor-armando18/dmn-getstarted/internal/runtime"
	"github.com/sirupsen/logrus"
)

const (
	CarrierName        = "carrier"
	CarrierDecisionKey = "carrier"
)

// CarrierVariables is the parcel the carrier application asks about.
func CarrierVariables() *domain.VariableRecord {
	return domain.Variables().
		Put("paysDestination", "France").
		Put("poidsColis", 6.0).
		Put("typeLivraison", "Standard")
}

// CarrierApplication selects a carrier once the decisions are deployed. It
// holds its decision service from construction and subscribes to the
// runtime's PostDeployEvent.
type CarrierApplication struct {
	decisions interfaces.DecisionService
	variables *domain.VariableRecord
	log       logrus.FieldLogger
}

func NewCarrierApplication(decisions interfaces.DecisionService, variables *domain.VariableRecord, log logrus.FieldLogger) *CarrierApplication {
	if variables == nil {
		variables = CarrierVariables()
	}
	return &CarrierApplication{decisions: decisions, variables: variables, log: log}
}

// Subscribe hooks the application into rt.
func (a *CarrierApplication) Subscribe(rt *runtime.Runtime) error {
	return rt.Subscribe(CarrierName, a.OnPostDeploy)
}

func (a *CarrierApplication) OnPostDeploy(ctx context.Context, _ runtime.PostDeployEvent) error {
	result, err := a.decisions.EvaluateDecisionTableByKey(ctx, CarrierDecisionKey, a.variables)
	if err != nil {
		return err
	}
	carrier, err := result.SingleEntry()
	if err != nil {
		return err
	}

	a.log.Infof("Selected carrier: %v", carrier)
	return nil
}
