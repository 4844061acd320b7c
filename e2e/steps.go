package e2e

import (
	"github.com/cucumber/godog"

	"leadgate/e2e/steps/admin"
	"leadgate/e2e/steps/calls"
	"leadgate/e2e/steps/common"
	"leadgate/e2e/steps/forms"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	forms.RegisterSteps(ctx, tc)
	calls.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
}
