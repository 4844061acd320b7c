package admin

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	PUTWithHeaders(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetOperatorToken() string
}

// RegisterSteps registers kill-switch operator steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^an operator (disables|enables) form submissions$`, steps.operatorToggles)
	ctx.Step(`^someone without the operator token (disables|enables) form submissions$`, steps.anonymousToggles)
	ctx.Step(`^the forms status should be (enabled|disabled)$`, steps.formsStatusShouldBe)
}

type adminSteps struct {
	tc TestContext
}

func (s *adminSteps) toggle(action, token string) error {
	headers := map[string]string{"X-Admin-Actor": "ops@leadgate.test"}
	if token != "" {
		headers["X-Admin-Token"] = token
	}
	body := map[string]any{"enabled": action == "enables"}
	return s.tc.PUTWithHeaders("/admin/forms/enabled", body, headers)
}

func (s *adminSteps) operatorToggles(_ context.Context, action string) error {
	return s.toggle(action, s.tc.GetOperatorToken())
}

func (s *adminSteps) anonymousToggles(_ context.Context, action string) error {
	return s.toggle(action, "")
}

func (s *adminSteps) formsStatusShouldBe(_ context.Context, expected string) error {
	if err := s.tc.GET("/api/forms/status", nil); err != nil {
		return err
	}
	enabled, err := s.tc.GetResponseField("enabled")
	if err != nil {
		return err
	}
	want := expected == "enabled"
	if got, ok := enabled.(bool); !ok || got != want {
		return fmt.Errorf("expected forms %s, got enabled=%v", expected, enabled)
	}
	return nil
}
