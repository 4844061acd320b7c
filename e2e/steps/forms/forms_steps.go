package forms

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// ValidCaptchaToken mirrors the token the stub provider accepts.
const ValidCaptchaToken = "e2e-valid-captcha"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	Visitor() (name, email, phone string)
	SetUserAgent(ua string)
	SetSavedCode(code string)
}

// RegisterSteps registers primary form submission steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &formsSteps{tc: tc}

	ctx.Step(`^the visitor's browser identifies as "([^"]*)"$`, steps.browserIdentifiesAs)
	ctx.Step(`^the visitor submits the lead form$`, steps.submitLead)
	ctx.Step(`^the visitor submits the call request form$`, steps.submitCallRequest)
	ctx.Step(`^the visitor submits the lead form with captcha token "([^"]*)"$`, steps.submitLeadWithCaptcha)
	ctx.Step(`^the visitor submits the lead form with honeypot "([^"]*)" set to "([^"]*)"$`, steps.submitLeadWithHoneypot)
	ctx.Step(`^the visitor submits the lead form (\d+) times$`, steps.submitLeadTimes)
	ctx.Step(`^the visitor submits the lead form with email "([^"]*)"$`, steps.submitLeadWithEmail)
	ctx.Step(`^the response should contain a submission code$`, steps.responseShouldContainCode)
	ctx.Step(`^I save the submission code$`, steps.saveSubmissionCode)
}

type formsSteps struct {
	tc TestContext
}

func (s *formsSteps) body(extra map[string]any) map[string]any {
	name, email, phone := s.tc.Visitor()
	body := map[string]any{
		"name":          name,
		"email":         email,
		"phone":         phone,
		"message":       "Interested in a demo",
		"captcha_token": ValidCaptchaToken,
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func (s *formsSteps) browserIdentifiesAs(_ context.Context, ua string) error {
	s.tc.SetUserAgent(ua)
	return nil
}

func (s *formsSteps) submitLead(context.Context) error {
	return s.tc.POST("/api/forms/lead", s.body(nil))
}

func (s *formsSteps) submitCallRequest(context.Context) error {
	body := s.body(nil)
	delete(body, "message")
	return s.tc.POST("/api/forms/call-request", body)
}

func (s *formsSteps) submitLeadWithCaptcha(_ context.Context, token string) error {
	return s.tc.POST("/api/forms/lead", s.body(map[string]any{"captcha_token": token}))
}

func (s *formsSteps) submitLeadWithHoneypot(_ context.Context, field, value string) error {
	return s.tc.POST("/api/forms/lead", s.body(map[string]any{field: value}))
}

func (s *formsSteps) submitLeadWithEmail(_ context.Context, email string) error {
	return s.tc.POST("/api/forms/lead", s.body(map[string]any{"email": email}))
}

func (s *formsSteps) submitLeadTimes(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := s.submitLead(ctx); err != nil {
			return err
		}
		if status := s.tc.GetLastResponseStatus(); status != 200 {
			return fmt.Errorf("submission %d returned %d", i+1, status)
		}
	}
	return nil
}

func (s *formsSteps) responseShouldContainCode(context.Context) error {
	code, err := s.tc.GetResponseField("code")
	if err != nil {
		return err
	}
	if str, ok := code.(string); !ok || !strings.HasPrefix(str, "sub_") {
		return fmt.Errorf("expected a sub_ code, got %v", code)
	}
	if _, err := s.tc.GetResponseField("expires_at"); err != nil {
		return err
	}
	return nil
}

func (s *formsSteps) saveSubmissionCode(ctx context.Context) error {
	if err := s.responseShouldContainCode(ctx); err != nil {
		return err
	}
	code, _ := s.tc.GetResponseField("code")
	s.tc.SetSavedCode(code.(string))
	return nil
}
