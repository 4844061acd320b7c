package calls

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

const headerModeToken = "X-Mode-Token"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	POST(path string, body any) error
	POSTWithHeaders(path string, body any, headers map[string]string) error
	GET(path string, headers map[string]string) error
	GetResponseField(field string) (any, error)
	GetLastResponseHeader(name string) string
	Visitor() (name, email, phone string)
	GetSavedCode() string
	GetModeToken() string
	SetModeToken(tok string)
	UpstreamHealth(result string) error
	UpstreamCRMFailing(failing bool) error
	UpstreamContacts() (int, error)
	UpstreamCalls() ([]map[string]any, error)
}

// RegisterSteps registers CRM sync, call dispatch and calling mode steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &callsSteps{tc: tc}

	// Secondary endpoints
	ctx.Step(`^the visitor syncs the contact with the saved code$`, steps.syncWithSavedCode)
	ctx.Step(`^the visitor syncs the contact with code "([^"]*)"$`, steps.syncWithCode)
	ctx.Step(`^someone syncs the saved code with email "([^"]*)"$`, steps.syncWithEmail)
	ctx.Step(`^the visitor dispatches the call with the saved code$`, steps.dispatchWithSavedCode)

	// Calling mode
	ctx.Step(`^the site checks the calling mode$`, steps.checkMode)
	ctx.Step(`^the site checks the calling mode with the saved mode token$`, steps.checkModeWithToken)
	ctx.Step(`^I save the mode token$`, steps.saveModeToken)

	// Upstream stubs
	ctx.Step(`^the calling platform health reports "([^"]*)"$`, steps.healthReports)
	ctx.Step(`^the CRM is failing$`, steps.crmFailing)
	ctx.Step(`^the CRM recovers$`, steps.crmRecovers)
	ctx.Step(`^the CRM should have received (\d+) contacts?$`, steps.crmShouldHaveReceived)
	ctx.Step(`^the calling platform should have placed (\d+) calls?$`, steps.callsPlaced)
	ctx.Step(`^the last call should be placed from "([^"]*)"$`, steps.lastCallFrom)
}

type callsSteps struct {
	tc TestContext
}

func (s *callsSteps) syncBody(code, email string) map[string]any {
	name, visitorEmail, phone := s.tc.Visitor()
	if email == "" {
		email = visitorEmail
	}
	return map[string]any{
		"code":  code,
		"name":  name,
		"email": email,
		"phone": phone,
	}
}

func (s *callsSteps) syncWithSavedCode(context.Context) error {
	return s.tc.POST("/api/crm/contact", s.syncBody(s.tc.GetSavedCode(), ""))
}

func (s *callsSteps) syncWithCode(_ context.Context, code string) error {
	return s.tc.POST("/api/crm/contact", s.syncBody(code, ""))
}

func (s *callsSteps) syncWithEmail(_ context.Context, email string) error {
	return s.tc.POST("/api/crm/contact", s.syncBody(s.tc.GetSavedCode(), email))
}

func (s *callsSteps) dispatchWithSavedCode(context.Context) error {
	name, email, phone := s.tc.Visitor()
	body := map[string]any{
		"code":  s.tc.GetSavedCode(),
		"name":  name,
		"email": email,
		"phone": phone,
	}
	headers := map[string]string{}
	if tok := s.tc.GetModeToken(); tok != "" {
		headers[headerModeToken] = tok
	}
	return s.tc.POSTWithHeaders("/api/calls/dispatch", body, headers)
}

func (s *callsSteps) checkMode(context.Context) error {
	return s.tc.GET("/api/calls/mode", nil)
}

func (s *callsSteps) checkModeWithToken(context.Context) error {
	tok := s.tc.GetModeToken()
	if tok == "" {
		return fmt.Errorf("no mode token saved")
	}
	return s.tc.GET("/api/calls/mode", map[string]string{headerModeToken: tok})
}

func (s *callsSteps) saveModeToken(context.Context) error {
	tok := s.tc.GetLastResponseHeader(headerModeToken)
	if tok == "" {
		return fmt.Errorf("response carried no %s header", headerModeToken)
	}
	s.tc.SetModeToken(tok)
	return nil
}

func (s *callsSteps) healthReports(_ context.Context, result string) error {
	return s.tc.UpstreamHealth(result)
}

func (s *callsSteps) crmFailing(context.Context) error {
	return s.tc.UpstreamCRMFailing(true)
}

func (s *callsSteps) crmRecovers(context.Context) error {
	return s.tc.UpstreamCRMFailing(false)
}

func (s *callsSteps) crmShouldHaveReceived(_ context.Context, expected int) error {
	got, err := s.tc.UpstreamContacts()
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("expected CRM to receive %d contacts, got %d", expected, got)
	}
	return nil
}

func (s *callsSteps) callsPlaced(_ context.Context, expected int) error {
	calls, err := s.tc.UpstreamCalls()
	if err != nil {
		return err
	}
	if len(calls) != expected {
		return fmt.Errorf("expected %d calls, got %d", expected, len(calls))
	}
	return nil
}

func (s *callsSteps) lastCallFrom(_ context.Context, from string) error {
	calls, err := s.tc.UpstreamCalls()
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		return fmt.Errorf("no calls placed")
	}
	last := calls[len(calls)-1]
	if got := fmt.Sprint(last["from_number"]); got != from {
		return fmt.Errorf("expected call from %q, got %q", from, got)
	}
	return nil
}
