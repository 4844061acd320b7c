package models

import (
	"strings"

	"leadgate/pkg/validation"
	s "leadgate/pkg/string"
)

// Honeypot holds the hidden form fields a human never fills in.
type Honeypot struct {
	Website        string `json:"website,omitempty"`
	URL            string `json:"url,omitempty"`
	CompanyWebsite string `json:"company_website,omitempty"`
	Fax            string `json:"fax,omitempty"`
	MiddleNameHP   string `json:"middle_name_hp,omitempty"`
	HPField        string `json:"hp_field,omitempty"`
}

// Values maps each honeypot field name to what was submitted.
func (h Honeypot) Values() map[string]string {
	return map[string]string{
		"website":         h.Website,
		"url":             h.URL,
		"company_website": h.CompanyWebsite,
		"fax":             h.Fax,
		"middle_name_hp":  h.MiddleNameHP,
		"hp_field":        h.HPField,
	}
}

// Contact is the identity every form carries.
type Contact struct {
	Name  string `json:"name"  validate:"required,notblank,max=120"`
	Email string `json:"email" validate:"required,email,max=254"`
	Phone string `json:"phone" validate:"required,phone"`
}

func (c *Contact) normalize() {
	c.Name = strings.Join(strings.Fields(c.Name), " ")
	c.Email = s.NormalizeEmail(c.Email)
	c.Phone = s.NormalizePhone(c.Phone)
}

// LeadRequest is the body of POST /api/forms/lead.
type LeadRequest struct {
	Contact
	Honeypot
	Company      string `json:"company"       validate:"max=200"`
	Message      string `json:"message"       validate:"max=2000"`
	CaptchaToken string `json:"captcha_token" validate:"max=4096"`
}

func (r *LeadRequest) Normalize() {
	if r == nil {
		return
	}
	r.Contact.normalize()
	s.TrimStrings(&r.Company, &r.Message, &r.CaptchaToken)
}

func (r *LeadRequest) Validate() error {
	return validation.Validate(r)
}

// CallRequest is the body of POST /api/forms/call-request.
type CallRequest struct {
	Contact
	Honeypot
	Company      string `json:"company"       validate:"max=200"`
	CaptchaToken string `json:"captcha_token" validate:"max=4096"`
}

func (r *CallRequest) Normalize() {
	if r == nil {
		return
	}
	r.Contact.normalize()
	s.TrimStrings(&r.Company, &r.CaptchaToken)
}

func (r *CallRequest) Validate() error {
	return validation.Validate(r)
}

// ContactSyncRequest is the body of POST /api/crm/contact.
type ContactSyncRequest struct {
	Contact
	Code    string `json:"code"    validate:"required,notblank,max=128"`
	Company string `json:"company" validate:"max=200"`
	Message string `json:"message" validate:"max=2000"`
	Source  string `json:"source"  validate:"omitempty,oneof=lead_form call_request"`
}

func (r *ContactSyncRequest) Normalize() {
	if r == nil {
		return
	}
	r.Contact.normalize()
	s.TrimStrings(&r.Code, &r.Company, &r.Message, &r.Source)
	if r.Source == "" {
		r.Source = SourceLeadForm
	}
}

func (r *ContactSyncRequest) Validate() error {
	return validation.Validate(r)
}

// DispatchRequest is the body of POST /api/calls/dispatch.
type DispatchRequest struct {
	Contact
	Code string `json:"code" validate:"required,notblank,max=128"`
}

func (r *DispatchRequest) Normalize() {
	if r == nil {
		return
	}
	r.Contact.normalize()
	s.TrimStrings(&r.Code)
}

func (r *DispatchRequest) Validate() error {
	return validation.Validate(r)
}
