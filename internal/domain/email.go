package domain

import (
	"fmt"
	"html"
	"time"

	"github.com/dlclark/regexp2"
)

// TemplateThankYou is the template name looked up for donor thank-you emails.
const TemplateThankYou = "thank_you_email"

// EmailKind distinguishes the two notification streams so each is
// independently idempotent in the email log.
type EmailKind string

const (
	EmailKindDonorThankYou EmailKind = "donor_thank_you"
	EmailKindOwnerNotice   EmailKind = "owner_notification"
)

// EmailTemplate is an owner-customizable email. Subject and body may
// reference variables as {{donor_name}}; only the enumerated variable
// set is allowed, and every substituted value is HTML-escaped here, at
// the templating layer, regardless of what call sites do.
type EmailTemplate struct {
	ID          uint
	Name        string
	Subject     string
	HTMLContent string
	IsActive    bool
}

// EmailLog records one send attempt. A row with WasSent set is the
// durable marker that suppresses duplicate sends for a donation.
type EmailLog struct {
	ID             uint
	RecipientEmail string
	Subject        string
	DonationID     uint
	Kind           EmailKind
	WasSent        bool
	SentAt         *time.Time
	CreatedAt      time.Time
}

var placeholderRe = regexp2.MustCompile(`\{\{\s*(\w+)\s*\}\}`, 0)

// templateVariables is the full set of substitutions a template may use.
var templateVariables = map[string]struct{}{
	"donor_name":           {},
	"amount":               {},
	"campaign_title":       {},
	"campaign_description": {},
	"current_total":        {},
	"goal_amount":          {},
	"progress_percentage":  {},
	"donation_date":        {},
	"message":              {},
}

// Render substitutes vars into the template's subject and body. A
// placeholder outside the enumerated variable set fails the render so
// the caller can fall back to the built-in template.
func (t *EmailTemplate) Render(vars map[string]string) (subject, body string, err error) {
	subject, err = substitute(t.Subject, vars)
	if err != nil {
		return "", "", fmt.Errorf("render subject %q: %w", t.Name, err)
	}

	body, err = substitute(t.HTMLContent, vars)
	if err != nil {
		return "", "", fmt.Errorf("render body %q: %w", t.Name, err)
	}

	return subject, body, nil
}

func substitute(text string, vars map[string]string) (string, error) {
	var badVar string

	out, err := placeholderRe.ReplaceFunc(text, func(m regexp2.Match) string {
		name := m.GroupByNumber(1).String()
		if _, ok := templateVariables[name]; !ok {
			badVar = name
			return m.String()
		}

		return html.EscapeString(vars[name])
	}, -1, -1)
	if err != nil {
		return "", err
	}
	if badVar != "" {
		return "", fmt.Errorf("unknown template variable %q", badVar)
	}

	return out, nil
}
