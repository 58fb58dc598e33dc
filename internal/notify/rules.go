package notify

import (
	"slices"
	"strings"

	"github.com/shutterhouse/leadmail/pkg/email"
)

const (
	ContactFormRule    = "contact-form"
	ContactFormSubject = "Contact Form Submission"
	ContactFormBanner  = `<div style="margin:0 0 16px 0;padding:12px 16px;background-color:#fff4e5;border-left:4px solid #d98c2b;font-family:Arial,Helvetica,sans-serif;font-size:14px;color:#5c3b0f;">New message submitted through the website contact form.</div>`
)

// Rule rewrites envelopes whose subject contains SubjectContains.
// Non-empty Recipients replace To; Banner is prepended to the HTML body.
type Rule struct {
	Name            string
	SubjectContains string
	Recipients      []string
	Banner          string
}

func (r Rule) matches(env email.Envelope) bool {
	return r.SubjectContains != "" && strings.Contains(env.Subject, r.SubjectContains)
}

func (r Rule) apply(env email.Envelope) email.Envelope {
	if len(r.Recipients) > 0 {
		env.To = slices.Clone(r.Recipients)
	}
	if r.Banner != "" {
		env.HTML = r.Banner + env.HTML
	}
	return env
}

// DefaultRules returns the built-in routing table: messages from the contact
// form go to a single inbox with a banner on top. The inbox is
// ContactFormRecipient, or the first admin recipient when that is unset.
func DefaultRules(cfg Config) []Rule {
	to := strings.TrimSpace(cfg.ContactFormRecipient)
	if to == "" {
		if admins := cfg.adminRecipients(); len(admins) > 0 {
			to = admins[0]
		}
	}
	rule := Rule{
		Name:            ContactFormRule,
		SubjectContains: ContactFormSubject,
		Banner:          ContactFormBanner,
	}
	if to != "" {
		rule.Recipients = []string{to}
	}
	return []Rule{rule}
}

// route applies the first matching rule and returns its name, or "" when none matched.
func route(rules []Rule, env email.Envelope) (email.Envelope, string) {
	for _, r := range rules {
		if r.matches(env) {
			return r.apply(env), r.Name
		}
	}
	return env, ""
}
