// internal/app/system/mailer/templates.go
package mailer

import (
	"fmt"
	"html"
	"strings"

	"github.com/devweekends/clanverify/internal/domain/models"
)

// VerificationData fills the {{code}}, {{clan}} and {{email}} placeholders.
type VerificationData struct {
	Code  string
	Clan  string
	Email string
}

// Render replaces every placeholder occurrence in tmpl.
func Render(tmpl string, d VerificationData) string {
	return strings.NewReplacer(
		"{{code}}", d.Code,
		"{{clan}}", d.Clan,
		"{{email}}", d.Email,
	).Replace(tmpl)
}

// renderHTML is Render with the substituted values HTML-escaped.
func renderHTML(tmpl string, d VerificationData) string {
	return Render(tmpl, VerificationData{
		Code:  html.EscapeString(d.Code),
		Clan:  html.EscapeString(d.Clan),
		Email: html.EscapeString(d.Email),
	})
}

// BuildVerificationEmail builds the OTP email from the admin-editable
// templates in cfg, falling back to the defaults for empty fields.
func BuildVerificationEmail(cfg models.BotConfig, d VerificationData) Email {
	def := models.DefaultBotConfig()
	subject := cfg.EmailSubject
	if strings.TrimSpace(subject) == "" {
		subject = def.EmailSubject
	}
	body := cfg.EmailTemplate
	if strings.TrimSpace(body) == "" {
		body = def.EmailTemplate
	}
	fromName := cfg.EmailFromName
	if fromName == "" {
		fromName = def.EmailFromName
	}

	return Email{
		To:       d.Email,
		FromName: fromName,
		Subject:  Render(subject, d),
		HTMLBody: renderHTML(body, d),
		TextBody: buildVerificationText(d),
	}
}

func buildVerificationText(d VerificationData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You requested to join %s.\n\n", d.Clan)
	fmt.Fprintf(&b, "Your verification code is: %s\n\n", d.Code)
	b.WriteString("This code expires in 10 minutes.\n\n")
	b.WriteString("If you didn't request this, please ignore this email.\n")
	return b.String()
}
