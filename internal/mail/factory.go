package mail

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/domain"
	internal_errors "github.com/gatehouse-dev/gatehouse/internal/errors"
	"github.com/gatehouse-dev/gatehouse/internal/logger"
)

// Sender is the transport under the factory: one rendered message out.
type Sender interface {
	Send(from, recipient, subject string, htmlBody []byte) error
}

// Factory renders and dispatches the emails configured for a workflow
// stage. Templates are markdown files with Go template placeholders;
// the rendered HTML is sanitized before sending. A stage with no user
// or admin template configured simply sends nothing for that side.
type Factory struct {
	sender         Sender
	templateFolder string
	md             goldmark.Markdown
	policy         *bluemonday.Policy
}

func NewFactory(sender Sender, templateFolder string) *Factory {
	return &Factory{
		sender:         sender,
		templateFolder: templateFolder,
		md:             goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:         bluemonday.UGCPolicy(),
	}
}

// TemplateData is what a mail template can reference.
type TemplateData struct {
	Account domain.Account
	Tenant  domain.TenantKey
	Locale  domain.Locale
	Data    map[string]string
}

// SendActionEmails sends the user email (to the account's own address)
// and the admin email (to the tenant's configured recipients) for one
// stage. A missing template skips that email; it is not an error.
// Transport failures come back as delivery errors so callers can
// surface them without unwinding state that already committed.
func (f *Factory) SendActionEmails(tenant *config.TenantConfig, action config.ActionConfig, account domain.Account, data map[string]string) error {
	templates := action.Email

	locale := account.Locale
	if locale == "" {
		locale = tenant.DefaultLocale
	}
	tplData := TemplateData{Account: account, Tenant: tenant.Key, Locale: locale, Data: data}

	if templates.UserTemplate != "" && account.Email != "" {
		if err := f.renderAndSend(tenant.From, string(account.Email), templates.Subject, templates.UserTemplate, tplData); err != nil {
			return err
		}
	}

	if templates.AdminTemplate != "" {
		for _, admin := range tenant.AdminEmails {
			if err := f.renderAndSend(tenant.From, admin, templates.Subject, templates.AdminTemplate, tplData); err != nil {
				return err
			}
		}
	}

	return nil
}

func (f *Factory) renderAndSend(from, recipient, subject, templateName string, data TemplateData) error {
	body, err := f.render(templateName, data)
	if err != nil {
		logger.Log.Error("failed to render mail template", "template", templateName, "error", err)
		return internal_errors.DeliveryError("Failed to render email")
	}

	if err := f.sender.Send(from, recipient, subject, body); err != nil {
		logger.Log.Error("failed to send email", "recipient", recipient, "template", templateName, "error", err)
		return internal_errors.DeliveryError("Failed to send email")
	}
	return nil
}

func (f *Factory) render(templateName string, data TemplateData) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(f.templateFolder, templateName))
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", templateName, err)
	}

	tpl, err := template.New(templateName).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", templateName, err)
	}

	var markdown bytes.Buffer
	if err := tpl.Execute(&markdown, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	var html bytes.Buffer
	if err := f.md.Convert(markdown.Bytes(), &html); err != nil {
		return nil, fmt.Errorf("failed to convert template %s to html: %w", templateName, err)
	}

	return f.policy.SanitizeBytes(html.Bytes()), nil
}
