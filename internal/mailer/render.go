package mailer

import (
	"fmt"
	"html/template"
	"strings"

	"jobflow/aggregator-service/internal/model"
)

// HTMLRenderer renders the JobFlow digest emails.
type HTMLRenderer struct {
	appURL string
}

// NewHTMLRenderer returns a renderer; appURL is the base for unsubscribe and
// dashboard links.
func NewHTMLRenderer(appURL string) *HTMLRenderer {
	return &HTMLRenderer{appURL: strings.TrimRight(appURL, "/")}
}

type digestData struct {
	Count          int
	Plural         string
	Postings       []model.Posting
	AppURL         string
	UnsubscribeURL string
}

type emptyData struct {
	AppURL         string
	UnsubscribeURL string
}

// Digest renders the populated digest email.
func (r *HTMLRenderer) Digest(profile model.Profile, postings []model.Posting) (Message, error) {
	plural := "s"
	if len(postings) == 1 {
		plural = ""
	}

	var b strings.Builder
	err := digestTmpl.Execute(&b, digestData{
		Count:          len(postings),
		Plural:         plural,
		Postings:       postings,
		AppURL:         r.appURL,
		UnsubscribeURL: r.unsubscribeURL(profile),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render digest: %w", err)
	}

	return Message{
		To:      profile.Email,
		Subject: fmt.Sprintf("🎯 %d new job%s for you - JobFlow", len(postings), plural),
		HTML:    b.String(),
	}, nil
}

// Empty renders the "nothing new" email sent when a digest comes up empty,
// so subscribers still hear from the system on quiet days.
func (r *HTMLRenderer) Empty(profile model.Profile) (Message, error) {
	var b strings.Builder
	err := emptyTmpl.Execute(&b, emptyData{
		AppURL:         r.appURL,
		UnsubscribeURL: r.unsubscribeURL(profile),
	})
	if err != nil {
		return Message{}, fmt.Errorf("render empty digest: %w", err)
	}

	return Message{
		To:      profile.Email,
		Subject: "📭 No new jobs today - JobFlow",
		HTML:    b.String(),
	}, nil
}

func (r *HTMLRenderer) unsubscribeURL(profile model.Profile) string {
	return fmt.Sprintf("%s/unsubscribe/%s", r.appURL, profile.UnsubscribeToken)
}

var tmplFuncs = template.FuncMap{
	"sourceColor": func(source string) string {
		switch source {
		case "linkedin":
			return "#0077b5"
		case "indeed":
			return "#2557a7"
		default:
			return "#6d28d9"
		}
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"orDefault": func(s, fallback string) string {
		if s == "" {
			return fallback
		}
		return s
	},
}

var digestTmpl = template.Must(template.New("digest").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; background-color: #0f0f23; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="max-width: 600px; margin: 0 auto; background-color: #1a1a2e;">
    <tr>
      <td style="padding: 32px; text-align: center; background: linear-gradient(135deg, #6366f1 0%, #818cf8 100%);">
        <h1 style="margin: 0; color: white; font-size: 28px;">JobFlow</h1>
        <p style="margin: 8px 0 0 0; color: rgba(255,255,255,0.9);">Your Daily Job Digest</p>
      </td>
    </tr>
    <tr>
      <td style="padding: 24px;">
        <p style="color: #f8f8f2; font-size: 16px; margin: 0 0 16px 0;">
          Hey there! 👋 We found <strong>{{.Count}} new job{{.Plural}}</strong> matching your preferences.
        </p>
      </td>
    </tr>
{{- range .Postings}}
    <tr>
      <td style="padding: 20px; border-bottom: 1px solid #2d2d44;">
        <div style="margin-bottom: 8px;">
          <a href="{{.URL}}" style="color: #6366f1; font-size: 18px; font-weight: 600; text-decoration: none;">{{.Title}}</a>
        </div>
        <div style="color: #f8f8f2; margin-bottom: 4px;">🏢 {{orDefault .Company "Company not listed"}}</div>
        <div style="color: #a0a0a0; margin-bottom: 4px;">📍 {{orDefault .Location "Location not specified"}}</div>
{{- if .Salary}}
        <div style="color: #22c55e;">💰 {{.Salary}}</div>
{{- end}}
        <div style="margin-top: 8px;">
          <span style="background: {{sourceColor .Source}}; color: white; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: 600;">{{title .Source}}</span>
        </div>
      </td>
    </tr>
{{- end}}
    <tr>
      <td style="padding: 24px; text-align: center; border-top: 1px solid #2d2d44;">
        <p style="color: #a0a0a0; font-size: 14px; margin: 0 0 16px 0;">Happy job hunting! 🚀</p>
        <p style="color: #666; font-size: 12px; margin: 0;">
          <a href="{{.UnsubscribeURL}}" style="color: #666;">Unsubscribe</a>
          &nbsp;•&nbsp;
          <a href="{{.AppURL}}/dashboard" style="color: #666;">Manage Preferences</a>
        </p>
      </td>
    </tr>
  </table>
</body>
</html>
`))

var emptyTmpl = template.Must(template.New("empty").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; background-color: #0f0f23; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="max-width: 600px; margin: 0 auto; background-color: #1a1a2e;">
    <tr>
      <td style="padding: 32px; text-align: center; background: linear-gradient(135deg, #6366f1 0%, #818cf8 100%);">
        <h1 style="margin: 0; color: white; font-size: 28px;">JobFlow</h1>
        <p style="margin: 8px 0 0 0; color: rgba(255,255,255,0.9);">Daily Update</p>
      </td>
    </tr>
    <tr>
      <td style="padding: 48px 24px; text-align: center;">
        <div style="font-size: 48px; margin-bottom: 16px;">📭</div>
        <h2 style="color: #f8f8f2; margin: 0 0 16px 0;">No New Jobs Today</h2>
        <p style="color: #a0a0a0; font-size: 16px; margin: 0;">
          We searched LinkedIn, Indeed, and Monster but didn't find any new jobs matching your preferences today.
          We'll keep looking and let you know as soon as we find something!
        </p>
      </td>
    </tr>
    <tr>
      <td style="padding: 24px; text-align: center; border-top: 1px solid #2d2d44;">
        <p style="color: #666; font-size: 12px; margin: 0;">
          <a href="{{.UnsubscribeURL}}" style="color: #666;">Unsubscribe</a>
          &nbsp;•&nbsp;
          <a href="{{.AppURL}}/dashboard" style="color: #666;">Manage Preferences</a>
        </p>
      </td>
    </tr>
  </table>
</body>
</html>
`))
