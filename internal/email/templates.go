package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"unicode/utf8"
)

//go:embed templates/*.html
var templateFS embed.FS

// excerptLimit caps the lead text quoted in review emails.
const excerptLimit = 4000

type baseEmailData struct {
	Title   string
	Heading string
}

type leadReviewEmailData struct {
	baseEmailData
	LeadReview
}

type leadFailedEmailData struct {
	baseEmailData
	LeadFailure
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptLimit {
		return s
	}
	r := []rune(s)
	return string(r[:excerptLimit]) + "…"
}
