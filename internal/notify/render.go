package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// WelcomeParams fills the welcome email.
type WelcomeParams struct {
	// DownloadURL selects the "beta available" variant when non-empty.
	DownloadURL string
	Year        int
}

// FeedbackParams fills the feedback forwarding email.
type FeedbackParams struct {
	Label   string
	From    string
	Message string
}

// RenderWelcome renders the welcome email body.
func RenderWelcome(p WelcomeParams) (string, error) {
	return render("welcome.html", p)
}

// RenderFeedback renders the feedback forwarding email body. All fields are
// HTML-escaped.
func RenderFeedback(p FeedbackParams) (string, error) {
	return render("feedback.html", p)
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
