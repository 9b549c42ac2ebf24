package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"sort"
	"strings"
	"time"

	gomail "gopkg.in/mail.v2"
)

// EmailConfig contains configuration for email notifications
type EmailConfig struct {
	SMTPHost       string
	SMTPPort       int
	Username       string
	SenderEmail    string
	SenderPassword string
	RecipientEmail string
}

// Enabled reports whether enough is configured to send mail.
func (c EmailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.RecipientEmail != ""
}

// PlatformCount is one row of the summary table.
type PlatformCount struct {
	Platform string
	Titles   int
}

// ReloadSummary describes one completed catalog import.
type ReloadSummary struct {
	RunID       string
	Sources     []string
	Titles      int
	Shows       int
	Movies      int
	Prices      int
	Platforms   []PlatformCount
	Duration    time.Duration
	CompletedAt time.Time
}

// PlatformsFromCounts turns a platform → titles map into rows, largest first.
func PlatformsFromCounts(counts map[string]int) []PlatformCount {
	rows := make([]PlatformCount, 0, len(counts))
	for p, n := range counts {
		rows = append(rows, PlatformCount{Platform: p, Titles: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Titles != rows[j].Titles {
			return rows[i].Titles > rows[j].Titles
		}
		return rows[i].Platform < rows[j].Platform
	})
	return rows
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier handles sending email notifications
type EmailNotifier struct {
	config       EmailConfig
	htmlTemplate *template.Template
	dialer       sender
}

var reloadTemplate = template.Must(template.New("email").Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>StreamLens - Catalog Update</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; }
        h1 { color: #4e79a7; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background-color: #f4f4f4; text-align: left; padding: 10px; }
        td { padding: 10px; border-bottom: 1px solid #ddd; }
        .footer { font-size: 12px; color: #666; margin-top: 50px; text-align: center; }
        .count { font-weight: bold; color: #e15759; }
        .source { font-style: italic; color: #666; }
    </style>
</head>
<body>
    <h1>StreamLens - Catalog Update</h1>
    <p>The catalog was reloaded on {{.Date}} in {{.Duration}}.</p>

    <p>Titles: <span class="count">{{.Titles}}</span> ({{.Shows}} shows, {{.Movies}} movies), price observations: {{.Prices}}</p>

    {{if .Platforms}}
    <table>
        <tr>
            <th>Platform</th>
            <th>Titles</th>
        </tr>
        {{range .Platforms}}
        <tr>
            <td>{{.Platform}}</td>
            <td>{{.Titles}}</td>
        </tr>
        {{end}}
    </table>
    {{end}}

    <div class="source">
        <p>Source(s): {{.SourceList}}</p>
        {{if .RunID}}<p>Run: {{.RunID}}</p>{{end}}
    </div>

    <div class="footer">
        <p>This is an automated email from StreamLens. Please do not reply.</p>
    </div>
</body>
</html>
`))

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(config EmailConfig) (*EmailNotifier, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("email notifier requires an SMTP host and a recipient")
	}
	username := config.Username
	if username == "" {
		username = "api"
	}
	return &EmailNotifier{
		config:       config,
		htmlTemplate: reloadTemplate,
		dialer:       gomail.NewDialer(config.SMTPHost, config.SMTPPort, username, config.SenderPassword),
	}, nil
}

// Message builds the reload summary mail.
func (n *EmailNotifier) Message(summary ReloadSummary) (*gomail.Message, error) {
	data := struct {
		ReloadSummary
		Date       string
		SourceList string
	}{
		ReloadSummary: summary,
		Date:          summary.CompletedAt.Format("January 2, 2006 at 3:04 PM"),
		SourceList:    strings.Join(summary.Sources, ", "),
	}

	var body bytes.Buffer
	if err := n.htmlTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.config.SenderEmail)
	m.SetHeader("To", n.config.RecipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("StreamLens: catalog reloaded with %d titles (%d shows, %d movies)",
		summary.Titles, summary.Shows, summary.Movies))

	plainText := fmt.Sprintf(
		"StreamLens Catalog Update\n\n"+
			"The catalog was reloaded on %s in %s.\n"+
			"Titles: %d (%d shows, %d movies)\n"+
			"Price observations: %d\n\n"+
			"Sources: %s\n\n"+
			"This is an automated email from StreamLens. Please do not reply.",
		data.Date, summary.Duration, summary.Titles, summary.Shows, summary.Movies, summary.Prices, data.SourceList)

	m.SetBody("text/plain", plainText)
	m.AddAlternative("text/html", body.String())
	return m, nil
}

// NotifyReload mails the summary of a completed reload.
func (n *EmailNotifier) NotifyReload(summary ReloadSummary) error {
	m, err := n.Message(summary)
	if err != nil {
		return err
	}
	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	slog.Info("reload notification sent", "recipient", n.config.RecipientEmail, "titles", summary.Titles)
	return nil
}

// SendTest sends a short message to verify the SMTP settings.
func (n *EmailNotifier) SendTest() error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.config.SenderEmail)
	m.SetHeader("To", n.config.RecipientEmail)
	m.SetHeader("Subject", "Test Email from StreamLens")
	m.SetBody("text/html", "<h1>Test Email</h1><p>This is a test email from StreamLens to verify the mail configuration.</p>")

	slog.Info("sending test email", "host", n.config.SMTPHost, "port", n.config.SMTPPort, "recipient", n.config.RecipientEmail)
	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send test email: %w", err)
	}
	return nil
}

// MaskSecret shortens a secret for logging.
func MaskSecret(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) > 8:
		return secret[:4] + "..." + secret[len(secret)-4:]
	default:
		return "***"
	}
}
