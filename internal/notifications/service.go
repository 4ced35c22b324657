package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/azure/filedrop/internal/config"
	"github.com/azure/filedrop/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends a report via configured notification channels
func (s *Service) SendReport(report *models.Report) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(report); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent report to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(report *models.Report) error {
	message := s.buildTeamsMessage(report)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("File Store Activity Report - %s", capitalize(report.Period)),
		Text:    fmt.Sprintf("%d entries stored on the %s backend", report.TotalEntries, report.Backend),
	}

	facts := []TeamsFact{
		{Name: "Total Entries", Value: fmt.Sprintf("%d", report.TotalEntries)},
		{Name: "Bytes Stored", Value: fmt.Sprintf("%d", report.BytesStored)},
		{Name: "Bytes Served", Value: fmt.Sprintf("%d", report.BytesServed)},
		{Name: "Errors", Value: fmt.Sprintf("%d", report.ErrorCount)},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.Operations) > 0 {
		var opFacts []TeamsFact
		for _, op := range sortedKeys(report.Operations) {
			opFacts = append(opFacts, TeamsFact{
				Name:  capitalize(op),
				Value: fmt.Sprintf("%d", report.Operations[op]),
			})
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Operations",
			Facts:         opFacts,
		})
	}

	return message
}

func (s *Service) sendEmail(report *models.Report) error {
	subject := fmt.Sprintf("File Store Activity Report - %s (%d entries)",
		capitalize(report.Period), report.TotalEntries)

	htmlBody, err := s.buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	textBody := s.buildEmailText(report)

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>File Store Activity Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>File Store Activity Report</h1>
        <p>{{.Period}} report generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Backend:</strong> {{.Backend}}</p>
        <p><strong>Total Entries:</strong> {{.TotalEntries}}</p>
        <p><strong>Bytes Stored:</strong> {{.BytesStored}}</p>
        <p><strong>Bytes Served:</strong> {{.BytesServed}}</p>
        <p><strong>Errors:</strong> {{.ErrorCount}}</p>
    </div>

    {{if .Operations}}
    <h2>Operations</h2>
    <ul>
    {{range $op, $count := .Operations}}
        <li><strong>{{$op | title}}:</strong> {{$count}}</li>
    {{end}}
    </ul>
    {{end}}

    <hr>
    <p><small>This report was generated automatically by filedrop.</small></p>
</body>
</html>
`

func (s *Service) buildEmailHTML(report *models.Report) (string, error) {
	t := template.New("email").Funcs(template.FuncMap{
		"title": capitalize,
	})

	t, err := t.Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(report *models.Report) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("File Store Activity Report - %s\n", capitalize(report.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Backend: %s\n", report.Backend))
	text.WriteString(fmt.Sprintf("Total Entries: %d\n", report.TotalEntries))
	text.WriteString(fmt.Sprintf("Bytes Stored: %d\n", report.BytesStored))
	text.WriteString(fmt.Sprintf("Bytes Served: %d\n", report.BytesServed))
	text.WriteString(fmt.Sprintf("Errors: %d\n", report.ErrorCount))

	if len(report.Operations) > 0 {
		text.WriteString("\nOPERATIONS\n")
		text.WriteString("==========\n")
		for _, op := range sortedKeys(report.Operations) {
			text.WriteString(fmt.Sprintf("%s: %d\n", capitalize(op), report.Operations[op]))
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by filedrop.\n")

	return text.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
