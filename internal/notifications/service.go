package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/azure/brand-visibility-bot/internal/config"
	"github.com/azure/brand-visibility-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	dialer *gomail.Dialer
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	s := &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
	if cfg.SMTPHost != "" {
		s.dialer = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	}
	return s
}

// SendReport sends a visibility report via configured notification channels
func (s *Service) SendReport(report *models.Report) error {
	subject := fmt.Sprintf("Brand Visibility Report - %s (%s %.1f%%)", report.Project, report.Brand, report.Visibility)
	return s.dispatch("report", buildReportMessage(report), subject, report, nil)
}

// SendAlert sends an alert, typically a visibility drop, via configured channels
func (s *Service) SendAlert(alert *models.Alert) error {
	subject := fmt.Sprintf("[%s] %s", strings.ToUpper(alert.Type), alert.Title)
	return s.dispatch("alert", buildAlertMessage(alert), subject, alert.Report, alert)
}

func (s *Service) dispatch(kind string, message *TeamsMessage, subject string, report *models.Report, alert *models.Alert) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(message); err != nil {
			logrus.Errorf("Failed to send Teams %s: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Successfully sent %s to Teams", kind)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(subject, report, alert); err != nil {
			logrus.Errorf("Failed to send %s email: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Successfully sent %s via email", kind)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(message *TeamsMessage) error {
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

func buildReportMessage(report *models.Report) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Brand Visibility Report - %s", report.Project),
		Text: fmt.Sprintf("%s scored **%.1f%%** visibility across %d answered queries",
			report.Brand, report.Visibility, report.TotalQueries),
	}

	facts := []TeamsFact{
		{Name: "Visibility", Value: fmt.Sprintf("%.1f%%", report.Visibility)},
		{Name: "Daily Change", Value: FormatChange(report.Change.Daily)},
		{Name: "Weekly Change", Value: FormatChange(report.Change.Weekly)},
		{Name: "Queries Answered", Value: fmt.Sprintf("%d", report.TotalQueries)},
		{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	if report.FailedQueries > 0 {
		facts = append(facts, TeamsFact{Name: "Queries Failed", Value: fmt.Sprintf("%d", report.FailedQueries)})
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(report.BrandScores) > 0 {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Brands",
			Facts:         scoreFacts(report.BrandScores),
			Markdown:      true,
		})
	}

	if len(report.TopicScores) > 0 {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: fmt.Sprintf("Topics (%s)", report.Brand),
			Facts:         scoreFacts(report.TopicScores),
			Markdown:      true,
		})
	}

	return message
}

func buildAlertMessage(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "d13438",
		Title:      alert.Title,
		Text:       alert.Message,
	}

	if alert.Report != nil {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: alert.Report.Project,
			Facts: []TeamsFact{
				{Name: "Visibility", Value: fmt.Sprintf("%.1f%%", alert.Report.Visibility)},
				{Name: "Daily Change", Value: FormatChange(alert.Report.Change.Daily)},
				{Name: "Weekly Change", Value: FormatChange(alert.Report.Change.Weekly)},
			},
			Markdown: true,
		})
	}

	return message
}

// scoreFacts lists scores highest first, ties by name
func scoreFacts(scores map[string]float64) []TeamsFact {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if scores[names[i]] != scores[names[j]] {
			return scores[names[i]] > scores[names[j]]
		}
		return names[i] < names[j]
	})

	facts := make([]TeamsFact, 0, len(names))
	for _, name := range names {
		facts = append(facts, TeamsFact{Name: name, Value: fmt.Sprintf("%.1f%%", scores[name])})
	}
	return facts
}

// FormatChange renders a delta in percentage points, "n/a" when there was nothing to compare with
func FormatChange(change *float64) string {
	if change == nil {
		return "n/a"
	}
	return fmt.Sprintf("%+.1f pp", *change)
}

func (s *Service) sendEmail(subject string, report *models.Report, alert *models.Alert) error {
	if s.dialer == nil {
		return fmt.Errorf("SMTP is not configured")
	}

	htmlBody, err := buildEmailHTML(report, alert)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", buildEmailText(report, alert))
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Brand Visibility Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .alert { background-color: #d13438; color: white; padding: 15px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        td { padding: 4px 12px 4px 0; }
    </style>
</head>
<body>
    {{if .Alert}}
    <div class="alert">
        <h2>{{.Alert.Title}}</h2>
        <p>{{.Alert.Message}}</p>
    </div>
    {{end}}
    {{with .Report}}
    <div class="header">
        <h1>{{.Project}}</h1>
        <p>{{.Period}} report generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>{{.Brand}} visibility:</strong> {{printf "%.1f" .Visibility}}%</p>
        <p><strong>Daily change:</strong> {{change .Change.Daily}}</p>
        <p><strong>Weekly change:</strong> {{change .Change.Weekly}}</p>
        <p><strong>Queries answered:</strong> {{.TotalQueries}}{{if .FailedQueries}} ({{.FailedQueries}} failed){{end}}</p>
    </div>

    {{if .BrandScores}}
    <h2>Brands</h2>
    <table>
    {{range scores .BrandScores}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>{{end}}
    </table>
    {{end}}

    {{if .TopicScores}}
    <h2>Topics</h2>
    <table>
    {{range scores .TopicScores}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>{{end}}
    </table>
    {{end}}
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the Brand Visibility Bot.</small></p>
</body>
</html>
`

var emailHTML = template.Must(template.New("email").Funcs(template.FuncMap{
	"change": FormatChange,
	"scores": scoreFacts,
}).Parse(emailTemplate))

func buildEmailHTML(report *models.Report, alert *models.Alert) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Report *models.Report
		Alert  *models.Alert
	}{Report: report, Alert: alert}

	if err := emailHTML.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(report *models.Report, alert *models.Alert) string {
	var text strings.Builder

	if alert != nil {
		text.WriteString(fmt.Sprintf("ALERT: %s\n%s\n\n", alert.Title, alert.Message))
	}

	if report != nil {
		text.WriteString(fmt.Sprintf("Brand Visibility Report - %s\n", report.Project))
		text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

		text.WriteString("SUMMARY\n")
		text.WriteString("=======\n")
		text.WriteString(fmt.Sprintf("%s visibility: %.1f%%\n", report.Brand, report.Visibility))
		text.WriteString(fmt.Sprintf("Daily change: %s\n", FormatChange(report.Change.Daily)))
		text.WriteString(fmt.Sprintf("Weekly change: %s\n", FormatChange(report.Change.Weekly)))
		text.WriteString(fmt.Sprintf("Queries answered: %d\n", report.TotalQueries))
		if report.FailedQueries > 0 {
			text.WriteString(fmt.Sprintf("Queries failed: %d\n", report.FailedQueries))
		}

		if len(report.BrandScores) > 0 {
			text.WriteString("\nBRANDS\n")
			text.WriteString("======\n")
			for _, fact := range scoreFacts(report.BrandScores) {
				text.WriteString(fmt.Sprintf("%-20s %s\n", fact.Name, fact.Value))
			}
		}

		if len(report.TopicScores) > 0 {
			text.WriteString("\nTOPICS\n")
			text.WriteString("======\n")
			for _, fact := range scoreFacts(report.TopicScores) {
				text.WriteString(fmt.Sprintf("%-20s %s\n", fact.Name, fact.Value))
			}
		}
	}

	text.WriteString("\n---\nThis report was generated automatically by the Brand Visibility Bot.\n")

	return text.String()
}
