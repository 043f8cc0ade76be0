// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kucukkal/dealer-backend/internal/config"
)

// NotificationService mails operational digests to the configured
// alert inbox: finance snapshot results and what the daily sweeps did.
// With no alert address configured everything is logged and dropped.
type NotificationService struct {
	cfg *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{cfg: cfg}
}

func (s *NotificationService) SendSnapshotReport(saleRows, inventoryRows int, took time.Duration) error {
	tmpl := s.getEmailTemplate("snapshot_report")

	data := map[string]interface{}{
		"SaleRows":      saleRows,
		"InventoryRows": inventoryRows,
		"TotalRows":     saleRows + inventoryRows,
		"Duration":      took.Round(time.Millisecond).String(),
		"FinishedAt":    time.Now().Format(time.RFC1123),
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(s.cfg.Email.AlertEmail, tmpl.Subject, body)
}

func (s *NotificationService) SendStalledCleanupDigest(deletedSaleIDs []string, refunded, failures int) error {
	if len(deletedSaleIDs) == 0 && failures == 0 {
		return nil
	}

	tmpl := s.getEmailTemplate("stalled_cleanup")

	data := map[string]interface{}{
		"Deleted":  deletedSaleIDs,
		"Count":    len(deletedSaleIDs),
		"Refunded": refunded,
		"Failures": failures,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(s.cfg.Email.AlertEmail, tmpl.Subject, body)
}

func (s *NotificationService) SendServiceCompletionDigest(completedServiceIDs []string, failures int) error {
	if len(completedServiceIDs) == 0 && failures == 0 {
		return nil
	}

	tmpl := s.getEmailTemplate("service_completion")

	data := map[string]interface{}{
		"Completed": completedServiceIDs,
		"Count":     len(completedServiceIDs),
		"Failures":  failures,
	}

	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(s.cfg.Email.AlertEmail, tmpl.Subject, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if to == "" || s.cfg.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithField("subject", subject).Debug("Alert email not configured, dropping notification")
		return nil
	}

	// Setup authentication
	auth := smtp.PlainAuth("", s.cfg.Email.SMTPUsername, s.cfg.Email.SMTPPassword, s.cfg.Email.SMTPHost)

	// Compose message
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.Email.SMTPHost, s.cfg.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.cfg.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"snapshot_report": {
			Subject: "Finance snapshot rebuilt",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Finance Snapshot Rebuilt</h2>
	<p>The finance table was regenerated at {{.FinishedAt}}.</p>
	<ul>
		<li>Sale rows: {{.SaleRows}}</li>
		<li>Inventory-only rows: {{.InventoryRows}}</li>
		<li>Total rows: {{.TotalRows}}</li>
		<li>Duration: {{.Duration}}</li>
	</ul>
</body>
</html>`,
		},
		"stalled_cleanup": {
			Subject: "Stalled negotiations cleaned up",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Stalled Negotiation Cleanup</h2>
	<p>{{.Count}} abandoned sales were removed, {{.Refunded}} deposits refunded, {{.Failures}} items skipped.</p>
	<ul>
	{{range .Deleted}}<li>{{.}}</li>{{end}}
	</ul>
</body>
</html>`,
		},
		"service_completion": {
			Subject: "Overnight service completions",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Service Completion Sweep</h2>
	<p>{{.Count}} repairs were completed, {{.Failures}} items skipped.</p>
	<ul>
	{{range .Completed}}<li>{{.}}</li>{{end}}
	</ul>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
