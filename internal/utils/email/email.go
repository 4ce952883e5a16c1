package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/worklog-service/internal/config"
	"github.com/Dan9191/worklog-service/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendWeeklyReport mails the hours summary for [from, to] to recipients
func (s *Sender) SendWeeklyReport(recipients []string, from, to time.Time, rows []models.HoursSummary) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = recipients
	e.Subject = fmt.Sprintf("Work hours %s to %s", from.Format(models.DateLayout), to.Format(models.DateLayout))
	e.Text = []byte(ReportBody(from, to, rows))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send weekly report to %s: %v", strings.Join(recipients, ", "), err)
		return fmt.Errorf("failed to send weekly report: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", strings.Join(recipients, ", "), e.Subject)
	return nil
}

// ReportBody formats the summary as plain text, one line per user and
// project followed by per-user subtotals and a grand total.
func ReportBody(from, to time.Time, rows []models.HoursSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hours logged from %s to %s\n\n", from.Format(models.DateLayout), to.Format(models.DateLayout))

	if len(rows) == 0 {
		b.WriteString("No hours were logged in this period.\n")
		b.WriteString("\nWork Log Service")
		return b.String()
	}

	var total, subtotal float64
	for i, row := range rows {
		if i == 0 || rows[i-1].Username != row.Username {
			fmt.Fprintf(&b, "%s\n", row.Username)
			subtotal = 0
		}
		fmt.Fprintf(&b, "  %-40s %7.2f\n", row.ProjectName, row.Hours)
		subtotal += row.Hours
		total += row.Hours
		if i == len(rows)-1 || rows[i+1].Username != row.Username {
			fmt.Fprintf(&b, "  %-40s %7.2f\n\n", "total", subtotal)
		}
	}
	fmt.Fprintf(&b, "All users: %.2f hours\n", total)
	b.WriteString("\nWork Log Service")
	return b.String()
}
