package notify

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/example/assetdesk/internal/config"
)

// EmailNotifier mails notices to a fixed staff distribution list over SMTP.
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
	to     []string
}

func NewEmailNotifier(cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:   cfg.From,
		to:     cfg.To,
	}
}

func (e *EmailNotifier) Notify(ctx context.Context, notice RepairNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.dialer.DialAndSend(e.buildMessage(notice)); err != nil {
		return fmt.Errorf("send notification email: %w", err)
	}
	return nil
}

func (e *EmailNotifier) buildMessage(n RepairNotice) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", e.to...)
	m.SetHeader("Subject", EmailSubject(n))
	m.SetBody("text/plain", EmailBody(n))
	return m
}

func EmailSubject(n RepairNotice) string {
	return fmt.Sprintf("[Repair #%d] %s - %s", n.TicketID, n.AssetNumber, n.AssetName)
}

func EmailBody(n RepairNotice) string {
	lines := []string{
		"A new repair request was submitted.",
		"",
		"Asset number: " + n.AssetNumber,
		"Equipment:    " + n.AssetName,
		"Problem:      " + n.ProblemDescription,
		"Reporter:     " + n.ReporterName,
		"Location:     " + n.ReporterLocation,
		"Contact:      " + n.ReporterContact,
	}
	return strings.Join(lines, "\n")
}
