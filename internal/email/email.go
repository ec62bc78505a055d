package email

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"

	"complyflow/internal/config"
)

// Service handles email operations
type Service struct {
	config *config.EmailConfig
}

// NewService creates a new email service
func NewService(cfg *config.EmailConfig) *Service {
	return &Service{
		config: cfg,
	}
}

// SendAuditAccepted notifies a submitter that their audit was accepted
func (s *Service) SendAuditAccepted(to, userName, submissionTitle string, submissionID uint) error {
	subject := fmt.Sprintf("Audit accepted: %s", submissionTitle)
	link := fmt.Sprintf("%s/submissions/%d", s.config.AppBaseURL, submissionID)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Audit Accepted</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #2e8540;">Audit accepted</h2>
        <p>Hello %s,</p>
        <p>Your audit submission <strong>%s</strong> has been reviewed and accepted.</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #2e8540; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">View Submission</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, userName, submissionTitle, link)

	return s.sendEmail(to, subject, body)
}

// SendAuditRejected notifies a submitter that their audit was rejected,
// including the corrective action the reviewer requested
func (s *Service) SendAuditRejected(to, userName, submissionTitle, correctiveAction string, submissionID uint) error {
	subject := fmt.Sprintf("Audit rejected: %s", submissionTitle)
	link := fmt.Sprintf("%s/submissions/%d", s.config.AppBaseURL, submissionID)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Audit Rejected</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #c0392b;">Audit rejected</h2>
        <p>Hello %s,</p>
        <p>Your audit submission <strong>%s</strong> has been reviewed and rejected.</p>
        <p>Requested corrective action:</p>
        <blockquote style="border-left: 4px solid #c0392b; margin: 0; padding: 10px 20px; background: #f9f9f9;">%s</blockquote>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #c0392b; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">View Submission</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, userName, submissionTitle, correctiveAction, link)

	return s.sendEmail(to, subject, body)
}

// SendDraftReminder reminds a user about a stale draft submission
func (s *Service) SendDraftReminder(to, userName, templateTitle string, submissionID uint) error {
	subject := fmt.Sprintf("Reminder: unfinished checklist '%s'", templateTitle)
	link := fmt.Sprintf("%s/submissions/%d", s.config.AppBaseURL, submissionID)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Draft Reminder</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">You have an unfinished checklist</h2>
        <p>Hello %s,</p>
        <p>Your submission for <strong>%s</strong> has been sitting as a draft for a while. Pick it up where you left off:</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Continue Submission</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, userName, templateTitle, link)

	return s.sendEmail(to, subject, body)
}

// SendReviewReminder nudges reviewers about audits awaiting verification
func (s *Service) SendReviewReminder(to string, pendingCount int) error {
	subject := "Audits awaiting review"
	link := fmt.Sprintf("%s/review", s.config.AppBaseURL)

	body := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Review Reminder</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <h2 style="color: #4a90e2;">Audits awaiting review</h2>
        <p>There are currently <strong>%d</strong> finalized audit submissions waiting for verification.</p>
        <div style="text-align: center; margin: 30px 0;">
            <a href="%s" style="background-color: #4a90e2; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block;">Open Review Queue</a>
        </div>
        <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
        <p style="color: #999; font-size: 12px;">This is an automated email. Please do not reply.</p>
    </div>
</body>
</html>
`, pendingCount, link)

	return s.sendEmail(to, subject, body)
}

// sendEmail sends an email using SMTP
func (s *Service) sendEmail(to, subject, body string) error {
	if s.config.SMTPHost == "" {
		slog.Debug("SMTP not configured, skipping email", "to", to, "subject", subject)
		return nil
	}

	headers := map[string]string{
		"From":         s.config.SMTPFrom,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	var message bytes.Buffer
	for k, v := range headers {
		message.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
	}
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := net.JoinHostPort(s.config.SMTPHost, s.config.SMTPPort)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		slog.Error("Failed to connect to SMTP server", "address", addr, "error", err)
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func(conn net.Conn) {
		if err := conn.Close(); err != nil {
			slog.Error("Failed to close SMTP connection", "error", err)
		}
	}(conn)

	client, err := smtp.NewClient(conn, s.config.SMTPHost)
	if err != nil {
		slog.Error("Failed to create SMTP client", "error", err)
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func(client *smtp.Client) {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close SMTP client", "error", err)
		}
	}(client)

	// Authenticate only if credentials are provided. Development setups
	// like Mailpit accept unauthenticated mail.
	if s.config.SMTPUsername != "" && s.config.SMTPPassword != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
		_ = client.Auth(auth)
	}

	if err := client.Mail(s.config.SMTPFrom); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to initiate data transfer: %w", err)
	}
	defer func(wc io.WriteCloser) {
		if err := wc.Close(); err != nil {
			slog.Error("Failed to close message writer", "error", err)
		}
	}(wc)

	if _, err := wc.Write(message.Bytes()); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	slog.Info("Email sent", "to", to, "subject", subject)
	return nil
}
