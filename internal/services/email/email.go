package email

import (
	"fmt"
	"net/smtp"

	"github.com/promptacademy/backend/internal/config"
)

// EmailService handles sending emails
type EmailService struct {
	cfg         config.SMTPConfig
	frontendURL string
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.SMTPConfig, frontendURL string) *EmailService {
	return &EmailService{cfg: cfg, frontendURL: frontendURL}
}

// SendPaymentApproved tells a user their payment was approved and what it unlocked
func (s *EmailService) SendPaymentApproved(toEmail, name, itemName string) error {
	subject := "Your payment has been approved"
	body := fmt.Sprintf(`
	<html>
	<body style="font-family: Arial, sans-serif; line-height: 1.6;">
		<h2>Hello %s,</h2>
		<p>Your payment for <strong>%s</strong> has been approved and your access is now active.</p>
		<p><a href="%s/dashboard">Go to your dashboard</a></p>
		<p>Thank you for learning with us!</p>
	</body>
	</html>
	`, name, itemName, s.frontendURL)

	return s.sendEmail(toEmail, subject, body)
}

// SendPaymentRejected tells a user their payment could not be verified
func (s *EmailService) SendPaymentRejected(toEmail, name, itemName string) error {
	subject := "We could not verify your payment"
	body := fmt.Sprintf(`
	<html>
	<body style="font-family: Arial, sans-serif; line-height: 1.6;">
		<h2>Hello %s,</h2>
		<p>Unfortunately we could not verify your payment for <strong>%s</strong>.</p>
		<p>Please double-check your receipt and submit it again, or contact support.</p>
		<p><a href="%s/payments">Review your payments</a></p>
	</body>
	</html>
	`, name, itemName, s.frontendURL)

	return s.sendEmail(toEmail, subject, body)
}

// SendWithdrawalReviewed tells a referrer the outcome of their withdrawal request
func (s *EmailService) SendWithdrawalReviewed(toEmail, name string, amount float64, approved bool) error {
	subject := "Your withdrawal request has been reviewed"
	outcome := "approved"
	if !approved {
		outcome = "rejected"
	}
	body := fmt.Sprintf(`
	<html>
	<body style="font-family: Arial, sans-serif; line-height: 1.6;">
		<h2>Hello %s,</h2>
		<p>Your withdrawal request for <strong>%.2f</strong> has been %s.</p>
		<p><a href="%s/referrals">See your referral earnings</a></p>
	</body>
	</html>
	`, name, amount, outcome, s.frontendURL)

	return s.sendEmail(toEmail, subject, body)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to, subject, body string) error {
	if s.cfg.Host == "" {
		return fmt.Errorf("smtp not configured")
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
