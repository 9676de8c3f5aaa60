package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client     *resend.Client
	fromEmail  string
	adminEmail string
	isDev      bool
	appURL     string
	appName    string
}

func NewEmailService(apiKey, fromEmail, adminEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		adminEmail: adminEmail,
		isDev:      isDev,
		appURL:     appURL,
		appName:    appName,
	}
}

// SendWelcomeEmail greets a freshly registered user.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, email, username string) error {
	subject, body := welcomeEmailTemplate(username, s.appURL, s.appName)
	return s.send(ctx, "welcome", email, subject, body)
}

// SendRegistrationNotice tells the studio about a new account. Without an
// admin address it does nothing.
func (s *EmailService) SendRegistrationNotice(ctx context.Context, username, email string) error {
	if s.adminEmail == "" {
		return nil
	}
	subject, body := registrationNoticeTemplate(username, email, s.appName)
	return s.send(ctx, "registration_notice", s.adminEmail, subject, body)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}
