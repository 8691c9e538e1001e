package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edulend/edulend/pkg/mail"
)

// MailNotifier delivers links over SMTP using the shared mailer.
type MailNotifier struct {
	mailer  mail.Mailer
	baseURL string
}

// NewMailNotifier builds a Notifier backed by the supplied mailer. Links are
// rooted at baseURL, e.g. https://app.edulend.in.
func NewMailNotifier(mailer mail.Mailer, baseURL string) (*MailNotifier, error) {
	if mailer == nil {
		return nil, errors.New("mail notifier: mailer is required")
	}
	return &MailNotifier{
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (n *MailNotifier) Send(ctx context.Context, kind Kind, recipient, token string) error {
	subject, body, err := n.compose(kind, token)
	if err != nil {
		return err
	}

	msg := mail.Message{
		To:      []string{recipient},
		Subject: subject,
		Body:    body,
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	return nil
}

func (n *MailNotifier) compose(kind Kind, token string) (string, string, error) {
	switch kind {
	case KindVerifyEmail:
		link := fmt.Sprintf("%s/verify-email?token=%s", n.baseURL, token)
		body := fmt.Sprintf("Welcome to EduLend!\n\nPlease confirm your email address by visiting the link below:\n%s\n\nIf you did not create an account, you can ignore this message.\n", link)
		return "Confirm your EduLend account", body, nil
	case KindResetPassword:
		link := fmt.Sprintf("%s/reset-password?token=%s", n.baseURL, token)
		body := fmt.Sprintf("We received a request to reset your EduLend password.\n\nUse the link below within the next hour:\n%s\n\nIf you did not request a reset, you can ignore this message.\n", link)
		return "Reset your EduLend password", body, nil
	default:
		return "", "", fmt.Errorf("notify: unknown kind %q", kind)
	}
}
