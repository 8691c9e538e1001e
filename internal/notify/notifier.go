package notify

import (
	"context"
	"errors"
)

// Kind selects the template and link a delivery uses.
type Kind string

const (
	KindVerifyEmail   Kind = "verify-email"
	KindResetPassword Kind = "reset-password"
)

// ErrDeliveryFailed wraps transport failures so callers can distinguish
// delivery problems from validation problems and offer a resend.
var ErrDeliveryFailed = errors.New("notify: delivery failed")

// Notifier delivers verification and reset links to a recipient. The raw
// token is embedded in a purpose-specific link by the implementation.
type Notifier interface {
	Send(ctx context.Context, kind Kind, recipient, token string) error
}
