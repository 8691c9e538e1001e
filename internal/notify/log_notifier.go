package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/edulend/edulend/pkg/logger"
)

// LogNotifier writes deliveries to the application log instead of sending
// email. Used when SMTP is disabled, typically in development.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Send(ctx context.Context, kind Kind, recipient, token string) error {
	logger.WithModule("notify").Info("delivery suppressed, smtp disabled",
		zap.String("kind", string(kind)),
		zap.String("recipient", recipient),
		zap.String("token", token),
	)
	return nil
}
