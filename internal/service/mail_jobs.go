package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/pkg/jobs"
	"github.com/noah-isme/courseflow-api/pkg/mailer"
)

// MailJobPasswordReset delivers a password reset link.
const MailJobPasswordReset = "mail.password_reset"

// NewMailJobHandler returns the queue handler that delivers queued emails through sender.
func NewMailJobHandler(sender mailer.Sender, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		msg, ok := job.Payload.(mailer.Message)
		if !ok {
			logger.Error("unexpected mail job payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
			return nil
		}
		if err := sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("send %s: %w", job.Type, err)
		}
		logger.Info("mail delivered", zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt))
		return nil
	}
}
