package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/courseflow-api/pkg/config"
)

func TestSendWithoutConfigurationFails(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{}, nil)
	assert.False(t, m.Configured())
	assert.ErrorIs(t, m.Send(context.Background(), Message{To: "a@b.test"}), ErrNotConfigured)
}

func TestSendRejectsEmptyRecipient(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "smtp.test", Port: 25, From: "no-reply@test"}, nil)
	assert.EqualError(t, m.Send(context.Background(), Message{To: "  "}), "empty recipient")
}

func TestSendHonoursCancelledContext(t *testing.T) {
	m := NewSMTPMailer(config.MailConfig{Host: "smtp.test", Port: 25, From: "no-reply@test"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: "a@b.test"}), context.Canceled)
}
