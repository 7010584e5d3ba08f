package ports

import (
	"context"

	"github.com/cicerone-chat/cicerone/pkg/domain"
)

// SessionGate flips a session's state when the runtime signals a hand-off.
// The session system itself lives outside this core.
type SessionGate interface {
	// AwaitHuman marks the session as waiting for a human operator.
	AwaitHuman(ctx context.Context, sessionID string) error
}

// Notifier fires outbound side-effects produced by mail/csv actions. Delivery
// transport is a collaborator concern; this core only hands over the resolved
// configuration.
type Notifier interface {
	TriggerMail(ctx context.Context, definitionID string, cfg domain.MailConfig) error
	TriggerCSV(ctx context.Context, definitionID string, cfg domain.CSVConfig) error
}

// NopSessionGate ignores hand-off signals. Useful for tooling that only
// compiles or previews definitions.
type NopSessionGate struct{}

func (NopSessionGate) AwaitHuman(context.Context, string) error { return nil }

// NopNotifier discards notification triggers.
type NopNotifier struct{}

func (NopNotifier) TriggerMail(context.Context, string, domain.MailConfig) error { return nil }
func (NopNotifier) TriggerCSV(context.Context, string, domain.CSVConfig) error   { return nil }
