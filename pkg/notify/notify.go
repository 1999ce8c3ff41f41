package notify

import (
	"context"
)

// Field is a titled value attached to a notification.
type Field struct {
	Name  string
	Value string
}

// Notification is a transport-agnostic completion message.
type Notification struct {
	Title   string
	Text    string
	Fields  []Field
	Success bool
}

// Notifier publishes a message to a notification channel.
type Notifier interface {
	Publish(ctx context.Context, n Notification) error
}

// Nop is used when no notification target is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, n Notification) error {
	return nil
}
