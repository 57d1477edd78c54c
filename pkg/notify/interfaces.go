package notify

import "context"

// Notifier delivers notifications to a sink (console, HTTP, SQS, etc).
type Notifier interface {
	ID() string
	Type() string
	Notify(ctx context.Context, n Notification) error
}
