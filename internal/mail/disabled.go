package mail

import "context"

// Disabled is a no-op notifier used when SendGrid is not configured.
type Disabled struct{}

func (Disabled) Notify(ctx context.Context, subject, body string) error {
	return nil
}
