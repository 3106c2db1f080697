package ports

import "context"

// EventPublisher notifies other services about authentication events.
type EventPublisher interface {
	PublishLogin(ctx context.Context, address, nonce, tokenID string) error
}
