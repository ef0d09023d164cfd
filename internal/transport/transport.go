// Package transport defines the outbound message channel contract and its
// concrete implementations (Telegram bot API, Discord webhook).
package transport

import "context"

// Channel delivers one formatted message to a chat destination.
// Implementations must be safe for concurrent use.
type Channel interface {
	Name() string
	Send(ctx context.Context, text string) error
}
