// Package messenger provides the outbound messaging boundary. The bot
// composes a reply and hands it to a Messenger; delivery details belong to
// the channel-specific implementations.
package messenger

import "context"

// Messenger delivers text messages to a conversation participant.
type Messenger interface {
	// SendText delivers a plain text message to the given recipient.
	SendText(ctx context.Context, to string, text string) error

	// Close releases any resources held by the messenger.
	Close() error
}
