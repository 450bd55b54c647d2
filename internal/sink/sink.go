// Package sink delivers outbound messages to the chat platform.
package sink

import (
	"context"
	"fmt"
)

// Sink attempts delivery of one text message to one channel.
// Implementations are safe for concurrent use.
type Sink interface {
	Send(ctx context.Context, channelID, body string) error
}

// SendError carries the transport's view of a failed delivery.
type SendError struct {
	Status int
	Detail string
}

func (e *SendError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("send failed: status %d", e.Status)
	}
	return fmt.Sprintf("send failed: status %d: %s", e.Status, e.Detail)
}
