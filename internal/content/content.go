// Package content fetches the dynamic section of the weekly message.
package content

import "context"

// Source is a single blocking fetch of the weekly boss text.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// Fallback is substituted by the broadcast layer when the source fails.
// Content unavailability never aborts a broadcast.
const Fallback = "Could not fetch weekly boss data."
