package interfaces

import "context"

// -----------------------------------------------------------------------------
// ITransport is one bidirectional text-message channel (one per connection).
// -----------------------------------------------------------------------------

type ITransport interface {

	// Send writes one text message. Implementations must be safe for use by
	// the read loop and the periodic refresh task at the same time.
	Send(ctx context.Context, payload []byte) error

	// -----------------------------------------------------------------------------

	// Receive blocks until the next text message arrives.
	Receive(ctx context.Context) ([]byte, error)

	// -----------------------------------------------------------------------------

	// Close tears the channel down. Safe to call more than once.
	Close() error
}
