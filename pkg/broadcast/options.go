package broadcast

import "log/slog"

// Policy decides what happens when a subscriber's buffer is full.
type Policy int

const (
	// DropSubscriber closes and removes a subscriber that cannot keep up.
	DropSubscriber Policy = iota
	// DropOldest discards the subscriber's oldest buffered message.
	DropOldest
)

func (p Policy) String() string {
	switch p {
	case DropSubscriber:
		return "drop_subscriber"
	case DropOldest:
		return "drop_oldest"
	default:
		return "unknown"
	}
}

// Option configures a MemoryBroadcaster.
type Option func(*options)

type options struct {
	policy Policy
	logger *slog.Logger
	onDrop func()
}

// WithPolicy sets the slow consumer policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger enables debug logging of dropped messages and subscribers.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithDropHook registers fn to run every time a message is dropped for a subscriber.
func WithDropHook(fn func()) Option {
	return func(o *options) { o.onDrop = fn }
}
