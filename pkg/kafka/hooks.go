package kafka

import "context"

// ConsumerHook observes message processing. Hooks must be fast and
// must not panic; they run on the worker goroutine.
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, key []byte)
	AfterHandle(ctx context.Context, topic string, key []byte, err error)
}

// NoopHook is the default hook.
type NoopHook struct{}

func (NoopHook) BeforeHandle(context.Context, string, []byte)       {}
func (NoopHook) AfterHandle(context.Context, string, []byte, error) {}
