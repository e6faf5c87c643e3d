package nop

import (
	"context"

	"github.com/infinitecontext/infctx/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishArchive validates input and otherwise does nothing.
func (p *Publisher) PublishArchive(_ context.Context, event *eventstream.ArchiveEvent) error {
	if event == nil {
		return eventstream.ErrNilArchiveEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
