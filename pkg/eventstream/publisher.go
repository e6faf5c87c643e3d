package eventstream

import "context"

// Publisher publishes archive events to an event stream backend.
type Publisher interface {
	PublishArchive(ctx context.Context, event *ArchiveEvent) error
	Close() error
}
