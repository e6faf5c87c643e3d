package eventstream

import "errors"

// ErrNilArchiveEvent indicates a nil archive event payload was provided to a publisher.
var ErrNilArchiveEvent = errors.New("nil archive event")
