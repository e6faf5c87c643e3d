package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/eventstream"
	"github.com/infinitecontext/infctx/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("creates a non-nil publisher", func() {
		p := nop.NewPublisher()
		Expect(p).NotTo(BeNil())
	})

	It("returns ErrNilArchiveEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishArchive(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilArchiveEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishArchive(context.Background(), &eventstream.ArchiveEvent{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
