package cliui_test

import (
	"bytes"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/cliui"
)

// lockedBuffer keeps Step's spinner goroutine from racing the test's reads.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ = Describe("Step", func() {
	It("prints a success mark and elapsed time", func() {
		var buf lockedBuffer
		err := cliui.Step(&buf, "Archiving transcripts", func() error { return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("Archiving transcripts"))
		Expect(buf.String()).To(ContainSubstring("✓"))
		Expect(buf.String()).To(ContainSubstring("ms)"))
	})

	It("propagates the step error and prints a fail mark", func() {
		var buf lockedBuffer
		boom := errors.New("boom")
		err := cliui.Step(&buf, "Registering hooks", func() error { return boom })
		Expect(err).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("✗"))
	})
})

var _ = Describe("Mark", func() {
	It("maps errors to check marks", func() {
		Expect(cliui.Mark(nil)).To(ContainSubstring("✓"))
		Expect(cliui.Mark(errors.New("x"))).To(ContainSubstring("✗"))
	})

	It("maps toggles to state marks", func() {
		Expect(cliui.StateMark(true)).To(ContainSubstring("✓"))
		Expect(cliui.StateMark(false)).To(ContainSubstring("○"))
	})
})

var _ = Describe("CategoryBadge", func() {
	It("pads categories to a fixed width", func() {
		Expect(cliui.CategoryBadge("note")).To(ContainSubstring("[note        ]"))
		Expect(cliui.CategoryBadge("file_change")).To(ContainSubstring("[file_change ]"))
		Expect(cliui.CategoryBadge("architecture")).To(ContainSubstring("[architecture]"))
	})

	It("falls back to a dim badge for unknown categories", func() {
		Expect(cliui.CategoryBadge("mystery")).To(ContainSubstring("mystery"))
	})
})

var _ = Describe("FormatScore", func() {
	It("renders two decimal places", func() {
		Expect(cliui.FormatScore(0.8)).To(ContainSubstring("0.80"))
		Expect(cliui.FormatScore(0.025)).To(ContainSubstring("0.03"))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below a second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses fractional seconds above", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("FormatRelativeTime", func() {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	It("coarsens by magnitude", func() {
		Expect(cliui.FormatRelativeTime(now.Add(-10*time.Second), now)).To(Equal("just now"))
		Expect(cliui.FormatRelativeTime(now.Add(-5*time.Minute), now)).To(Equal("5m ago"))
		Expect(cliui.FormatRelativeTime(now.Add(-3*time.Hour), now)).To(Equal("3h ago"))
		Expect(cliui.FormatRelativeTime(now.Add(-49*time.Hour), now)).To(Equal("2d ago"))
	})
})

var _ = Describe("ProjectLabel", func() {
	It("keeps short paths intact", func() {
		Expect(cliui.ProjectLabel("/work")).To(Equal("/work"))
	})

	It("shortens deep paths to the last two segments", func() {
		Expect(cliui.ProjectLabel("/home/dev/acme/billing")).To(Equal("…/acme/billing"))
	})
})
