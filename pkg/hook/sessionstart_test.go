package hook_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/hook"
	"github.com/infinitecontext/infctx/pkg/store"
)

func seedMemory(st *store.Store, project, category, content string, score float64) *store.Memory {
	m := &store.Memory{
		Project:      project,
		SessionID:    "seed",
		Category:     category,
		Content:      content,
		Score:        score,
		CreatedAt:    time.Now().UTC(),
		LastAccessed: time.Now().UTC(),
	}
	_, err := st.InsertMemory(m)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return m
}

var _ = Describe("SessionStart", func() {
	ctx := context.Background()
	const project = "/home/u/billing"

	It("restores archived memories into a fresh session", func() {
		h, dataDir, out := newHandler()

		var decision, finding *store.Memory
		withStore(dataDir, func(st *store.Store) {
			decision = seedMemory(st, project, config.CategoryDecision, "use postgres for persistence", 0.8)
			finding = seedMemory(st, project, config.CategoryFinding, "auth middleware runs before routing", 0.6)
			seedMemory(st, "/home/u/other", config.CategoryNote, "unrelated project fact", 0.9)
		})

		err := h.SessionStart(ctx, &hook.Input{SessionID: "sess-1", CWD: project, Source: "startup"})
		Expect(err).NotTo(HaveOccurred())

		event, text := decodeContext(out)
		Expect(event).To(Equal("SessionStart"))
		Expect(text).To(HavePrefix("## Prior Context (restored from archive)"))
		Expect(text).To(ContainSubstring("use postgres for persistence"))
		Expect(text).To(ContainSubstring("auth middleware runs before routing"))
		Expect(text).NotTo(ContainSubstring("unrelated project fact"))

		withStore(dataDir, func(st *store.Store) {
			got, err := st.GetMemory(decision.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AccessCount).To(Equal(1))
			Expect(got.Score).To(BeNumerically(">", 0.8))

			got, err = st.GetMemory(finding.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AccessCount).To(Equal(1))

			sessions, err := st.AllSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(1))
			Expect(sessions[0].SessionID).To(Equal("sess-1"))
			Expect(sessions[0].Project).To(Equal(project))
		})
	})

	It("treats resume like startup", func() {
		h, dataDir, out := newHandler()
		withStore(dataDir, func(st *store.Store) {
			seedMemory(st, project, config.CategoryNote, "remembered across restarts", 0.7)
		})

		Expect(h.SessionStart(ctx, &hook.Input{SessionID: "s", CWD: project, Source: "resume"})).To(Succeed())

		_, text := decodeContext(out)
		Expect(text).To(ContainSubstring("remembered across restarts"))
	})

	It("restores nothing for an unrecognized source", func() {
		h, dataDir, out := newHandler()
		withStore(dataDir, func(st *store.Store) {
			seedMemory(st, project, config.CategoryNote, "should stay put", 0.9)
		})

		Expect(h.SessionStart(ctx, &hook.Input{SessionID: "s", CWD: project, Source: "warmboot"})).To(Succeed())
		Expect(out.Len()).To(BeZero())
	})

	It("shrinks the budget after a compaction", func() {
		h, dataDir, out := newHandler()
		withStore(dataDir, func(st *store.Store) {
			for i := range 20 {
				content := fmt.Sprintf("%010d", i) + strings.Repeat("x", 440)
				seedMemory(st, project, config.CategoryNote, content, 0.7)
			}
		})

		Expect(h.SessionStart(ctx, &hook.Input{SessionID: "s1", CWD: project, Source: "startup"})).To(Succeed())
		_, full := decodeContext(out)
		out.Reset()

		Expect(h.SessionStart(ctx, &hook.Input{SessionID: "s2", CWD: project, Source: "compact"})).To(Succeed())
		_, reduced := decodeContext(out)

		Expect(strings.Count(full, "\n- ")).To(Equal(20))
		Expect(strings.Count(reduced, "\n- ")).To(Equal(15))
	})

	It("stays silent when the project has no memories", func() {
		h, _, out := newHandler()
		Expect(h.SessionStart(ctx, &hook.Input{SessionID: "s", CWD: project, Source: "startup"})).To(Succeed())
		Expect(out.Len()).To(BeZero())
	})

	It("ignores incomplete input", func() {
		h, _, out := newHandler()
		Expect(h.SessionStart(ctx, nil)).To(Succeed())
		Expect(h.SessionStart(ctx, &hook.Input{CWD: project, Source: "startup"})).To(Succeed())
		Expect(h.SessionStart(ctx, &hook.Input{SessionID: "s", Source: "startup"})).To(Succeed())
		Expect(out.Len()).To(BeZero())
	})
})
