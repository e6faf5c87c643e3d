package hook_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/hook"
	"github.com/infinitecontext/infctx/pkg/store"
)

var _ = Describe("PreCompact", func() {
	ctx := context.Background()
	const project = "/home/u/billing"

	It("archives transcript content and prints the compaction notice", func() {
		h, dataDir, out := newHandler()
		path := filepath.Join(GinkgoT().TempDir(), "transcript.jsonl")
		writeTranscript(path, archiveFixture()...)

		err := h.PreCompact(ctx, &hook.Input{
			SessionID:      "sess-1",
			TranscriptPath: path,
			CWD:            project,
			Trigger:        "auto",
		})
		Expect(err).NotTo(HaveOccurred())

		summary := out.String()
		Expect(summary).To(HavePrefix("CONTEXT ARCHIVE (from infinite-context):"))
		Expect(summary).To(ContainSubstring("Project: " + project))
		Expect(summary).To(ContainSubstring("Archived 4 new memories"))
		Expect(summary).To(ContainSubstring("Key decisions:\n- I'll use PostgreSQL for persistence here"))
		Expect(summary).To(ContainSubstring("Files changed:\n- src/db.go"))
		Expect(summary).To(ContainSubstring("Errors encountered:\n- Error encountered: Error: connection refused"))
		Expect(len(summary)).To(BeNumerically("<=", 2000))

		withStore(dataDir, func(st *store.Store) {
			stats, err := st.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalMemories).To(Equal(4))

			cp, err := st.GetCheckpoint("sess-1", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cp).NotTo(BeNil())
			Expect(cp.LastLine).To(Equal(4))

			sessions, err := st.AllSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(1))
			Expect(sessions[0].SessionID).To(Equal("sess-1"))
			Expect(sessions[0].Project).To(Equal(project))
			Expect(sessions[0].MemoriesCreated).To(Equal(4))
			Expect(sessions[0].Compactions).To(Equal(1))
		})
	})

	It("is a quiet no-op when nothing new was written", func() {
		h, dataDir, out := newHandler()
		path := filepath.Join(GinkgoT().TempDir(), "transcript.jsonl")
		writeTranscript(path, archiveFixture()...)

		in := &hook.Input{SessionID: "sess-1", TranscriptPath: path, CWD: project}
		Expect(h.PreCompact(ctx, in)).To(Succeed())
		out.Reset()

		Expect(h.PreCompact(ctx, in)).To(Succeed())
		Expect(out.Len()).To(BeZero(), "rerun on an unchanged transcript must not emit")

		withStore(dataDir, func(st *store.Store) {
			stats, err := st.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalMemories).To(Equal(4))

			sessions, err := st.AllSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions[0].Compactions).To(Equal(2))
		})
	})

	It("archives only lines past the checkpoint on later runs", func() {
		h, dataDir, out := newHandler()
		path := filepath.Join(GinkgoT().TempDir(), "transcript.jsonl")
		lines := archiveFixture()
		writeTranscript(path, lines...)

		in := &hook.Input{SessionID: "sess-1", TranscriptPath: path, CWD: project}
		Expect(h.PreCompact(ctx, in)).To(Succeed())
		out.Reset()

		lines = append(lines,
			userLine("Now please wire the cache layer into the service"),
			assistantLine("We should go with Redis for the cache layer"),
		)
		writeTranscript(path, lines...)

		Expect(h.PreCompact(ctx, in)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Archived 2 new memories"))

		withStore(dataDir, func(st *store.Store) {
			cp, err := st.GetCheckpoint("sess-1", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cp.LastLine).To(Equal(6))

			stats, err := st.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalMemories).To(Equal(6))
		})
	})

	It("rejects duplicate facts from another session by source hash", func() {
		h, dataDir, out := newHandler()
		dir := GinkgoT().TempDir()
		first := filepath.Join(dir, "one.jsonl")
		second := filepath.Join(dir, "two.jsonl")
		writeTranscript(first, archiveFixture()...)
		writeTranscript(second, archiveFixture()...)

		Expect(h.PreCompact(ctx, &hook.Input{
			SessionID: "sess-1", TranscriptPath: first, CWD: project,
		})).To(Succeed())
		out.Reset()

		Expect(h.PreCompact(ctx, &hook.Input{
			SessionID: "sess-2", TranscriptPath: second, CWD: project,
		})).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Archived 0 new memories"))
		withStore(dataDir, func(st *store.Store) {
			stats, err := st.Stats()
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalMemories).To(Equal(4))
		})
	})

	It("ignores incomplete input", func() {
		h, _, out := newHandler()

		Expect(h.PreCompact(ctx, nil)).To(Succeed())
		Expect(h.PreCompact(ctx, &hook.Input{SessionID: "s", CWD: project})).To(Succeed())
		Expect(h.PreCompact(ctx, &hook.Input{TranscriptPath: "/tmp/t.jsonl", CWD: project})).To(Succeed())
		Expect(h.PreCompact(ctx, &hook.Input{SessionID: "s", TranscriptPath: "/tmp/t.jsonl"})).To(Succeed())

		Expect(out.Len()).To(BeZero())
	})

	It("survives a missing transcript file", func() {
		h, _, out := newHandler()

		err := h.PreCompact(ctx, &hook.Input{
			SessionID:      "sess-1",
			TranscriptPath: filepath.Join(GinkgoT().TempDir(), "gone.jsonl"),
			CWD:            project,
		})
		Expect(err).To(HaveOccurred(), "the runtime logs and exits 0; the handler surfaces the cause")
		Expect(out.Len()).To(BeZero())
	})
})
