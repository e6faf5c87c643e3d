package backfill_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/backfill"
	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/store"
)

func userLine(sessionID, cwd, text string) string {
	return fmt.Sprintf(
		`{"type":"user","sessionId":%q,"cwd":%q,"timestamp":"2026-05-01T10:00:00.000Z","message":{"role":"user","content":%q}}`,
		sessionID, cwd, text)
}

func assistantLine(sessionID, cwd, text string) string {
	return fmt.Sprintf(
		`{"type":"assistant","sessionId":%q,"cwd":%q,"timestamp":"2026-05-01T10:00:05.000Z","message":{"role":"assistant","content":%q}}`,
		sessionID, cwd, text)
}

func writeTranscript(dir, name string, lines ...string) string {
	path := filepath.Join(dir, name)
	ExpectWithOffset(1, os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return path
}

// billingFixture yields two memories per file: the decision line and the
// user-request note.
func billingFixture(sessionID, cwd string) []string {
	return []string{
		userLine(sessionID, cwd, "Please add postgres persistence to the billing service"),
		assistantLine(sessionID, cwd, "We should go with PostgreSQL for persistence"),
	}
}

var _ = Describe("ScanTranscriptDir", func() {
	It("finds JSONL files in nested directories", func() {
		tmpDir := GinkgoT().TempDir()

		subDir := filepath.Join(tmpDir, "-home-dev-billing")
		Expect(os.MkdirAll(subDir, 0o755)).To(Succeed())

		writeTranscript(tmpDir, "sess-a.jsonl", "{}")
		writeTranscript(subDir, "sess-b.jsonl", "{}")
		Expect(os.WriteFile(filepath.Join(tmpDir, "readme.txt"), []byte("not a transcript"), 0o644)).To(Succeed())

		files, err := backfill.ScanTranscriptDir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(HaveLen(2))
	})

	It("returns empty for a directory with no JSONL files", func() {
		files, err := backfill.ScanTranscriptDir(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		Expect(files).To(BeEmpty())
	})
})

var _ = Describe("Backfiller", func() {
	var (
		dataDir   string
		claudeDir string
	)

	BeforeEach(func() {
		dataDir = GinkgoT().TempDir()
		claudeDir = GinkgoT().TempDir()
		DeferCleanup(config.Reset)
	})

	run := func(opts backfill.Options) *backfill.Result {
		b, cleanup, err := backfill.NewBackfiller(dataDir, opts)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		defer func() { _ = cleanup() }()

		result, err := b.Run(context.Background(), claudeDir)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return result
	}

	withStore := func(fn func(st *store.Store)) {
		st, err := store.Open(filepath.Join(dataDir, dotdir.DBFile))
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		defer st.Close()
		fn(st)
	}

	It("archives transcripts attributed to their recorded projects", func() {
		pathA := writeTranscript(claudeDir, "-home-dev-billing/sess-a.jsonl",
			billingFixture("sess-a", "/home/dev/billing")...)
		writeTranscript(claudeDir, "-home-dev-search/sess-b.jsonl",
			userLine("sess-b", "/home/dev/search", "Please wire the ranking layer into the query service"),
			assistantLine("sess-b", "/home/dev/search", "We should go with a two-stage ranking approach"),
		)

		result := run(backfill.Options{})
		Expect(result.FilesScanned).To(Equal(2))
		Expect(result.FilesArchived).To(Equal(2))
		Expect(result.FilesSkipped).To(BeZero())
		Expect(result.MemoriesCreated).To(Equal(4))
		Expect(result.Projects).To(Equal(2))

		withStore(func(st *store.Store) {
			billing, err := st.ListMemories(store.ListOptions{Project: "/home/dev/billing"})
			Expect(err).NotTo(HaveOccurred())
			Expect(billing.Total).To(Equal(2))

			sessions, err := st.AllSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(2))

			cp, err := st.GetCheckpoint("sess-a", pathA)
			Expect(err).NotTo(HaveOccurred())
			Expect(cp).NotTo(BeNil())
			Expect(cp.LastLine).To(Equal(2))
		})
	})

	It("only consumes new lines on rerun", func() {
		writeTranscript(claudeDir, "-home-dev-billing/sess-a.jsonl",
			billingFixture("sess-a", "/home/dev/billing")...)

		first := run(backfill.Options{})
		Expect(first.FilesArchived).To(Equal(1))

		second := run(backfill.Options{})
		Expect(second.FilesArchived).To(BeZero())
		Expect(second.FilesUpToDate).To(Equal(1))
		Expect(second.MemoriesCreated).To(BeZero())

		withStore(func(st *store.Store) {
			all, err := st.ListMemories(store.ListOptions{Project: "/home/dev/billing"})
			Expect(err).NotTo(HaveOccurred())
			Expect(all.Total).To(Equal(2))
		})
	})

	It("produces the same counts when archiving with extra workers", func() {
		topics := []string{"parquet", "avro", "arrow", "orc", "ndjson", "protobuf"}
		for i, topic := range topics {
			project := fmt.Sprintf("/home/dev/etl-%d", i%3)
			session := "sess-" + topic
			writeTranscript(claudeDir, filepath.Join(fmt.Sprintf("-home-dev-etl-%d", i%3), session+".jsonl"),
				userLine(session, project, "Please wire the "+topic+" reader into the ingest service"),
				assistantLine(session, project, "We should go with a buffered "+topic+" pipeline"),
			)
		}

		result := run(backfill.Options{Workers: 4})
		Expect(result.FilesScanned).To(Equal(6))
		Expect(result.FilesArchived).To(Equal(6))
		Expect(result.FilesSkipped).To(BeZero())
		Expect(result.MemoriesCreated).To(Equal(12))
		Expect(result.Projects).To(Equal(3))

		withStore(func(st *store.Store) {
			all, err := st.ListMemories(store.ListOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all.Total).To(Equal(12))

			sessions, err := st.AllSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(6))
		})
	})

	It("previews without writing in dry-run mode", func() {
		path := writeTranscript(claudeDir, "-home-dev-billing/sess-a.jsonl",
			billingFixture("sess-a", "/home/dev/billing")...)

		result := run(backfill.Options{DryRun: true})
		Expect(result.FilesArchived).To(Equal(1))
		Expect(result.MemoriesCreated).To(Equal(2))

		withStore(func(st *store.Store) {
			all, err := st.ListMemories(store.ListOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all.Total).To(BeZero())

			sessions, err := st.AllSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(BeEmpty())

			cp, err := st.GetCheckpoint("sess-a", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cp).To(BeNil())
		})
	})

	It("restricts the run to one project when asked", func() {
		writeTranscript(claudeDir, "-home-dev-billing/sess-a.jsonl",
			billingFixture("sess-a", "/home/dev/billing")...)
		writeTranscript(claudeDir, "-home-dev-search/sess-b.jsonl",
			billingFixture("sess-b", "/home/dev/search")...)

		result := run(backfill.Options{Project: "/home/dev/billing"})
		Expect(result.FilesArchived).To(Equal(1))
		Expect(result.FilesSkipped).To(Equal(1))

		withStore(func(st *store.Store) {
			other, err := st.ListMemories(store.ListOptions{Project: "/home/dev/search"})
			Expect(err).NotTo(HaveOccurred())
			Expect(other.Total).To(BeZero())
		})
	})

	It("skips transcripts with no recorded project", func() {
		writeTranscript(claudeDir, "orphan.jsonl",
			`{"type":"user","message":{"role":"user","content":"Please add postgres persistence here"}}`,
		)

		result := run(backfill.Options{})
		Expect(result.FilesSkipped).To(Equal(1))
		Expect(result.FilesArchived).To(BeZero())

		withStore(func(st *store.Store) {
			all, err := st.ListMemories(store.ListOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all.Total).To(BeZero())
		})
	})

	It("aborts without writing when the context is already canceled", func() {
		writeTranscript(claudeDir, "-home-dev-billing/sess-a.jsonl",
			billingFixture("sess-a", "/home/dev/billing")...)

		b, cleanup, err := backfill.NewBackfiller(dataDir, backfill.Options{})
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, runErr := b.Run(ctx, claudeDir)
		Expect(cleanup()).To(Succeed())
		Expect(runErr).To(MatchError(context.Canceled))

		withStore(func(st *store.Store) {
			all, err := st.ListMemories(store.ListOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(all.Total).To(BeZero())
		})
	})

	It("falls back to a file-derived session key when the transcript has none", func() {
		writeTranscript(claudeDir, "legacy-session.jsonl",
			userLine("", "/home/dev/billing", "Please add postgres persistence to the billing service"),
			assistantLine("", "/home/dev/billing", "We should go with PostgreSQL for persistence"),
		)

		result := run(backfill.Options{})
		Expect(result.FilesArchived).To(Equal(1))

		withStore(func(st *store.Store) {
			sessions, err := st.AllSessions()
			Expect(err).NotTo(HaveOccurred())
			Expect(sessions).To(HaveLen(1))
			Expect(sessions[0].SessionID).To(Equal("backfill:legacy-session"))
			Expect(sessions[0].Project).To(Equal("/home/dev/billing"))
		})
	})
})

var _ = Describe("Result", func() {
	It("formats a summary string", func() {
		r := &backfill.Result{
			FilesScanned:    12,
			FilesArchived:   9,
			FilesUpToDate:   2,
			FilesSkipped:    1,
			Projects:        3,
			MemoriesCreated: 47,
		}

		summary := r.Summary()
		Expect(summary).To(ContainSubstring("47 new memories"))
		Expect(summary).To(ContainSubstring("3 projects"))
		Expect(summary).To(ContainSubstring("12 transcript files"))
		Expect(summary).To(ContainSubstring("9 archived"))
		Expect(summary).To(ContainSubstring("2 up to date"))
		Expect(summary).To(ContainSubstring("1 skipped"))
	})
})
