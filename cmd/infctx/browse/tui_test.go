package browsecmder

import (
	"path/filepath"

	bubbletea "github.com/charmbracelet/bubbletea"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/store"
)

// drive feeds messages through Update, executing any returned command and
// feeding its message back in, until the model settles. Mirrors what the
// bubbletea runtime does, minus the terminal.
func drive(m browseModel, msgs ...bubbletea.Msg) browseModel {
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = next.(browseModel)
		for cmd != nil {
			out := cmd()
			next, cmd = m.Update(out)
			m = next.(browseModel)
		}
	}
	return m
}

func runeKey(s string) bubbletea.KeyMsg {
	return bubbletea.KeyMsg{Type: bubbletea.KeyRunes, Runes: []rune(s)}
}

var _ = Describe("Browse TUI", func() {
	var (
		st    *store.Store
		model browseModel
	)

	seed := func(category, content, keywords string, score float64) int64 {
		id, err := st.InsertMemory(&store.Memory{
			Project:  "/home/dev/billing",
			Category: category,
			Content:  content,
			Keywords: keywords,
			Score:    score,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).NotTo(BeZero())
		return id
	}

	BeforeEach(func() {
		var err error
		st, err = store.Open(filepath.Join(GinkgoT().TempDir(), dotdir.DBFile))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { Expect(st.Close()).To(Succeed()) })

		seed("architecture", "Billing lives behind a queue so invoice writes never block checkout", "billing queue invoice", 0.9)
		seed("decision", "Retry stripe webhooks with exponential backoff", "stripe webhooks retry backoff", 0.8)
		seed("note", "The staging database resets every night", "staging database resets", 0.3)

		model = newBrowseModel(st, "")
		result, err := st.ListMemories(model.listOptions())
		Expect(err).NotTo(HaveOccurred())
		model.memories = result.Memories
		model.total = result.Total
	})

	Describe("cursor movement", func() {
		It("moves down and up and clamps at both ends", func() {
			m := drive(model, runeKey("j"), runeKey("j"))
			Expect(m.cursor).To(Equal(2))

			m = drive(m, runeKey("j"), runeKey("j"))
			Expect(m.cursor).To(Equal(2))

			m = drive(m, runeKey("k"), runeKey("k"), runeKey("k"), runeKey("k"))
			Expect(m.cursor).To(Equal(0))
		})
	})

	Describe("detail view", func() {
		It("opens on enter and closes on esc", func() {
			m := drive(model, bubbletea.KeyMsg{Type: bubbletea.KeyEnter})
			Expect(m.view).To(Equal(viewDetail))
			Expect(m.detail).To(ContainSubstring(m.memories[0].Project))

			m = drive(m, bubbletea.KeyMsg{Type: bubbletea.KeyEsc})
			Expect(m.view).To(Equal(viewList))
		})

		It("follows the cursor while open", func() {
			m := drive(model, bubbletea.KeyMsg{Type: bubbletea.KeyEnter})
			first := m.detail
			m = drive(m, runeKey("j"))
			Expect(m.view).To(Equal(viewDetail))
			Expect(m.detail).NotTo(Equal(first))
		})
	})

	Describe("live filter", func() {
		It("narrows the list as the query is typed", func() {
			m := drive(model, runeKey("/"))
			Expect(m.filtering).To(BeTrue())

			m = drive(m, runeKey("s"), runeKey("t"), runeKey("r"), runeKey("i"), runeKey("p"), runeKey("e"))
			Expect(m.filter).To(Equal("stripe"))
			Expect(m.memories).To(HaveLen(1))
			Expect(m.memories[0].Content).To(ContainSubstring("stripe"))
		})

		It("commits on enter and clears on esc from the list", func() {
			m := drive(model, runeKey("/"), runeKey("stripe"), bubbletea.KeyMsg{Type: bubbletea.KeyEnter})
			Expect(m.filtering).To(BeFalse())
			Expect(m.memories).To(HaveLen(1))

			m = drive(m, bubbletea.KeyMsg{Type: bubbletea.KeyEsc})
			Expect(m.filter).To(BeEmpty())
			Expect(m.memories).To(HaveLen(3))
		})

		It("abandons the query on esc while typing", func() {
			m := drive(model, runeKey("/"), runeKey("stripe"), bubbletea.KeyMsg{Type: bubbletea.KeyEsc})
			Expect(m.filtering).To(BeFalse())
			Expect(m.filter).To(BeEmpty())
			Expect(m.memories).To(HaveLen(3))
		})

		It("deletes trailing runes on backspace", func() {
			m := drive(model, runeKey("/"), runeKey("sx"), bubbletea.KeyMsg{Type: bubbletea.KeyBackspace})
			Expect(m.filter).To(Equal("s"))
		})
	})

	Describe("delete confirmation", func() {
		It("deletes the selected memory after y", func() {
			target := model.memories[0].ID

			m := drive(model, runeKey("d"))
			Expect(m.confirming).To(BeTrue())
			Expect(m.viewStatusLine()).To(ContainSubstring("delete memory"))

			m = drive(m, runeKey("y"))
			Expect(m.confirming).To(BeFalse())
			Expect(m.memories).To(HaveLen(2))
			Expect(m.status).To(ContainSubstring("deleted memory"))

			gone, err := st.GetMemory(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(gone).To(BeNil())
		})

		It("cancels on any other key", func() {
			m := drive(model, runeKey("d"), runeKey("x"))
			Expect(m.confirming).To(BeFalse())
			Expect(m.memories).To(HaveLen(3))
		})
	})

	Describe("sort and category cycling", func() {
		It("cycles to score order and surfaces the strongest memory first", func() {
			m := drive(model, runeKey("s"))
			Expect(browseSorts[m.sortIndex]).To(Equal("score"))
			Expect(m.memories[0].Score).To(BeNumerically("==", 0.9))
		})

		It("cycles category filters", func() {
			m := drive(model, runeKey("c"))
			Expect(browseCategories[m.categoryIndex]).To(Equal("architecture"))
			Expect(m.memories).To(HaveLen(1))
			Expect(m.memories[0].Category).To(Equal("architecture"))

			for range len(browseCategories) - 1 {
				m = drive(m, runeKey("c"))
			}
			Expect(browseCategories[m.categoryIndex]).To(BeEmpty())
			Expect(m.memories).To(HaveLen(3))
		})
	})
})

var _ = Describe("renderMemoryDetail", func() {
	It("includes the record fields", func() {
		out := renderMemoryDetail(store.Memory{
			ID:       7,
			Project:  "/home/dev/acme",
			Category: "decision",
			Content:  "Use UUID primary keys",
			Keywords: "uuid primary keys",
		})
		Expect(out).To(ContainSubstring("#7"))
		Expect(out).To(ContainSubstring("/home/dev/acme"))
		Expect(out).To(ContainSubstring("uuid primary keys"))
		Expect(out).NotTo(ContainSubstring("source"))
	})

	It("shows the source hash only when present", func() {
		out := renderMemoryDetail(store.Memory{ID: 8, Content: "x", SourceHash: "a1b2c3d4e5f60718"})
		Expect(out).To(ContainSubstring("a1b2c3d4e5f60718"))
	})
})

var _ = Describe("visibleRange", func() {
	It("returns everything when it fits", func() {
		start, end := visibleRange(3, 0, 10)
		Expect(start).To(Equal(0))
		Expect(end).To(Equal(3))
	})

	It("centers the cursor in the window", func() {
		start, end := visibleRange(20, 10, 6)
		Expect(start).To(Equal(7))
		Expect(end).To(Equal(13))
	})

	It("clamps to the start", func() {
		start, end := visibleRange(20, 0, 6)
		Expect(start).To(Equal(0))
		Expect(end).To(Equal(6))
	})

	It("clamps to the end", func() {
		start, end := visibleRange(20, 19, 6)
		Expect(start).To(Equal(14))
		Expect(end).To(Equal(20))
	})
})

var _ = Describe("NewBrowseCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := NewBrowseCmd()
		Expect(cmd.Use).To(Equal("browse"))
	})

	It("rejects positional arguments", func() {
		cmd := NewBrowseCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("registers the project flag", func() {
		cmd := NewBrowseCmd()
		Expect(cmd.Flags().Lookup("project")).NotTo(BeNil())
	})
})
