package scoring_test

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/scoring"
)

var _ = Describe("ExtractKeywords", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
	})

	It("lowercases and keeps meaningful tokens", func() {
		got := scoring.ExtractKeywords(cfg, "The Database Connection failed")
		Expect(got).To(Equal("database connection failed"))
	})

	It("treats punctuation as separators but keeps path characters", func() {
		got := scoring.ExtractKeywords(cfg, "Edited src/user-service.go, restarted!")
		Expect(got).To(Equal("edited src/user-service.go restarted"))
	})

	It("drops tokens of two characters or fewer", func() {
		got := scoring.ExtractKeywords(cfg, "go is ok")
		Expect(got).To(Equal(""))
	})

	It("drops stopwords", func() {
		got := scoring.ExtractKeywords(cfg, "this should use the database")
		Expect(got).To(Equal("database"))
	})

	It("deduplicates preserving first position", func() {
		got := scoring.ExtractKeywords(cfg, "retry retry retry logic retry")
		Expect(got).To(Equal("retry logic"))
	})

	It("caps output at thirty keywords", func() {
		var sb strings.Builder
		for i := 0; i < 50; i++ {
			fmt.Fprintf(&sb, "token%02d ", i)
		}
		got := scoring.ExtractKeywords(cfg, sb.String())
		Expect(strings.Fields(got)).To(HaveLen(30))
		Expect(strings.Fields(got)[0]).To(Equal("token00"))
		Expect(strings.Fields(got)[29]).To(Equal("token29"))
	})

	It("preserves Cyrillic tokens", func() {
		got := scoring.ExtractKeywords(cfg, "Ошибка подключения к базе")
		Expect(got).To(Equal("ошибка подключения базе"))
	})

	It("measures token length in runes, not bytes", func() {
		// Two Cyrillic letters are four bytes but still a two-rune token.
		got := scoring.ExtractKeywords(cfg, "до свидания")
		Expect(got).To(Equal("свидания"))
	})

	It("splits on embedded apostrophes", func() {
		got := scoring.ExtractKeywords(cfg, "don't panic")
		Expect(got).To(Equal("don panic"))
	})

	It("returns empty for empty input", func() {
		Expect(scoring.ExtractKeywords(cfg, "")).To(Equal(""))
	})

	It("honors a custom stopword set", func() {
		cfg.Stopwords = []string{"database"}
		got := scoring.ExtractKeywords(cfg, "the database connection")
		Expect(got).To(Equal("the connection"))
	})
})
