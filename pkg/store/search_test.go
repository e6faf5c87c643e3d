package store_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/store"
)

var _ = Describe("Search", func() {
	var s *store.Store

	insert := func(project, content, keywords string) {
		m := mem(project, "note", content)
		m.Keywords = keywords
		_, err := s.InsertMemory(&m)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		s = newStore()
	})

	It("matches words in content", func() {
		insert("proj", "switched the queue to rabbitmq", "")

		hits, err := s.Search("rabbitmq", "", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(1))
		Expect(hits[0].Content).To(ContainSubstring("rabbitmq"))
	})

	It("matches words in keywords", func() {
		insert("proj", "see the attached diagram", "architecture diagram payments")

		hits, err := s.Search("payments", "", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(1))
	})

	It("restricts to a project when given", func() {
		insert("proj-a", "redis cache added", "")
		insert("proj-b", "redis cluster removed", "")

		hits, err := s.Search("redis", "proj-a", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(1))
		Expect(hits[0].Project).To(Equal("proj-a"))

		all, err := s.Search("redis", "", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(2))
	})

	It("ranks stronger matches first", func() {
		insert("proj", "docker docker docker", "")
		insert("proj", "docker appears once in a much longer line about other concerns entirely", "")

		hits, err := s.Search("docker", "", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(2))
		Expect(hits[0].Content).To(Equal("docker docker docker"))
	})

	It("honors the limit", func() {
		for i := 0; i < 5; i++ {
			insert("proj", "kubernetes rollout note", "")
		}

		hits, err := s.Search("kubernetes", "", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(2))
	})

	It("returns empty for queries that sanitize to nothing", func() {
		insert("proj", "something searchable", "")

		for _, q := range []string{"", "   ", "a b c", "() [] {}"} {
			hits, err := s.Search(q, "", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(hits).To(BeEmpty(), q)
		}
	})

	It("survives quotes and index operators in queries", func() {
		insert("proj", `He said "hello" to the world`, "")

		for _, q := range []string{
			`he said "hello"`,
			`"unbalanced`,
			"react AND frontend",
			"NOT react",
			"content:react",
		} {
			_, err := s.Search(q, "", 10)
			Expect(err).NotTo(HaveOccurred(), q)
		}

		hits, err := s.Search("hello world", "", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(HaveLen(1))
	})

	It("drops index entries alongside their memories", func() {
		m := mem("proj", "note", "ephemeral elasticsearch note")
		_, err := s.InsertMemory(&m)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.DeleteMemory(m.ID)).To(Succeed())

		hits, err := s.Search("elasticsearch", "", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits).To(BeEmpty())
	})
})
