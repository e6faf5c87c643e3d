package store_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/store"
)

var _ = Describe("Sessions", func() {
	var s *store.Store

	BeforeEach(func() {
		s = newStore()
	})

	find := func(sessionID string) *store.Session {
		all, err := s.AllSessions()
		Expect(err).NotTo(HaveOccurred())
		for i := range all {
			if all[i].SessionID == sessionID {
				return &all[i]
			}
		}
		return nil
	}

	It("creates a session on first upsert", func() {
		started := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
		Expect(s.UpsertSession("sess", "/home/dev/proj", started)).To(Succeed())

		sess := find("sess")
		Expect(sess).NotTo(BeNil())
		Expect(sess.Project).To(Equal("/home/dev/proj"))
		Expect(sess.StartedAt).To(Equal(started))
		Expect(sess.EndedAt).To(BeNil())
		Expect(sess.MemoriesCreated).To(BeZero())
		Expect(sess.Compactions).To(BeZero())
	})

	It("updates the project but keeps the original start on repeat upserts", func() {
		started := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
		Expect(s.UpsertSession("sess", "/old/path", started)).To(Succeed())
		Expect(s.UpsertSession("sess", "/new/path", started.Add(time.Hour))).To(Succeed())

		all, err := s.AllSessions()
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].Project).To(Equal("/new/path"))
		Expect(all[0].StartedAt).To(Equal(started))
	})

	It("accumulates memory and compaction counters", func() {
		Expect(s.UpsertSession("sess", "proj", time.Now())).To(Succeed())

		Expect(s.IncrSessionMemories("sess", 4)).To(Succeed())
		Expect(s.IncrSessionMemories("sess", 3)).To(Succeed())
		Expect(s.IncrSessionMemories("sess", 0)).To(Succeed())
		Expect(s.IncrSessionCompactions("sess")).To(Succeed())

		sess := find("sess")
		Expect(sess.MemoriesCreated).To(Equal(7))
		Expect(sess.Compactions).To(Equal(1))
	})

	It("tolerates counters for unknown sessions", func() {
		Expect(s.IncrSessionMemories("ghost", 2)).To(Succeed())
		Expect(s.IncrSessionCompactions("ghost")).To(Succeed())
	})

	It("marks a session ended", func() {
		Expect(s.UpsertSession("sess", "proj", time.Now())).To(Succeed())
		ended := time.Date(2026, 2, 10, 17, 30, 0, 0, time.UTC)

		Expect(s.EndSession("sess", ended)).To(Succeed())

		sess := find("sess")
		Expect(sess.EndedAt).NotTo(BeNil())
		Expect(*sess.EndedAt).To(Equal(ended))
	})

	It("lists sessions newest first", func() {
		base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		Expect(s.UpsertSession("oldest", "p", base)).To(Succeed())
		Expect(s.UpsertSession("newest", "p", base.Add(48*time.Hour))).To(Succeed())
		Expect(s.UpsertSession("middle", "p", base.Add(24*time.Hour))).To(Succeed())

		all, err := s.AllSessions()
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(3))
		Expect(all[0].SessionID).To(Equal("newest"))
		Expect(all[1].SessionID).To(Equal("middle"))
		Expect(all[2].SessionID).To(Equal("oldest"))
	})
})
