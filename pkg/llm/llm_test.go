package llm_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/llm"
)

// clearKeyEnv blanks both provider env vars for the current spec so ambient
// developer keys cannot leak into resolution tests.
func clearKeyEnv() {
	GinkgoT().Setenv("ANTHROPIC_API_KEY", "")
	GinkgoT().Setenv("OPENAI_API_KEY", "")
}

var _ = Describe("NewCaller", func() {
	Describe("anthropic", func() {
		It("posts to /v1/messages with the versioned key header", func() {
			var gotPath, gotKey, gotVersion string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotKey = r.Header.Get("x-api-key")
				gotVersion = r.Header.Get("anthropic-version")
				w.Write([]byte(`{"content":[{"type":"text","text":"[{\"category\":\"note\",\"content\":\"x\"}]"}]}`))
			}))
			defer srv.Close()

			call, err := llm.NewCaller(llm.CallerConfig{
				Provider: llm.ProviderAnthropic,
				APIKey:   "sk-ant-test",
				BaseURL:  srv.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			out, err := call(context.Background(), "summarize")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("category"))
			Expect(gotPath).To(Equal("/v1/messages"))
			Expect(gotKey).To(Equal("sk-ant-test"))
			Expect(gotVersion).To(Equal("2023-06-01"))
		})

		It("surfaces non-200 responses as errors", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusTooManyRequests)
			}))
			defer srv.Close()

			call, err := llm.NewCaller(llm.CallerConfig{
				Provider: llm.ProviderAnthropic,
				APIKey:   "sk-ant-test",
				BaseURL:  srv.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = call(context.Background(), "summarize")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("429"))
		})

		It("errors on empty content", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"content":[]}`))
			}))
			defer srv.Close()

			call, err := llm.NewCaller(llm.CallerConfig{
				Provider: llm.ProviderAnthropic,
				APIKey:   "sk-ant-test",
				BaseURL:  srv.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = call(context.Background(), "summarize")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("openai", func() {
		It("posts to /v1/chat/completions with a bearer token and JSON mode", func() {
			var gotPath, gotAuth string
			var gotBody []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotAuth = r.Header.Get("Authorization")
				gotBody, _ = io.ReadAll(r.Body)
				w.Write([]byte(`{"choices":[{"message":{"content":"[]"}}]}`))
			}))
			defer srv.Close()

			call, err := llm.NewCaller(llm.CallerConfig{
				Provider: llm.ProviderOpenAI,
				APIKey:   "sk-oai-test",
				BaseURL:  srv.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			out, err := call(context.Background(), "summarize")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("[]"))
			Expect(gotPath).To(Equal("/v1/chat/completions"))
			Expect(gotAuth).To(Equal("Bearer sk-oai-test"))
			Expect(string(gotBody)).To(ContainSubstring(`"json_object"`))
		})
	})

	Describe("ollama", func() {
		It("posts to /api/chat requesting JSON format", func() {
			var gotPath string
			var gotBody []byte
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotBody, _ = io.ReadAll(r.Body)
				w.Write([]byte(`{"message":{"content":"[]"},"done":true}`))
			}))
			defer srv.Close()

			call, err := llm.NewCaller(llm.CallerConfig{
				Provider: llm.ProviderOllama,
				BaseURL:  srv.URL,
			})
			Expect(err).NotTo(HaveOccurred())

			out, err := call(context.Background(), "summarize")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal("[]"))
			Expect(gotPath).To(Equal("/api/chat"))
			Expect(string(gotBody)).To(ContainSubstring(`"format":"json"`))
		})
	})

	It("falls back to ollama when no key can be resolved", func() {
		clearKeyEnv()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/api/chat"))
			w.Write([]byte(`{"message":{"content":"ok"},"done":true}`))
		}))
		defer srv.Close()

		call, err := llm.NewCaller(llm.CallerConfig{
			Provider: llm.ProviderAnthropic,
			BaseURL:  srv.URL,
		})
		Expect(err).NotTo(HaveOccurred())

		out, err := call(context.Background(), "x")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("ok"))
	})

	It("rejects unknown providers", func() {
		_, err := llm.NewCaller(llm.CallerConfig{Provider: "psychic"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("HasCredentials", func() {
	It("accepts an explicit key", func() {
		Expect(llm.HasCredentials(llm.CallerConfig{APIKey: "sk-x"})).To(BeTrue())
	})

	It("always accepts ollama", func() {
		clearKeyEnv()
		Expect(llm.HasCredentials(llm.CallerConfig{Provider: llm.ProviderOllama})).To(BeTrue())
	})

	It("reads provider env vars", func() {
		clearKeyEnv()
		GinkgoT().Setenv("ANTHROPIC_API_KEY", "sk-env")
		Expect(llm.HasCredentials(llm.CallerConfig{Provider: llm.ProviderAnthropic})).To(BeTrue())
	})

	It("reports false with nothing resolvable", func() {
		clearKeyEnv()
		Expect(llm.HasCredentials(llm.CallerConfig{Provider: llm.ProviderAnthropic})).To(BeFalse())
	})
})

var _ = Describe("DetectProvider", func() {
	It("prefers anthropic when its key is present", func() {
		clearKeyEnv()
		GinkgoT().Setenv("ANTHROPIC_API_KEY", "sk-a")
		GinkgoT().Setenv("OPENAI_API_KEY", "sk-o")
		Expect(llm.DetectProvider(nil)).To(Equal(llm.ProviderAnthropic))
	})

	It("falls through to openai", func() {
		clearKeyEnv()
		GinkgoT().Setenv("OPENAI_API_KEY", "sk-o")
		Expect(llm.DetectProvider(nil)).To(Equal(llm.ProviderOpenAI))
	})

	It("defaults to ollama with no keys anywhere", func() {
		clearKeyEnv()
		Expect(llm.DetectProvider(nil)).To(Equal(llm.ProviderOllama))
	})
})
