package extract_test

import (
	"context"
	"errors"
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/extract"
	"github.com/infinitecontext/infctx/pkg/llm"
	"github.com/infinitecontext/infctx/pkg/transcript"
)

// fixedCall returns a canned model response and records the prompt it saw.
func fixedCall(response string, err error) (llm.CallFunc, *string) {
	var prompt string
	return func(_ context.Context, p string) (string, error) {
		prompt = p
		return response, err
	}, &prompt
}

var _ = Describe("LLM extractor", func() {
	var (
		cfg   *config.Config
		turns []transcript.Turn
	)

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()

		t := userTurn("Please add retry logic to the fetcher")
		t.ToolCalls = []transcript.ToolCall{
			{Name: "Write", Input: map[string]any{"file_path": "fetch.go"}},
			{Name: "Bash", Input: map[string]any{"command": "npm install axios"}},
		}
		t.ToolResults = []transcript.ToolResult{{Content: "ETIMEDOUT", IsError: true}}
		t.AssistantMessages = []transcript.Message{{Role: "assistant", Text: "Added exponential backoff"}}
		turns = []transcript.Turn{t}
	})

	It("builds memories from the model's items", func() {
		call, _ := fixedCall(`[
			{"category":"decision","content":"Retries use exponential backoff with three attempts"},
			{"category":"file_change","content":"fetch.go gained a retry wrapper"}
		]`, nil)
		mems := extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "proj", "sess")

		Expect(mems).To(HaveLen(2))
		Expect(mems[0].Category).To(Equal(config.CategoryDecision))
		Expect(mems[0].Content).To(Equal("Retries use exponential backoff with three attempts"))
		Expect(mems[0].Keywords).To(ContainSubstring("backoff"))
		Expect(mems[0].Score).To(BeNumerically(">", 0.8))
		Expect(mems[0].SourceHash).To(Equal(extract.SourceHash(mems[0].Content)))
		Expect(mems[1].Category).To(Equal(config.CategoryFileChange))
		Expect(mems[1].Project).To(Equal("proj"))
		Expect(mems[1].SessionID).To(Equal("sess"))
	})

	It("shows the model the turn's activity", func() {
		call, prompt := fixedCall("[]", nil)
		extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(*prompt).To(ContainSubstring("User: Please add retry logic to the fetcher"))
		Expect(*prompt).To(ContainSubstring("[tool] Write fetch.go"))
		Expect(*prompt).To(ContainSubstring("[tool] Bash: npm install axios"))
		Expect(*prompt).To(ContainSubstring("[error] ETIMEDOUT"))
		Expect(*prompt).To(ContainSubstring("Assistant: Added exponential backoff"))
	})

	It("tolerates markdown fences around the array", func() {
		call, _ := fixedCall("```json\n[{\"category\":\"note\",\"content\":\"the api uses cursor pagination\"}]\n```", nil)
		mems := extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).To(HaveLen(1))
		Expect(mems[0].Content).To(Equal("the api uses cursor pagination"))
	})

	It("tolerates prose around the array", func() {
		call, _ := fixedCall(`Here is what I found: [{"category":"finding","content":"tests need a running postgres"}] Hope that helps!`, nil)
		mems := extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).To(HaveLen(1))
		Expect(mems[0].Category).To(Equal(config.CategoryFinding))
	})

	It("buckets unknown categories into note", func() {
		call, _ := fixedCall(`[{"category":"insight","content":"the cache is write-through"}]`, nil)
		mems := extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).To(HaveLen(1))
		Expect(mems[0].Category).To(Equal(config.CategoryNote))
	})

	It("drops items with blank content", func() {
		call, _ := fixedCall(`[{"category":"note","content":"  "},{"category":"note","content":"kept"}]`, nil)
		mems := extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).To(HaveLen(1))
		Expect(mems[0].Content).To(Equal("kept"))
	})

	It("caps the items taken from one response", func() {
		var sb strings.Builder
		sb.WriteString("[")
		for i := 0; i < 25; i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			fmt.Fprintf(&sb, `{"category":"note","content":"item %d"}`, i)
		}
		sb.WriteString("]")
		call, _ := fixedCall(sb.String(), nil)
		mems := extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).To(HaveLen(20))
	})

	It("falls back to rules when the call fails", func() {
		call, _ := fixedCall("", errors.New("connection refused"))
		mems := extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).NotTo(BeEmpty())
		Expect(mems[0].Content).To(Equal("Created/wrote file: fetch.go"))
	})

	It("falls back to rules when the response has no array", func() {
		call, _ := fixedCall("I could not find anything worth remembering.", nil)
		mems := extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).NotTo(BeEmpty())
		Expect(mems[0].Category).To(Equal(config.CategoryFileChange))
	})

	It("falls back to rules when the array does not decode", func() {
		call, _ := fixedCall(`[{"category":"note","content":}]`, nil)
		mems := extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).NotTo(BeEmpty())
		Expect(mems[0].Category).To(Equal(config.CategoryFileChange))
	})

	It("accepts an empty array as nothing to keep", func() {
		call, _ := fixedCall("[]", nil)

		Expect(extract.NewLLM(cfg, call, nil).Extract(context.Background(), turns, "p", "s")).To(BeEmpty())
	})

	It("does not call the model for no turns", func() {
		called := false
		call := llm.CallFunc(func(_ context.Context, _ string) (string, error) {
			called = true
			return "[]", nil
		})

		Expect(extract.NewLLM(cfg, call, nil).Extract(context.Background(), nil, "p", "s")).To(BeEmpty())
		Expect(called).To(BeFalse())
	})
})

var _ = Describe("Hybrid extractor", func() {
	var (
		cfg   *config.Config
		turns []transcript.Turn
	)

	BeforeEach(func() {
		cfg = config.NewDefaultConfig()
		turns = []transcript.Turn{toolTurn("Write", map[string]any{"file_path": "fetch.go"})}
	})

	It("uses the model's items when it finds some", func() {
		call, _ := fixedCall(`[{"category":"decision","content":"retry with exponential backoff"}]`, nil)
		mems := extract.NewHybrid(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).To(HaveLen(1))
		Expect(mems[0].Category).To(Equal(config.CategoryDecision))
	})

	It("reruns the rules when the model finds nothing", func() {
		call, _ := fixedCall("[]", nil)
		mems := extract.NewHybrid(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).To(HaveLen(1))
		Expect(mems[0].Content).To(Equal("Created/wrote file: fetch.go"))
	})

	It("falls back to rules when the call fails", func() {
		call, _ := fixedCall("", errors.New("boom"))
		mems := extract.NewHybrid(cfg, call, nil).Extract(context.Background(), turns, "p", "s")

		Expect(mems).To(HaveLen(1))
		Expect(mems[0].Category).To(Equal(config.CategoryFileChange))
	})
})

var _ = Describe("New", func() {
	It("returns the rule extractor for rules mode", func() {
		cfg := config.NewDefaultConfig()

		Expect(extract.New(cfg, nil, nil)).To(BeAssignableToTypeOf(&extract.Rules{}))
	})

	It("returns a model-backed extractor for llm mode", func() {
		cfg := config.NewDefaultConfig()
		cfg.Extraction.Mode = config.ModeLLM
		cfg.Extraction.Provider = llm.ProviderOllama

		Expect(extract.New(cfg, nil, nil)).NotTo(BeAssignableToTypeOf(&extract.Rules{}))
	})
})
