package enrich_test

import (
	"context"
	"strings"
	"testing"

	"quill/internal/enrich"
)

type stubCompleter struct {
	response string
	calls    int
}

func (s *stubCompleter) Complete(context.Context, string, string) (string, error) {
	s.calls++
	return s.response, nil
}

func TestLLMSummarizerSkipsShortInput(t *testing.T) {
	client := &stubCompleter{response: "never"}
	summarizer := enrich.NewLLMSummarizer(client, 100, 3)

	summary, err := summarizer.Summarize(context.Background(), "just a few words")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != "" || client.calls != 0 {
		t.Fatalf("summary = %q calls = %d", summary, client.calls)
	}
}

func TestLLMSummarizerSummarizesLongInput(t *testing.T) {
	client := &stubCompleter{response: "  A concise summary.  "}
	summarizer := enrich.NewLLMSummarizer(client, 10, 3)

	long := strings.Repeat("word ", 50)
	summary, err := summarizer.Summarize(context.Background(), long)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary != "A concise summary." {
		t.Fatalf("summary = %q", summary)
	}
	if client.calls != 1 {
		t.Fatalf("calls = %d", client.calls)
	}
}
