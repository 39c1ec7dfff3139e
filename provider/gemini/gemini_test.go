package gemini_provider

import (
	"context"
	"testing"

	"google.golang.org/genai"
)

func TestResponseText(t *testing.T) {
	t.Parallel()
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Permits "}, nil, {Text: "cost $200."}}},
		}},
	}
	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("responseText: %v", err)
	}
	if got != "Permits cost $200." {
		t.Fatalf("responseText() = %q", got)
	}
	if _, err := responseText(&genai.GenerateContentResponse{}); err == nil {
		t.Fatalf("expected error for empty response")
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	t.Parallel()
	if _, err := NewGeminiClient(context.Background(), "", "", "", 0, 0, 0); err == nil {
		t.Fatalf("expected error without api key")
	}
}
