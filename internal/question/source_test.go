package question

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anand/mathdrill/internal/llm"
)

func textResponse(s string) llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(s)}
}

func TestGenerate_ParsesDelimitedPayload(t *testing.T) {
	mock := llm.NewMockProvider(
		textResponse("What is 3/4 + 1/8?|||7/8"),
	)
	src := NewSource(mock, DefaultConfig())

	q, err := src.Generate(context.Background(), Request{
		Topic: "Fractions", Grade: "Grade 6", Tier: TierEasy, Index: 1, Total: 25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text != "What is 3/4 + 1/8?" {
		t.Errorf("unexpected question text: %q", q.Text)
	}
	if q.ReferenceAnswer != "7/8" {
		t.Errorf("unexpected answer: %q", q.ReferenceAnswer)
	}
	if !q.Gradeable() {
		t.Error("expected question to be gradeable")
	}
	if q.Tier != TierEasy || q.Index != 1 {
		t.Errorf("request parameters not carried over: tier=%v index=%d", q.Tier, q.Index)
	}
}

func TestGenerate_TrimsWhitespaceAroundParts(t *testing.T) {
	mock := llm.NewMockProvider(
		textResponse("  What is 2+2?  |||  4  \n"),
	)
	src := NewSource(mock, DefaultConfig())

	q, err := src.Generate(context.Background(), Request{Topic: "Addition", Grade: "Grade 3", Tier: TierEasy, Index: 1, Total: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text != "What is 2+2?" || q.ReferenceAnswer != "4" {
		t.Errorf("whitespace not trimmed: %q / %q", q.Text, q.ReferenceAnswer)
	}
}

func TestGenerate_MissingDelimiterDegradesToUnparseable(t *testing.T) {
	mock := llm.NewMockProvider(
		textResponse("What is 5 squared? The answer is 25."),
	)
	src := NewSource(mock, DefaultConfig())

	q, err := src.Generate(context.Background(), Request{Topic: "Exponents", Grade: "Grade 7", Tier: TierMedium, Index: 9, Total: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text != "What is 5 squared? The answer is 25." {
		t.Errorf("expected whole reply as question text, got %q", q.Text)
	}
	if q.ReferenceAnswer != Unparseable {
		t.Errorf("expected unparseable sentinel, got %q", q.ReferenceAnswer)
	}
	if q.Gradeable() {
		t.Error("unparseable question must not be gradeable")
	}
}

func TestGenerate_EmptyAnswerDegradesToUnparseable(t *testing.T) {
	mock := llm.NewMockProvider(
		textResponse("What is 1+1?|||   "),
	)
	src := NewSource(mock, DefaultConfig())

	q, err := src.Generate(context.Background(), Request{Topic: "Addition", Grade: "Grade 3", Tier: TierEasy, Index: 2, Total: 25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.ReferenceAnswer != Unparseable {
		t.Errorf("expected unparseable sentinel, got %q", q.ReferenceAnswer)
	}
}

func TestGenerate_EmptyResponseIsError(t *testing.T) {
	mock := llm.NewMockProvider(textResponse("   "))
	src := NewSource(mock, DefaultConfig())

	_, err := src.Generate(context.Background(), Request{Topic: "Addition", Grade: "Grade 3", Tier: TierEasy, Index: 1, Total: 25})
	if err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestGenerate_ProviderErrorPropagates(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
	)
	src := NewSource(mock, DefaultConfig())

	_, err := src.Generate(context.Background(), Request{Topic: "Addition", Grade: "Grade 3", Tier: TierEasy, Index: 1, Total: 25})
	if err == nil {
		t.Fatal("expected error")
	}
	var unavail *llm.ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestSplitPayload(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantText   string
		wantAnswer string
	}{
		{"normal", "Q?|||A", "Q?", "A"},
		{"extra delimiters stay in answer", "Q?|||A|||B", "Q?", "A|||B"},
		{"no delimiter", "just a question", "just a question", Unparseable},
		{"delimiter first", "|||A", "", "A"},
		{"empty answer", "Q?|||", "Q?", Unparseable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, answer := splitPayload(tt.raw)
			if text != tt.wantText || answer != tt.wantAnswer {
				t.Errorf("splitPayload(%q) = (%q, %q), want (%q, %q)",
					tt.raw, text, answer, tt.wantText, tt.wantAnswer)
			}
		})
	}
}
