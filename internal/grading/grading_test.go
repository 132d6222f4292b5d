package grading

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/anand/mathdrill/internal/llm"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Verdict
	}{
		{"plain correct", "CORRECT", VerdictCorrect},
		{"plain incorrect", "INCORRECT", VerdictIncorrect},
		{"lowercase", "correct", VerdictCorrect},
		{"chatty correct", "The answer is CORRECT.", VerdictCorrect},
		{"chatty incorrect", "The answer is INCORRECT because 3/4 != 0.5", VerdictIncorrect},
		{"incorrect wins over embedded correct", "INCORRECT. The correct answer was 7.", VerdictIncorrect},
		{"neither token", "MAYBE", VerdictIncorrect},
		{"empty", "", VerdictIncorrect},
		{"whitespace", "  \n ", VerdictIncorrect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseVerdict(tt.raw); got != tt.want {
				t.Errorf("ParseVerdict(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestGrade_BuildsPromptAndParses(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage("CORRECT")},
	)
	oracle := NewOracle(mock)

	v, err := oracle.Grade(context.Background(), "What is 1/2 as a decimal?", "0.5", "1/2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != VerdictCorrect {
		t.Errorf("expected correct, got %v", v)
	}

	if len(mock.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(mock.Calls))
	}
	prompt := mock.Calls[0].Prompt
	for _, want := range []string{"What is 1/2 as a decimal?", "0.5", "1/2"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGrade_ProviderErrorDefaultsIncorrect(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
	)
	oracle := NewOracle(mock)

	v, err := oracle.Grade(context.Background(), "Q", "A", "B")
	if err == nil {
		t.Fatal("expected error")
	}
	if v != VerdictIncorrect {
		t.Errorf("failed grading must report incorrect, got %v", v)
	}
}
