package question

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/anand/mathdrill/internal/llm"
)

func quizJSON(items string) llm.MockResponse {
	return llm.MockResponse{Content: json.RawMessage(`{"questions":[` + items + `]}`)}
}

const validItem = `{
	"question": "What is 1/2 + 1/4?",
	"options": ["1/4", "2/6", "3/4", "1/8"],
	"correct_answer": "3/4",
	"explanation": "Common denominator 4: 2/4 + 1/4 = 3/4."
}`

func TestQuizGenerate_ReturnsValidatedItems(t *testing.T) {
	mock := llm.NewMockProvider(quizJSON(validItem + "," + validItem))
	gen := NewQuizGenerator(mock, DefaultConfig())

	items, err := gen.Generate(context.Background(), QuizRequest{
		Topic: "Fractions", Grade: "Grade 6", Count: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].CorrectAnswer != "3/4" {
		t.Errorf("unexpected correct answer: %q", items[0].CorrectAnswer)
	}

	// The request must carry the structured-output schema.
	if len(mock.Calls) != 1 || mock.Calls[0].Schema == nil {
		t.Fatal("expected a schema-bearing request")
	}
	if mock.Calls[0].Schema.Name != "quiz-batch" {
		t.Errorf("unexpected schema name: %q", mock.Calls[0].Schema.Name)
	}
}

func TestQuizGenerate_RejectsWrongOptionCount(t *testing.T) {
	bad := `{
		"question": "Pick one",
		"options": ["a", "b"],
		"correct_answer": "a",
		"explanation": "x"
	}`
	mock := llm.NewMockProvider(quizJSON(bad))
	gen := NewQuizGenerator(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), QuizRequest{Topic: "T", Grade: "G", Count: 1})
	if err == nil {
		t.Fatal("expected error for 2-option item")
	}
}

func TestQuizGenerate_RejectsAnswerNotInOptions(t *testing.T) {
	bad := `{
		"question": "Pick one",
		"options": ["a", "b", "c", "d"],
		"correct_answer": "e",
		"explanation": "x"
	}`
	mock := llm.NewMockProvider(quizJSON(bad))
	gen := NewQuizGenerator(mock, DefaultConfig())

	_, err := gen.Generate(context.Background(), QuizRequest{Topic: "T", Grade: "G", Count: 1})
	if err == nil {
		t.Fatal("expected error for answer not matching any option")
	}
}

func TestBuildQuizPrompt_IncludesLearnerContext(t *testing.T) {
	p := buildQuizPrompt(QuizRequest{
		Topic:          "Decimals",
		Grade:          "Grade 5",
		Curriculum:     "CBSE",
		Count:          5,
		LearnerContext: "struggling with place value",
	})
	for _, want := range []string{"Decimals", "Grade 5", "CBSE", "place value"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}
