package question

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anand/mathdrill/internal/llm"
)

// QuizRequest asks for a whole multiple-choice quiz in one call.
// This is the batch path used by the quizgen command; the interactive
// drill generates one question at a time through Source.
type QuizRequest struct {
	Topic      string
	Grade      string
	Curriculum string // e.g. "IGCSE", "CBSE". Optional.
	Count      int

	// LearnerContext describes known weak areas, fed to the model so the
	// quiz leans toward them. Empty when no history exists.
	LearnerContext string
}

// QuizItem is one multiple-choice question in a generated quiz.
type QuizItem struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// QuizGenerator produces complete multiple-choice quizzes.
type QuizGenerator struct {
	provider llm.Provider
	config   Config
}

// NewQuizGenerator creates a QuizGenerator with the given provider.
func NewQuizGenerator(provider llm.Provider, cfg Config) *QuizGenerator {
	return &QuizGenerator{provider: provider, config: cfg}
}

// quizSchema is the structured-output contract for a quiz batch.
var quizSchema = &llm.Schema{
	Name:        "quiz-batch",
	Description: "A multiple-choice math quiz",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "Question text in plain ASCII",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Exactly 4 options, one correct",
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "The text of the correct option",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Brief worked solution",
						},
					},
					"required":             []any{"question", "options", "correct_answer", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}

const quizSystemPrompt = `You are an expert math tutor. Create a multiple-choice quiz for the given grade, curriculum, and topic.

Rules:
- Each question has exactly 4 options and exactly one correct answer.
- The correct_answer field must match one option verbatim.
- Distractors should reflect common mistakes, not random values.
- Use plain ASCII text for all math.
- If the student context lists weak areas, weight the quiz toward them.`

// Generate requests a quiz and returns its validated items.
func (g *QuizGenerator) Generate(ctx context.Context, req QuizRequest) ([]QuizItem, error) {
	ctx = llm.WithPurpose(ctx, "quiz-gen")

	resp, err := g.provider.Complete(ctx, llm.Request{
		System:      quizSystemPrompt,
		Prompt:      buildQuizPrompt(req),
		Schema:      quizSchema,
		MaxTokens:   g.config.MaxTokens * max(req.Count, 1),
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	var out struct {
		Questions []QuizItem `json:"questions"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse quiz response: %w", err)
	}

	for i, item := range out.Questions {
		if err := validateQuizItem(item); err != nil {
			return nil, fmt.Errorf("quiz question %d: %w", i+1, err)
		}
	}

	return out.Questions, nil
}

// buildQuizPrompt renders the user message for a quiz request.
func buildQuizPrompt(req QuizRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grade: %s\n", req.Grade)
	if req.Curriculum != "" {
		fmt.Fprintf(&b, "Curriculum: %s\n", req.Curriculum)
	}
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "Number of questions: %d\n", req.Count)
	if req.LearnerContext != "" {
		fmt.Fprintf(&b, "\nStudent context (previous weaknesses): %s\n", req.LearnerContext)
	}
	return b.String()
}

// validateQuizItem checks the structural rules the schema cannot express.
func validateQuizItem(item QuizItem) error {
	if len(item.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(item.Options))
	}
	for _, opt := range item.Options {
		if strings.TrimSpace(item.CorrectAnswer) == strings.TrimSpace(opt) {
			return nil
		}
	}
	return fmt.Errorf("correct_answer %q does not match any option", item.CorrectAnswer)
}
