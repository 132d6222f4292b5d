package question

import (
	"context"
	"fmt"
	"strings"

	"github.com/anand/mathdrill/internal/llm"
)

// Delimiter separates the question text from the reference answer in the
// model's reply. The provider is instructed to emit exactly one.
const Delimiter = "|||"

// Request carries the generation parameters for a single question.
type Request struct {
	Topic string
	Grade string
	Tier  Tier
	Index int // 1-based position in the drill
	Total int // drill length
}

// Source produces a question for the given parameters.
type Source interface {
	Generate(ctx context.Context, req Request) (*Question, error)
}

// Config controls the LLM-backed source.
type Config struct {
	// MaxTokens is the token budget for the model response.
	MaxTokens int

	// Temperature controls output randomness (0.0-1.0).
	Temperature float64
}

// DefaultConfig returns the recommended source configuration.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   512,
		Temperature: 0.7,
	}
}

// LLMSource implements Source using a model provider.
type LLMSource struct {
	provider llm.Provider
	config   Config
}

// NewSource creates an LLMSource with the given provider and config.
func NewSource(provider llm.Provider, cfg Config) *LLMSource {
	return &LLMSource{provider: provider, config: cfg}
}

const sourceSystemPrompt = `You are an expert math tutor writing practice questions for school students.

Rules:
- Write a single question appropriate for the given grade, topic, and difficulty.
- Use plain ASCII text for all math. No LaTeX, no markdown. Use / for fractions and standard operators.
- The question must be self-contained and answerable with a short typed response.
- The answer must be correct and in simplest form (reduce fractions, no trailing zeros on decimals).
- Reply with the question, then the marker ` + Delimiter + `, then the answer. Nothing else.
- Example reply: What is 3/4 + 1/8?` + Delimiter + `7/8`

// Generate asks the model for one question and parses the delimited reply.
// A reply with no delimiter is not an error: the whole text becomes the
// question and the reference answer is marked unparseable.
func (s *LLMSource) Generate(ctx context.Context, req Request) (*Question, error) {
	ctx = llm.WithPurpose(ctx, "question-gen")

	resp, err := s.provider.Complete(ctx, llm.Request{
		System:      sourceSystemPrompt,
		Prompt:      buildSourcePrompt(req),
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("question generation failed: %w", err)
	}

	text, answer := splitPayload(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("question generation failed: empty response")
	}

	return &Question{
		Text:            text,
		ReferenceAnswer: answer,
		Topic:           req.Topic,
		Grade:           req.Grade,
		Tier:            req.Tier,
		Index:           req.Index,
	}, nil
}

// buildSourcePrompt renders the user message for a generation request.
func buildSourcePrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Grade: %s\n", req.Grade)
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&b, "Difficulty: %s\n", req.Tier)
	fmt.Fprintf(&b, "This is question %d of %d in the practice session.\n", req.Index, req.Total)
	return b.String()
}

// splitPayload splits the model reply on the delimiter. When the marker
// is absent the entire reply is treated as the question text and the
// answer degrades to the Unparseable sentinel.
func splitPayload(raw string) (text, answer string) {
	raw = strings.TrimSpace(raw)
	parts := strings.SplitN(raw, Delimiter, 2)
	if len(parts) != 2 {
		return raw, Unparseable
	}
	text = strings.TrimSpace(parts[0])
	answer = strings.TrimSpace(parts[1])
	if answer == "" {
		answer = Unparseable
	}
	return text, answer
}
