// Package grading judges student answers against a reference answer.
//
// The oracle is a hosted model asked for a one-word verdict. Its reply
// is free text with no contractual format, so parsing is deliberately
// conservative: anything that is not an unambiguous CORRECT resolves
// to Incorrect.
package grading

import (
	"context"
	"fmt"
	"strings"

	"github.com/anand/mathdrill/internal/llm"
)

// Verdict is the oracle's judgment of a student answer.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
)

// Oracle produces a correctness verdict for a student answer.
type Oracle interface {
	Grade(ctx context.Context, questionText, referenceAnswer, studentAnswer string) (Verdict, error)
}

// LLMOracle implements Oracle using a model provider.
type LLMOracle struct {
	provider  llm.Provider
	maxTokens int
}

// NewOracle creates an LLMOracle with the given provider.
func NewOracle(provider llm.Provider) *LLMOracle {
	return &LLMOracle{provider: provider, maxTokens: 64}
}

const oracleSystemPrompt = `You are grading a student's answer to a math question.

Accept answers that are mathematically or notationally equivalent to the
reference answer: 0.5 and 1/2 are the same answer, 7 and 7.0 are the same
answer, x=3 and 3 are the same answer.

Reply with exactly one word: CORRECT or INCORRECT. No explanation.`

// Grade asks the oracle to judge the student answer.
func (o *LLMOracle) Grade(ctx context.Context, questionText, referenceAnswer, studentAnswer string) (Verdict, error) {
	ctx = llm.WithPurpose(ctx, "grading")

	prompt := fmt.Sprintf(
		"Question: %s\nReference answer: %s\nStudent answer: %s",
		questionText, referenceAnswer, studentAnswer,
	)

	resp, err := o.provider.Complete(ctx, llm.Request{
		System:    oracleSystemPrompt,
		Prompt:    prompt,
		MaxTokens: o.maxTokens,
	})
	if err != nil {
		return VerdictIncorrect, fmt.Errorf("grading failed: %w", err)
	}

	return ParseVerdict(resp.Text()), nil
}

// ParseVerdict extracts a verdict from free-text oracle output.
// INCORRECT is checked first because it contains CORRECT as a substring;
// replies carrying neither token default to Incorrect.
func ParseVerdict(raw string) Verdict {
	upper := strings.ToUpper(raw)
	if strings.Contains(upper, "INCORRECT") {
		return VerdictIncorrect
	}
	if strings.Contains(upper, "CORRECT") {
		return VerdictCorrect
	}
	return VerdictIncorrect
}
