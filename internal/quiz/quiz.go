// Package quiz owns the practice-session state machine: progression
// through a fixed-length question sequence, difficulty banding, answer
// submission, and exactly-once attempt logging.
//
// All external calls (question generation, grading, persistence) happen
// behind narrow interfaces so the decision logic tests without them.
package quiz

import (
	"fmt"
	"time"

	"github.com/anand/mathdrill/internal/question"
)

// Verdict is the outcome of a submission as seen by the session.
type Verdict string

const (
	// VerdictCorrect means the answer was accepted; the score advanced.
	VerdictCorrect Verdict = "correct"

	// VerdictIncorrect covers wrong answers, ungradeable questions, and
	// oracle failures. The conservative default.
	VerdictIncorrect Verdict = "incorrect"

	// VerdictNeedsInput means the submission was empty: nothing was
	// graded, logged, or counted.
	VerdictNeedsInput Verdict = "needs-input"
)

// Attempt is one graded submission. Created at most once per question,
// appended to the session history, and forwarded to the history sink.
// Never mutated after creation.
type Attempt struct {
	Index         int
	QuestionText  string
	StudentAnswer string
	Verdict       Verdict
	Timestamp     time.Time
	Topic         string
	Grade         string
	Tier          question.Tier
}

// Bands fixes the difficulty partition over the question sequence.
// Indices 1..EasyMax are easy, EasyMax+1..MediumMax are medium, and the
// rest up to the session total are hard.
type Bands struct {
	EasyMax   int
	MediumMax int
}

// DefaultBands matches the hosted tutor: 1-7 easy, 8-15 medium, 16-25 hard.
var DefaultBands = Bands{EasyMax: 7, MediumMax: 15}

// Validate checks that the bands partition [1, total] into three
// contiguous, non-empty, ordered ranges.
func (b Bands) Validate(total int) error {
	if b.EasyMax < 1 || b.EasyMax >= b.MediumMax || b.MediumMax >= total {
		return fmt.Errorf("bands must satisfy 1 <= easy (%d) < medium (%d) < total (%d)",
			b.EasyMax, b.MediumMax, total)
	}
	return nil
}

// Tier maps a question index to its difficulty band. Total over the
// valid index range: out-of-range indices clamp to the nearest band.
func (b Bands) Tier(index int) question.Tier {
	switch {
	case index <= b.EasyMax:
		return question.TierEasy
	case index <= b.MediumMax:
		return question.TierMedium
	default:
		return question.TierHard
	}
}

// Session is the full state of one practice run. It is created by
// Machine.Start, mutated only by Machine methods, and discarded on
// restart. No global session state exists anywhere.
type Session struct {
	ID      string
	Student string
	Topic   string
	Grade   string

	// Index is the 1-based position in the sequence. Monotonically
	// non-decreasing; Index == Total+1 means the session is finished.
	Index int

	// Total is the fixed sequence length.
	Total int

	// Score counts correct answers.
	Score int

	// Finished is true iff Index > Total.
	Finished bool

	// Current is the active question, nil before the first Advance and
	// after the session finishes.
	Current *question.Question

	// RevealAnswer is true once the current question has been graded.
	RevealAnswer bool

	// Feedback is the message shown for the last submission or the
	// terminal message once finished.
	Feedback string

	// History accumulates attempts in order. Cleared on restart.
	History []Attempt

	// StartedAt is when the session began.
	StartedAt time.Time

	// lastLoggedKey is the dedup key of the most recently logged
	// attempt. At most one attempt is logged per key.
	lastLoggedKey string
}

// ScorePercent returns the score as a percentage of questions answered.
func (s *Session) ScorePercent() float64 {
	answered := s.Index - 1
	if s.Finished {
		answered = s.Total
	}
	if answered <= 0 {
		return 0
	}
	return float64(s.Score) / float64(answered) * 100
}

// dedupKeyPrefixLen is how much question text goes into the dedup key.
const dedupKeyPrefixLen = 40

// dedupKey derives the duplicate-suppression key for an attempt on the
// given question. Index plus a prefix of the text is enough: the same
// index only repeats with the same text when the user resubmits.
func dedupKey(index int, questionText string) string {
	runes := []rune(questionText)
	if len(runes) > dedupKeyPrefixLen {
		runes = runes[:dedupKeyPrefixLen]
	}
	return fmt.Sprintf("%d:%s", index, string(runes))
}
