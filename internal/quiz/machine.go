package quiz

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anand/mathdrill/internal/grading"
	"github.com/anand/mathdrill/internal/history"
	"github.com/anand/mathdrill/internal/question"
	"github.com/anand/mathdrill/internal/store"
)

// EventLog receives each newly logged attempt for the local event
// store. Satisfied by store.EventRepo.
type EventLog interface {
	AppendAttempt(ctx context.Context, data store.AttemptEventData) error
}

// ErrFinished is returned for actions that are only valid while the
// session is in progress.
var ErrFinished = errors.New("session is finished")

// ErrMissingParams is returned when a session action requires topic and
// grade to be set.
var ErrMissingParams = errors.New("topic and grade must be set")

// Config controls the state machine.
type Config struct {
	// Total is the fixed number of questions per session.
	Total int

	// Bands partitions the sequence into difficulty tiers.
	Bands Bands

	// ExactMatchShortCircuit grades trimmed-equal answers as correct
	// without consulting the oracle. The hosted variants disagree on
	// this, so it is a flag rather than a fixed behavior.
	ExactMatchShortCircuit bool
}

// DefaultConfig returns the standard 25-question session configuration.
func DefaultConfig() Config {
	return Config{
		Total:                  25,
		Bands:                  DefaultBands,
		ExactMatchShortCircuit: true,
	}
}

// Machine drives Sessions through their transitions. It owns the
// external collaborators; Sessions themselves are plain state.
type Machine struct {
	cfg    Config
	source question.Source
	oracle grading.Oracle
	sink   history.Sink
	events EventLog
	now    func() time.Time
}

// NewMachine wires a state machine with its collaborators.
func NewMachine(cfg Config, source question.Source, oracle grading.Oracle, sink history.Sink) (*Machine, error) {
	if cfg.Total < 3 {
		return nil, fmt.Errorf("session total %d too small for three difficulty bands", cfg.Total)
	}
	if err := cfg.Bands.Validate(cfg.Total); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = history.NopSink{}
	}
	return &Machine{
		cfg:    cfg,
		source: source,
		oracle: oracle,
		sink:   sink,
		now:    time.Now,
	}, nil
}

// LogEventsTo mirrors every logged attempt into the local event store.
// Optional; shares the sink's dedup key, and persistence failures are
// reported but never block grading.
func (m *Machine) LogEventsTo(log EventLog) {
	m.events = log
}

// Start creates a fresh session at index 1 and fetches its first
// question. Also the Restart transition: callers simply discard the old
// session value.
func (m *Machine) Start(ctx context.Context, student, topic, grade string) (*Session, error) {
	s := &Session{
		ID:        uuid.New().String(),
		Student:   student,
		Topic:     strings.TrimSpace(topic),
		Grade:     strings.TrimSpace(grade),
		Index:     1,
		Total:     m.cfg.Total,
		StartedAt: m.now(),
	}
	if err := m.Advance(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Advance fetches the question for the session's current index.
//
// At Index > Total it marks the session finished without calling the
// source. On source failure the previous question (if any) stays
// current and the index is untouched; the error is reportable, not
// fatal to the session.
func (m *Machine) Advance(ctx context.Context, s *Session) error {
	if s.Index > s.Total {
		s.Finished = true
		s.Current = nil
		s.Feedback = fmt.Sprintf("All done! You scored %d out of %d.", s.Score, s.Total)
		return nil
	}

	if s.Topic == "" || s.Grade == "" {
		return ErrMissingParams
	}

	q, err := m.source.Generate(ctx, question.Request{
		Topic: s.Topic,
		Grade: s.Grade,
		Tier:  m.cfg.Bands.Tier(s.Index),
		Index: s.Index,
		Total: s.Total,
	})
	if err != nil {
		return fmt.Errorf("advance to question %d: %w", s.Index, err)
	}

	s.Current = q
	s.RevealAnswer = false
	s.Feedback = ""
	return nil
}

// Next moves to the following question. Only valid while in progress;
// crossing the total transitions to the finished state.
func (m *Machine) Next(ctx context.Context, s *Session) error {
	if s.Finished {
		return ErrFinished
	}
	s.Index++
	return m.Advance(ctx, s)
}

// SetParams changes topic and/or grade mid-session. The current index
// is kept and its question regenerated under the new parameters.
func (m *Machine) SetParams(ctx context.Context, s *Session, topic, grade string) error {
	if s.Finished {
		return ErrFinished
	}
	prevTopic, prevGrade := s.Topic, s.Grade
	s.Topic = strings.TrimSpace(topic)
	s.Grade = strings.TrimSpace(grade)
	if err := m.Advance(ctx, s); err != nil {
		s.Topic, s.Grade = prevTopic, prevGrade
		return err
	}
	return nil
}

// Submit grades the student's answer for the current question.
//
// Empty input short-circuits to NeedsInput. An ungradeable question
// (unparseable reference answer) resolves to Incorrect without ever
// comparing against the sentinel. Oracle failure also resolves to
// Incorrect: grading errors are reported on stderr but never crash the
// session.
func (m *Machine) Submit(ctx context.Context, s *Session, studentAnswer string) (Verdict, error) {
	if s.Finished || s.Current == nil {
		return VerdictNeedsInput, ErrFinished
	}

	studentAnswer = strings.TrimSpace(studentAnswer)
	if studentAnswer == "" {
		return VerdictNeedsInput, nil
	}

	q := s.Current
	verdict := m.grade(ctx, q, studentAnswer)

	s.RevealAnswer = true
	switch verdict {
	case VerdictCorrect:
		s.Score++
		s.Feedback = "Correct!"
	default:
		if q.Gradeable() {
			s.Feedback = fmt.Sprintf("Incorrect. The correct answer was: %s", q.ReferenceAnswer)
		} else {
			s.Feedback = "This question could not be graded automatically."
		}
	}

	m.logAttempt(ctx, s, q, studentAnswer, verdict)
	return verdict, nil
}

// grade applies the two-tier grading policy.
func (m *Machine) grade(ctx context.Context, q *question.Question, studentAnswer string) Verdict {
	if !q.Gradeable() {
		return VerdictIncorrect
	}

	if m.cfg.ExactMatchShortCircuit &&
		studentAnswer == strings.TrimSpace(q.ReferenceAnswer) {
		return VerdictCorrect
	}

	verdict, err := m.oracle.Grade(ctx, q.Text, q.ReferenceAnswer, studentAnswer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v (defaulting to incorrect)\n", err)
		return VerdictIncorrect
	}
	if verdict == grading.VerdictCorrect {
		return VerdictCorrect
	}
	return VerdictIncorrect
}

// logAttempt records the attempt exactly once per dedup key: a repeat
// submit on the same question is idempotent. The last-logged key is
// updated even when the sink write fails; persistence problems must not
// block progression or invite duplicate rows on the next submit.
func (m *Machine) logAttempt(ctx context.Context, s *Session, q *question.Question, studentAnswer string, verdict Verdict) {
	key := dedupKey(s.Index, q.Text)
	if key == s.lastLoggedKey {
		return
	}
	s.lastLoggedKey = key

	att := Attempt{
		Index:         s.Index,
		QuestionText:  q.Text,
		StudentAnswer: studentAnswer,
		Verdict:       verdict,
		Timestamp:     m.now(),
		Topic:         s.Topic,
		Grade:         s.Grade,
		Tier:          q.Tier,
	}
	s.History = append(s.History, att)

	if err := m.sink.Append(ctx, history.Record{
		Timestamp: att.Timestamp,
		Student:   s.Student,
		Grade:     att.Grade,
		Topic:     att.Topic,
		Tier:      att.Tier.String(),
		Question:  att.QuestionText,
		Answer:    att.StudentAnswer,
		Verdict:   string(att.Verdict),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: history append failed: %v\n", err)
	}

	if m.events == nil {
		return
	}
	if err := m.events.AppendAttempt(ctx, store.AttemptEventData{
		SessionID:       s.ID,
		Student:         s.Student,
		Topic:           att.Topic,
		Grade:           att.Grade,
		Tier:            att.Tier.String(),
		QuestionIndex:   att.Index,
		QuestionText:    att.QuestionText,
		ReferenceAnswer: q.ReferenceAnswer,
		StudentAnswer:   att.StudentAnswer,
		Verdict:         string(att.Verdict),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: attempt event append failed: %v\n", err)
	}
}

// Finish writes the session summary row. Call once when the terminal
// state is reached.
func (m *Machine) Finish(ctx context.Context, s *Session) {
	if err := m.sink.AppendResult(ctx, history.Result{
		Date:    m.now(),
		Student: s.Student,
		Topic:   s.Topic,
		Score:   s.ScorePercent(),
		Grade:   s.Grade,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: result append failed: %v\n", err)
	}
}
