package quiz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/anand/mathdrill/internal/grading"
	"github.com/anand/mathdrill/internal/history"
	"github.com/anand/mathdrill/internal/question"
	"github.com/anand/mathdrill/internal/store"
)

// stubSource generates deterministic questions and records every request.
type stubSource struct {
	calls         []question.Request
	err           error
	unparseableAt map[int]bool
}

func (s *stubSource) Generate(_ context.Context, req question.Request) (*question.Question, error) {
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	answer := fmt.Sprintf("answer-%d", req.Index)
	if s.unparseableAt[req.Index] {
		answer = question.Unparseable
	}
	return &question.Question{
		Text:            fmt.Sprintf("question %d about %s?", req.Index, req.Topic),
		ReferenceAnswer: answer,
		Topic:           req.Topic,
		Grade:           req.Grade,
		Tier:            req.Tier,
		Index:           req.Index,
	}, nil
}

// stubOracle returns a fixed verdict and records every call.
type stubOracle struct {
	calls   int
	verdict grading.Verdict
	err     error
}

func (o *stubOracle) Grade(context.Context, string, string, string) (grading.Verdict, error) {
	o.calls++
	if o.err != nil {
		return grading.VerdictIncorrect, o.err
	}
	return o.verdict, nil
}

// recordSink captures everything appended to it.
type recordSink struct {
	records []history.Record
	results []history.Result
	err     error
}

func (s *recordSink) Append(_ context.Context, rec history.Record) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *recordSink) AppendResult(_ context.Context, res history.Result) error {
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, res)
	return nil
}

func newTestMachine(t *testing.T, src question.Source, oracle grading.Oracle, sink history.Sink) *Machine {
	t.Helper()
	m, err := NewMachine(DefaultConfig(), src, oracle, sink)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

func TestStart_FetchesFirstQuestion(t *testing.T) {
	src := &stubSource{}
	m := newTestMachine(t, src, &stubOracle{}, nil)

	s, err := m.Start(context.Background(), "Anaya", "  Fractions ", " Grade 6 ")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if s.Index != 1 || s.Total != 25 || s.Score != 0 || s.Finished {
		t.Errorf("unexpected initial state: %+v", s)
	}
	if s.Topic != "Fractions" || s.Grade != "Grade 6" {
		t.Errorf("parameters not trimmed: %q %q", s.Topic, s.Grade)
	}
	if s.Current == nil || s.Current.Index != 1 {
		t.Fatal("expected first question to be current")
	}
	if len(src.calls) != 1 || src.calls[0].Tier != question.TierEasy {
		t.Errorf("expected one easy-tier generation call, got %+v", src.calls)
	}
}

func TestStart_MissingParams(t *testing.T) {
	m := newTestMachine(t, &stubSource{}, &stubOracle{}, nil)

	if _, err := m.Start(context.Background(), "Anaya", "", "Grade 6"); !errors.Is(err, ErrMissingParams) {
		t.Errorf("expected ErrMissingParams, got %v", err)
	}
	if _, err := m.Start(context.Background(), "Anaya", "Fractions", "   "); !errors.Is(err, ErrMissingParams) {
		t.Errorf("expected ErrMissingParams, got %v", err)
	}
}

func TestNext_WalksTiersInOrder(t *testing.T) {
	src := &stubSource{}
	m := newTestMachine(t, src, &stubOracle{}, nil)

	s, err := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for s.Index < s.Total {
		if err := m.Next(context.Background(), s); err != nil {
			t.Fatalf("Next at index %d: %v", s.Index, err)
		}
	}

	if len(src.calls) != 25 {
		t.Fatalf("expected 25 generation calls, got %d", len(src.calls))
	}
	for i, call := range src.calls {
		idx := i + 1
		want := question.TierEasy
		switch {
		case idx > 15:
			want = question.TierHard
		case idx > 7:
			want = question.TierMedium
		}
		if call.Tier != want {
			t.Errorf("index %d: tier = %v, want %v", idx, call.Tier, want)
		}
	}
}

func TestNext_PastTotalFinishesWithoutSourceCall(t *testing.T) {
	src := &stubSource{}
	m := newTestMachine(t, src, &stubOracle{}, nil)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	s.Index = 25 // Jump to the last question.
	if err := m.Advance(context.Background(), s); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	callsBefore := len(src.calls)

	if err := m.Next(context.Background(), s); err != nil {
		t.Fatalf("Next past total: %v", err)
	}

	if !s.Finished {
		t.Error("expected session to be finished")
	}
	if s.Current != nil {
		t.Error("expected no current question after finish")
	}
	if len(src.calls) != callsBefore {
		t.Error("finish transition must not call the source")
	}
	if s.Feedback == "" {
		t.Error("expected terminal feedback message")
	}

	// Further transitions are rejected.
	if err := m.Next(context.Background(), s); !errors.Is(err, ErrFinished) {
		t.Errorf("Next after finish: got %v, want ErrFinished", err)
	}
	if _, err := m.Submit(context.Background(), s, "4"); !errors.Is(err, ErrFinished) {
		t.Errorf("Submit after finish: got %v, want ErrFinished", err)
	}
	if err := m.SetParams(context.Background(), s, "Algebra", "Grade 7"); !errors.Is(err, ErrFinished) {
		t.Errorf("SetParams after finish: got %v, want ErrFinished", err)
	}
}

func TestSubmit_ExactMatchSkipsOracle(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictIncorrect}
	sink := &recordSink{}
	m := newTestMachine(t, &stubSource{}, oracle, sink)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")

	v, err := m.Submit(context.Background(), s, "  answer-1  ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v != VerdictCorrect {
		t.Errorf("expected correct, got %v", v)
	}
	if oracle.calls != 0 {
		t.Error("exact match must not consult the oracle")
	}
	if s.Score != 1 {
		t.Errorf("score = %d, want 1", s.Score)
	}
	if !s.RevealAnswer {
		t.Error("expected answer to be revealed after grading")
	}
}

func TestSubmit_ExactMatchDisabledConsultsOracle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExactMatchShortCircuit = false
	oracle := &stubOracle{verdict: grading.VerdictCorrect}
	m, err := NewMachine(cfg, &stubSource{}, oracle, nil)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	v, err := m.Submit(context.Background(), s, "answer-1")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v != VerdictCorrect {
		t.Errorf("expected correct, got %v", v)
	}
	if oracle.calls != 1 {
		t.Errorf("oracle calls = %d, want 1", oracle.calls)
	}
}

func TestSubmit_EmptyAnswerNeedsInput(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictCorrect}
	sink := &recordSink{}
	m := newTestMachine(t, &stubSource{}, oracle, sink)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")

	v, err := m.Submit(context.Background(), s, "   ")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v != VerdictNeedsInput {
		t.Errorf("expected needs-input, got %v", v)
	}
	if oracle.calls != 0 || len(sink.records) != 0 || s.Score != 0 || s.RevealAnswer {
		t.Error("empty submission must not grade, log, or reveal")
	}
}

func TestSubmit_UngradeableResolvesIncorrectWithoutOracle(t *testing.T) {
	src := &stubSource{unparseableAt: map[int]bool{1: true}}
	oracle := &stubOracle{verdict: grading.VerdictCorrect}
	sink := &recordSink{}
	m := newTestMachine(t, src, oracle, sink)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")

	// Even typing the sentinel itself must not count as a match.
	v, err := m.Submit(context.Background(), s, question.Unparseable)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if v != VerdictIncorrect {
		t.Errorf("expected incorrect, got %v", v)
	}
	if oracle.calls != 0 {
		t.Error("ungradeable question must not consult the oracle")
	}
	if s.Feedback != "This question could not be graded automatically." {
		t.Errorf("unexpected feedback: %q", s.Feedback)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected the attempt to be logged, got %d records", len(sink.records))
	}
}

func TestSubmit_OracleErrorDefaultsIncorrect(t *testing.T) {
	oracle := &stubOracle{err: errors.New("oracle down")}
	m := newTestMachine(t, &stubSource{}, oracle, nil)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	v, err := m.Submit(context.Background(), s, "wrong")
	if err != nil {
		t.Fatalf("Submit must not fail on oracle errors: %v", err)
	}
	if v != VerdictIncorrect {
		t.Errorf("expected incorrect, got %v", v)
	}
}

func TestSubmit_IncorrectFeedbackShowsReference(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictIncorrect}
	m := newTestMachine(t, &stubSource{}, oracle, nil)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	if _, err := m.Submit(context.Background(), s, "wrong"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	want := "Incorrect. The correct answer was: answer-1"
	if s.Feedback != want {
		t.Errorf("feedback = %q, want %q", s.Feedback, want)
	}
}

func TestSubmit_ResubmitLogsOnlyOnce(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictIncorrect}
	sink := &recordSink{}
	m := newTestMachine(t, &stubSource{}, oracle, sink)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")

	if _, err := m.Submit(context.Background(), s, "first try"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := m.Submit(context.Background(), s, "second try"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected exactly 1 logged record, got %d", len(sink.records))
	}
	if len(s.History) != 1 {
		t.Fatalf("expected exactly 1 history attempt, got %d", len(s.History))
	}

	// A different question index logs again.
	if err := m.Next(context.Background(), s); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := m.Submit(context.Background(), s, "third try"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(sink.records) != 2 {
		t.Fatalf("expected 2 logged records after advancing, got %d", len(sink.records))
	}
}

func TestSubmit_SinkFailureDoesNotBlockOrDuplicate(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictCorrect}
	sink := &recordSink{err: errors.New("disk full")}
	m := newTestMachine(t, &stubSource{}, oracle, sink)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")

	if _, err := m.Submit(context.Background(), s, "answer-1"); err != nil {
		t.Fatalf("Submit must not fail on sink errors: %v", err)
	}

	// Sink recovers; a resubmit must still be suppressed.
	sink.err = nil
	if _, err := m.Submit(context.Background(), s, "answer-1"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(sink.records) != 0 {
		t.Errorf("resubmit after sink failure must not log, got %d records", len(sink.records))
	}
}

func TestSubmit_RecordCarriesSessionFields(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictIncorrect}
	sink := &recordSink{}
	m := newTestMachine(t, &stubSource{}, oracle, sink)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	if _, err := m.Submit(context.Background(), s, "nope"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	rec := sink.records[0]
	if rec.Student != "Anaya" || rec.Topic != "Fractions" || rec.Grade != "Grade 6" {
		t.Errorf("unexpected record identity fields: %+v", rec)
	}
	if rec.Tier != "Easy" {
		t.Errorf("tier = %q, want Easy", rec.Tier)
	}
	if rec.Verdict != "incorrect" || rec.Answer != "nope" {
		t.Errorf("unexpected verdict/answer: %+v", rec)
	}
	if rec.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}
}

// stubEventLog captures attempt events appended to it.
type stubEventLog struct {
	attempts []store.AttemptEventData
	err      error
}

func (l *stubEventLog) AppendAttempt(_ context.Context, data store.AttemptEventData) error {
	if l.err != nil {
		return l.err
	}
	l.attempts = append(l.attempts, data)
	return nil
}

func TestSubmit_AppendsAttemptEvent(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictIncorrect}
	events := &stubEventLog{}
	m := newTestMachine(t, &stubSource{}, oracle, &recordSink{})
	m.LogEventsTo(events)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	if _, err := m.Submit(context.Background(), s, "nope"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if len(events.attempts) != 1 {
		t.Fatalf("expected 1 attempt event, got %d", len(events.attempts))
	}
	ev := events.attempts[0]
	if ev.SessionID != s.ID || ev.Student != "Anaya" || ev.Topic != "Fractions" || ev.Grade != "Grade 6" {
		t.Errorf("unexpected identity fields: %+v", ev)
	}
	if ev.QuestionIndex != 1 || ev.Tier != "Easy" {
		t.Errorf("unexpected index/tier: %+v", ev)
	}
	if ev.QuestionText != s.Current.Text || ev.ReferenceAnswer != "answer-1" {
		t.Errorf("unexpected question fields: %+v", ev)
	}
	if ev.StudentAnswer != "nope" || ev.Verdict != "incorrect" {
		t.Errorf("unexpected answer/verdict: %+v", ev)
	}

	// Resubmits share the sink's dedup key.
	if _, err := m.Submit(context.Background(), s, "still nope"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(events.attempts) != 1 {
		t.Errorf("resubmit must not append another attempt event, got %d", len(events.attempts))
	}
}

func TestSubmit_EventLogFailureDoesNotBlock(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictCorrect}
	sink := &recordSink{}
	events := &stubEventLog{err: errors.New("database locked")}
	m := newTestMachine(t, &stubSource{}, oracle, sink)
	m.LogEventsTo(events)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	verdict, err := m.Submit(context.Background(), s, "answer-1")
	if err != nil {
		t.Fatalf("Submit must not fail on event log errors: %v", err)
	}
	if verdict != VerdictCorrect {
		t.Errorf("verdict = %v, want correct", verdict)
	}
	if len(sink.records) != 1 {
		t.Errorf("history sink records = %d, want 1", len(sink.records))
	}
}

func TestAdvance_SourceFailureKeepsCurrentQuestion(t *testing.T) {
	src := &stubSource{}
	m := newTestMachine(t, src, &stubOracle{}, nil)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	prev := s.Current

	src.err = errors.New("provider down")
	err := m.Next(context.Background(), s)
	if err == nil {
		t.Fatal("expected error")
	}
	if s.Current != prev {
		t.Error("failed advance must keep the previous question current")
	}
	if s.Finished {
		t.Error("failed advance must not finish the session")
	}

	// Recovery: the pending index is fetched by a plain Advance.
	src.err = nil
	if err := m.Advance(context.Background(), s); err != nil {
		t.Fatalf("Advance retry: %v", err)
	}
	if s.Current.Index != 2 {
		t.Errorf("expected question 2 after retry, got %d", s.Current.Index)
	}
}

func TestSetParams_RegeneratesCurrentIndex(t *testing.T) {
	src := &stubSource{}
	m := newTestMachine(t, src, &stubOracle{}, nil)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	m.Next(context.Background(), s)
	m.Next(context.Background(), s) // Index 3.

	if err := m.SetParams(context.Background(), s, "Algebra", "Grade 7"); err != nil {
		t.Fatalf("SetParams: %v", err)
	}
	if s.Index != 3 {
		t.Errorf("index = %d, want 3", s.Index)
	}
	if s.Topic != "Algebra" || s.Grade != "Grade 7" {
		t.Errorf("parameters not applied: %q %q", s.Topic, s.Grade)
	}
	last := src.calls[len(src.calls)-1]
	if last.Topic != "Algebra" || last.Index != 3 {
		t.Errorf("regeneration used wrong parameters: %+v", last)
	}
}

func TestSetParams_FailureRestoresPrevious(t *testing.T) {
	src := &stubSource{}
	m := newTestMachine(t, src, &stubOracle{}, nil)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")

	src.err = errors.New("provider down")
	if err := m.SetParams(context.Background(), s, "Algebra", "Grade 7"); err == nil {
		t.Fatal("expected error")
	}
	if s.Topic != "Fractions" || s.Grade != "Grade 6" {
		t.Errorf("parameters not restored: %q %q", s.Topic, s.Grade)
	}
}

func TestStart_AgainResetsEverything(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictIncorrect}
	m := newTestMachine(t, &stubSource{}, oracle, &recordSink{})

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	m.Submit(context.Background(), s, "x")
	m.Next(context.Background(), s)

	fresh, err := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if fresh.Index != 1 || fresh.Score != 0 || len(fresh.History) != 0 || fresh.Finished {
		t.Errorf("restart did not produce a fresh session: %+v", fresh)
	}
	if fresh.ID == s.ID {
		t.Error("restart must mint a new session ID")
	}
}

func TestFinish_WritesSummaryRow(t *testing.T) {
	oracle := &stubOracle{verdict: grading.VerdictCorrect}
	sink := &recordSink{}
	m := newTestMachine(t, &stubSource{}, oracle, sink)

	s, _ := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	s.Index = 26
	if err := m.Advance(context.Background(), s); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	s.Score = 20

	m.Finish(context.Background(), s)

	if len(sink.results) != 1 {
		t.Fatalf("expected 1 result row, got %d", len(sink.results))
	}
	res := sink.results[0]
	if res.Student != "Anaya" || res.Topic != "Fractions" || res.Grade != "Grade 6" {
		t.Errorf("unexpected result identity: %+v", res)
	}
	if res.Score != 80 {
		t.Errorf("score = %v, want 80", res.Score)
	}
	if res.Date.IsZero() {
		t.Error("expected a date")
	}
}

func TestNewMachine_RejectsBadConfig(t *testing.T) {
	src := &stubSource{}
	oracle := &stubOracle{}

	if _, err := NewMachine(Config{Total: 2, Bands: Bands{EasyMax: 1, MediumMax: 2}}, src, oracle, nil); err == nil {
		t.Error("expected error for total < 3")
	}
	if _, err := NewMachine(Config{Total: 25, Bands: Bands{EasyMax: 15, MediumMax: 7}}, src, oracle, nil); err == nil {
		t.Error("expected error for inverted bands")
	}
	if _, err := NewMachine(Config{Total: 25, Bands: Bands{EasyMax: 7, MediumMax: 25}}, src, oracle, nil); err == nil {
		t.Error("expected error for medium band reaching total")
	}
}

func TestFullSession(t *testing.T) {
	src := &stubSource{}
	oracle := &stubOracle{verdict: grading.VerdictIncorrect}
	sink := &recordSink{}
	m := newTestMachine(t, src, oracle, sink)

	start := time.Now()
	s, err := m.Start(context.Background(), "Anaya", "Fractions", "Grade 6")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 1; i <= 25; i++ {
		answer := "wrong"
		if i%2 == 1 {
			answer = fmt.Sprintf("answer-%d", i) // Exact match.
		}
		v, err := m.Submit(context.Background(), s, answer)
		if err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		wantV := VerdictIncorrect
		if i%2 == 1 {
			wantV = VerdictCorrect
		}
		if v != wantV {
			t.Errorf("question %d: verdict %v, want %v", i, v, wantV)
		}
		if err := m.Next(context.Background(), s); err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
	}

	if !s.Finished {
		t.Fatal("expected finished session after 25 questions")
	}
	if s.Score != 13 {
		t.Errorf("score = %d, want 13", s.Score)
	}
	if len(s.History) != 25 || len(sink.records) != 25 {
		t.Errorf("history/records = %d/%d, want 25/25", len(s.History), len(sink.records))
	}
	if len(src.calls) != 25 {
		t.Errorf("source calls = %d, want 25", len(src.calls))
	}
	if oracle.calls != 12 {
		// Only the even (non-matching) submissions reach the oracle.
		t.Errorf("oracle calls = %d, want 12", oracle.calls)
	}
	if s.StartedAt.Before(start.Add(-time.Second)) {
		t.Error("unexpected session start time")
	}

	m.Finish(context.Background(), s)
	if len(sink.results) != 1 || sink.results[0].Score != 52 {
		t.Errorf("unexpected result rows: %+v", sink.results)
	}
}
