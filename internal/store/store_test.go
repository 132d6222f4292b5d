package store

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.Client() == nil {
		t.Fatal("expected non-nil ent client")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is only meaningful with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)

	sc, err := newSequenceCounter(s.DB())
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := sc.next()
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestSequenceSharedAcrossEventTypes(t *testing.T) {
	s := openTestStore(t)
	repo, err := s.EventRepo()
	if err != nil {
		t.Fatalf("event repo: %v", err)
	}
	ctx := context.Background()

	if err := repo.AppendSessionEvent(ctx, SessionEventData{
		SessionID: "s1", Action: "start", Student: "Anaya", Topic: "Fractions", Grade: "Grade 6",
	}); err != nil {
		t.Fatalf("append session event: %v", err)
	}
	if err := repo.AppendAttempt(ctx, AttemptEventData{
		SessionID: "s1", Student: "Anaya", Topic: "Fractions", Grade: "Grade 6",
		Tier: "Easy", QuestionIndex: 1, QuestionText: "1+1?", ReferenceAnswer: "2",
		StudentAnswer: "2", Verdict: "correct",
	}); err != nil {
		t.Fatalf("append attempt: %v", err)
	}
	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "question", Success: true,
	}); err != nil {
		t.Fatalf("append llm request: %v", err)
	}

	// All three tables draw from the same counter, so the next value is 4.
	sc, err := newSequenceCounter(s.DB())
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}
	seq, err := sc.next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if seq != 4 {
		t.Errorf("next sequence = %d, want 4", seq)
	}
}

func TestQueryLLMEventsNewestFirst(t *testing.T) {
	s := openTestStore(t)
	repo, err := s.EventRepo()
	if err != nil {
		t.Fatalf("event repo: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		purpose := []string{"question", "grading", "quiz"}[i]
		if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "mock", Model: "mock", Purpose: purpose, Success: true,
		}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Purpose != "quiz" || events[1].Purpose != "grading" {
		t.Errorf("expected newest first, got %q then %q", events[0].Purpose, events[1].Purpose)
	}
}

func TestGetLLMEvent(t *testing.T) {
	s := openTestStore(t)
	repo, err := s.EventRepo()
	if err != nil {
		t.Fatalf("event repo: %v", err)
	}
	ctx := context.Background()

	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock-model", Purpose: "grading",
		RequestBody: "[user]\nIs 2 correct?", ResponseBody: "CORRECT", Success: true,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	ev, err := repo.GetLLMEvent(ctx, events[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ev == nil {
		t.Fatal("expected event, got nil")
	}
	if ev.Model != "mock-model" || ev.ResponseBody != "CORRECT" {
		t.Errorf("unexpected event: %+v", ev)
	}

	// Missing IDs return nil without an error.
	missing, err := repo.GetLLMEvent(ctx, 999999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing ID, got %+v", missing)
	}
}

func TestSummarize(t *testing.T) {
	s := openTestStore(t)
	repo, err := s.EventRepo()
	if err != nil {
		t.Fatalf("event repo: %v", err)
	}
	ctx := context.Background()

	ends := []SessionEventData{
		{SessionID: "s1", Action: "end", Student: "Anaya", Topic: "Fractions", Grade: "Grade 6",
			QuestionsServed: 25, CorrectAnswers: 15, ScorePercent: 60},
		{SessionID: "s2", Action: "end", Student: "Anaya", Topic: "Fractions", Grade: "Grade 6",
			QuestionsServed: 25, CorrectAnswers: 10, ScorePercent: 40},
		{SessionID: "s3", Action: "end", Student: "Anaya", Topic: "Decimals", Grade: "Grade 6",
			QuestionsServed: 25, CorrectAnswers: 22, ScorePercent: 88},
		// Start events and other students must not count.
		{SessionID: "s4", Action: "start", Student: "Anaya", Topic: "Decimals", Grade: "Grade 6"},
		{SessionID: "s5", Action: "end", Student: "Rohan", Topic: "Algebra", Grade: "Grade 8",
			QuestionsServed: 25, CorrectAnswers: 25, ScorePercent: 100},
	}
	for i, ev := range ends {
		if err := repo.AppendSessionEvent(ctx, ev); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	sum, err := repo.Summarize(ctx, "Anaya")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.Sessions != 3 {
		t.Errorf("sessions = %d, want 3", sum.Sessions)
	}
	// (60 + 40 + 88) / 3
	if sum.AverageScore < 62.6 || sum.AverageScore > 62.7 {
		t.Errorf("average = %v, want ~62.67", sum.AverageScore)
	}
	if len(sum.Topics) != 2 {
		t.Fatalf("topics = %d, want 2", len(sum.Topics))
	}
	// Weakest topic sorts first.
	if sum.Topics[0].Topic != "Fractions" || sum.Topics[0].Sessions != 2 {
		t.Errorf("unexpected first topic: %+v", sum.Topics[0])
	}
	if sum.Topics[0].AverageScore != 50 {
		t.Errorf("fractions average = %v, want 50", sum.Topics[0].AverageScore)
	}

	// Fractions averages 50, below the weakness threshold; Decimals does not.
	if len(sum.WeakTopics) != 1 || sum.WeakTopics[0] != "Fractions" {
		t.Errorf("weak topics = %v, want [Fractions]", sum.WeakTopics)
	}
}

func TestSummarizeNoSessions(t *testing.T) {
	s := openTestStore(t)
	repo, err := s.EventRepo()
	if err != nil {
		t.Fatalf("event repo: %v", err)
	}

	sum, err := repo.Summarize(context.Background(), "Nobody")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.Sessions != 0 {
		t.Errorf("sessions = %d, want 0", sum.Sessions)
	}
	if len(sum.Topics) != 0 || len(sum.WeakTopics) != 0 {
		t.Errorf("expected empty topic lists, got %+v", sum)
	}
}
