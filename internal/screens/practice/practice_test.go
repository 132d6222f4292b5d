package practice

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/anand/mathdrill/internal/grading"
	"github.com/anand/mathdrill/internal/question"
	"github.com/anand/mathdrill/internal/quiz"
)

// flakySource fails selected generation calls (keyed by call number,
// 1-based) and records the index of every request.
type flakySource struct {
	indexes []int
	failAt  map[int]bool
}

func (s *flakySource) Generate(_ context.Context, req question.Request) (*question.Question, error) {
	s.indexes = append(s.indexes, req.Index)
	if s.failAt[len(s.indexes)] {
		return nil, errors.New("model unavailable")
	}
	return &question.Question{
		Text:            fmt.Sprintf("question %d?", req.Index),
		ReferenceAnswer: fmt.Sprintf("answer-%d", req.Index),
		Topic:           req.Topic,
		Grade:           req.Grade,
		Tier:            req.Tier,
		Index:           req.Index,
	}, nil
}

type passOracle struct{}

func (passOracle) Grade(context.Context, string, string, string) (grading.Verdict, error) {
	return grading.VerdictCorrect, nil
}

func testPracticeScreen(t *testing.T, src question.Source) *PracticeScreen {
	t.Helper()
	machine, err := quiz.NewMachine(quiz.DefaultConfig(), src, passOracle{}, nil)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	p := New(machine, nil, "Anaya", "Grade 6", "Fractions")

	// Run the start command and feed its result back.
	p.Update(p.startSession()())
	if p.phase != phaseAnswering {
		t.Fatalf("phase after session start = %d, want answering", p.phase)
	}
	return p
}

// deliver runs a returned command and feeds its message back into the
// screen, the way the program loop would.
func deliver(t *testing.T, p *PracticeScreen, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	p.Update(cmd())
}

func enter() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEnter}
}

func TestPracticeScreen_RetryAfterFailedFetchKeepsIndex(t *testing.T) {
	src := &flakySource{failAt: map[int]bool{2: true}}
	p := testPracticeScreen(t, src)

	// Answer question 1.
	p.input.Model.SetValue("answer-1")
	_, cmd := p.Update(enter())
	deliver(t, p, cmd)
	if p.phase != phaseGraded {
		t.Fatalf("phase after submit = %d, want graded", p.phase)
	}

	// Enter requests question 2; the source is down.
	_, cmd = p.Update(enter())
	deliver(t, p, cmd)
	if p.phase != phaseLoading {
		t.Fatalf("phase after failed fetch = %d, want loading", p.phase)
	}
	if p.hint == "" {
		t.Error("expected a retry hint after a failed fetch")
	}
	if p.sess.Index != 2 {
		t.Fatalf("index after failed fetch = %d, want 2", p.sess.Index)
	}

	// Enter retries; the source is back up and must be asked for
	// question 2 again, not question 3.
	_, cmd = p.Update(enter())
	deliver(t, p, cmd)
	if p.phase != phaseAnswering {
		t.Fatalf("phase after retry = %d, want answering", p.phase)
	}
	if p.sess.Index != 2 || p.sess.Current == nil || p.sess.Current.Index != 2 {
		t.Fatalf("pending question skipped: index=%d current=%+v", p.sess.Index, p.sess.Current)
	}
	if want := []int{1, 2, 2}; !reflect.DeepEqual(src.indexes, want) {
		t.Errorf("generation indexes = %v, want %v", src.indexes, want)
	}
}

func TestPracticeScreen_RepeatedFetchFailuresStayRetryable(t *testing.T) {
	src := &flakySource{failAt: map[int]bool{2: true, 3: true}}
	p := testPracticeScreen(t, src)

	p.input.Model.SetValue("answer-1")
	_, cmd := p.Update(enter())
	deliver(t, p, cmd)

	// First fetch fails, retry fails, second retry succeeds.
	_, cmd = p.Update(enter())
	deliver(t, p, cmd)
	_, cmd = p.Update(enter())
	deliver(t, p, cmd)
	if p.phase != phaseLoading {
		t.Fatalf("phase after failed retry = %d, want loading", p.phase)
	}
	_, cmd = p.Update(enter())
	deliver(t, p, cmd)

	if p.sess.Index != 2 || p.sess.Current == nil || p.sess.Current.Index != 2 {
		t.Fatalf("pending question lost: index=%d current=%+v", p.sess.Index, p.sess.Current)
	}
	if want := []int{1, 2, 2, 2}; !reflect.DeepEqual(src.indexes, want) {
		t.Errorf("generation indexes = %v, want %v", src.indexes, want)
	}
}

func TestPracticeScreen_ParamFailureReturnsToGraded(t *testing.T) {
	src := &flakySource{}
	p := testPracticeScreen(t, src)

	p.input.Model.SetValue("answer-1")
	_, cmd := p.Update(enter())
	deliver(t, p, cmd)
	if p.phase != phaseGraded {
		t.Fatalf("phase after submit = %d, want graded", p.phase)
	}

	// A failed parameter change keeps the current question; there is
	// nothing pending to retry, so the screen falls back to the graded
	// view.
	p.Update(questionReadyMsg{Err: errors.New("model unavailable")})
	if p.phase != phaseGraded {
		t.Fatalf("phase after failed param change = %d, want graded", p.phase)
	}
	if p.sess.Index != 1 {
		t.Errorf("index = %d, want 1", p.sess.Index)
	}
}
