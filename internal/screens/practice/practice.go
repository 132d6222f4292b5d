// Package practice implements the active session screen: it drives the
// quiz state machine and renders question, feedback, and progress.
package practice

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/anand/mathdrill/internal/quiz"
	"github.com/anand/mathdrill/internal/router"
	"github.com/anand/mathdrill/internal/screen"
	"github.com/anand/mathdrill/internal/screens/summary"
	"github.com/anand/mathdrill/internal/store"
	"github.com/anand/mathdrill/internal/ui/components"
	"github.com/anand/mathdrill/internal/ui/layout"
)

type phase int

const (
	phaseLoading phase = iota
	phaseAnswering
	phaseGraded
	phaseParams
	phaseQuitConfirm
	phaseFinished
)

// PracticeScreen runs one practice session against the state machine.
type PracticeScreen struct {
	machine   *quiz.Machine
	eventRepo store.EventRepo

	student string
	grade   string
	topic   string

	sess  *quiz.Session
	phase phase

	input      components.TextInput
	paramGrade components.TextInput
	paramTopic components.TextInput
	paramFocus int // 0 = grade, 1 = topic

	hint   string
	errMsg string
}

var _ screen.Screen = (*PracticeScreen)(nil)
var _ screen.KeyHintProvider = (*PracticeScreen)(nil)
var _ screen.StatusProvider = (*PracticeScreen)(nil)

// New creates a practice screen for the given parameters.
func New(machine *quiz.Machine, eventRepo store.EventRepo, student, grade, topic string) *PracticeScreen {
	return &PracticeScreen{
		machine:   machine,
		eventRepo: eventRepo,
		student:   student,
		grade:     grade,
		topic:     topic,
		input:     components.NewTextInput("Type your answer...", 80),
	}
}

func (p *PracticeScreen) Init() tea.Cmd {
	return tea.Batch(p.startSession(), p.input.Init())
}

func (p *PracticeScreen) Title() string {
	return "Practice"
}

func (p *PracticeScreen) Status() string {
	if p.sess == nil {
		return p.student
	}
	return fmt.Sprintf("%s  %d/%d  ✓ %d", p.student, min(p.sess.Index, p.sess.Total), p.sess.Total, p.sess.Score)
}

func (p *PracticeScreen) KeyHints() []layout.KeyHint {
	switch p.phase {
	case phaseGraded:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next question"},
			{Key: "P", Description: "Change topic/grade"},
			{Key: "R", Description: "Restart"},
			{Key: "Esc", Description: "Quit"},
		}
	case phaseParams:
		return []layout.KeyHint{
			{Key: "Tab", Description: "Switch field"},
			{Key: "Enter", Description: "Apply"},
			{Key: "Esc", Description: "Cancel"},
		}
	case phaseQuitConfirm:
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	case phaseFinished:
		return []layout.KeyHint{
			{Key: "any key", Description: "See summary"},
		}
	default:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "P", Description: "Change topic/grade"},
			{Key: "R", Description: "Restart"},
			{Key: "Esc", Description: "Quit"},
		}
	}
}

func (p *PracticeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionReadyMsg:
		return p.handleSessionReady(msg)

	case questionReadyMsg:
		return p.handleQuestionReady(msg)

	case gradedMsg:
		return p.handleGraded(msg)

	case finishLoggedMsg:
		return p, nil

	case tea.KeyMsg:
		return p.handleKey(msg)
	}

	return p.forwardToInput(msg)
}

func (p *PracticeScreen) forwardToInput(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	switch p.phase {
	case phaseAnswering:
		p.input, cmd = p.input.Update(msg)
	case phaseParams:
		if p.paramFocus == 0 {
			p.paramGrade, cmd = p.paramGrade.Update(msg)
		} else {
			p.paramTopic, cmd = p.paramTopic.Update(msg)
		}
	}
	return p, cmd
}

// startSession creates a fresh session. Also used for restart.
func (p *PracticeScreen) startSession() tea.Cmd {
	machine := p.machine
	student, topic, grade := p.student, p.topic, p.grade
	return func() tea.Msg {
		sess, err := machine.Start(context.Background(), student, topic, grade)
		return sessionReadyMsg{Session: sess, Err: err}
	}
}

func (p *PracticeScreen) handleSessionReady(msg sessionReadyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.errMsg = msg.Err.Error()
		return p, nil
	}
	p.sess = msg.Session
	p.phase = phaseAnswering
	p.hint = ""
	p.errMsg = ""
	p.input = components.NewTextInput("Type your answer...", 80)

	return p, tea.Batch(p.input.Init(), p.logSessionStart())
}

func (p *PracticeScreen) handleQuestionReady(msg questionReadyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.hint = fmt.Sprintf("Couldn't fetch a question: %v (press Enter to retry)", msg.Err)
		if msg.retryable {
			// The index already points at the pending question. Stay in
			// the loading phase so Enter re-runs the fetch there instead
			// of advancing past it.
			p.phase = phaseLoading
		} else {
			p.phase = p.resumePhase()
		}
		return p, nil
	}

	p.hint = ""
	if p.sess.Finished {
		p.phase = phaseFinished
		return p, p.logSessionEnd()
	}

	p.phase = phaseAnswering
	p.input = components.NewTextInput("Type your answer...", 80)
	return p, p.input.Init()
}

func (p *PracticeScreen) handleGraded(msg gradedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		p.hint = msg.Err.Error()
		p.phase = phaseAnswering
		return p, nil
	}
	if msg.Verdict == quiz.VerdictNeedsInput {
		p.hint = "Type an answer first."
		p.phase = phaseAnswering
		return p, nil
	}
	p.phase = phaseGraded
	return p, nil
}

func (p *PracticeScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if p.errMsg != "" {
		return p, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if p.sess == nil {
		return p, nil
	}

	switch p.phase {
	case phaseQuitConfirm:
		switch key {
		case "y", "Y":
			return p, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			p.phase = p.resumePhase()
		}
		return p, nil

	case phaseFinished:
		return p.showSummary()

	case phaseParams:
		switch key {
		case "tab", "shift+tab", "up", "down":
			if p.paramFocus == 0 {
				p.paramGrade.Blur()
				p.paramFocus = 1
				return p, p.paramTopic.Focus()
			}
			p.paramTopic.Blur()
			p.paramFocus = 0
			return p, p.paramGrade.Focus()
		case "enter":
			return p.applyParams()
		case "esc":
			p.phase = p.resumePhase()
			return p, nil
		}
		return p.forwardToInput(msg)

	case phaseGraded:
		switch key {
		case "enter", "space":
			p.phase = phaseLoading
			return p, p.nextQuestion()
		case "p", "P":
			return p.openParams()
		case "r", "R":
			return p.restart()
		case "esc":
			p.phase = phaseQuitConfirm
			return p, nil
		}
		return p, nil

	case phaseAnswering:
		switch key {
		case "enter":
			return p.submit()
		case "esc":
			p.phase = phaseQuitConfirm
			return p, nil
		}
		// Plain "p" and "r" belong to the answer text here.
		return p.forwardToInput(msg)

	case phaseLoading:
		if key == "enter" && p.hint != "" {
			// Retry the failed advance.
			p.hint = ""
			return p, p.nextQuestionRetry()
		}
	}

	return p, nil
}

// resumePhase returns the phase to fall back to when a dialog closes.
func (p *PracticeScreen) resumePhase() phase {
	if p.sess != nil && p.sess.RevealAnswer {
		return phaseGraded
	}
	return phaseAnswering
}

func (p *PracticeScreen) submit() (screen.Screen, tea.Cmd) {
	machine, sess := p.machine, p.sess
	answer := p.input.Value()
	p.phase = phaseLoading
	return p, func() tea.Msg {
		verdict, err := machine.Submit(context.Background(), sess, answer)
		if err != nil {
			return gradedMsg{Verdict: verdict, Err: err}
		}
		return gradedMsg{Verdict: verdict}
	}
}

func (p *PracticeScreen) nextQuestion() tea.Cmd {
	machine, sess := p.machine, p.sess
	return func() tea.Msg {
		if err := machine.Next(context.Background(), sess); err != nil {
			return questionReadyMsg{Err: err, retryable: true}
		}
		return questionReadyMsg{}
	}
}

// nextQuestionRetry re-runs Advance at the current index after a source
// failure, without bumping the index again.
func (p *PracticeScreen) nextQuestionRetry() tea.Cmd {
	machine, sess := p.machine, p.sess
	return func() tea.Msg {
		if err := machine.Advance(context.Background(), sess); err != nil {
			return questionReadyMsg{Err: err, retryable: true}
		}
		return questionReadyMsg{}
	}
}

func (p *PracticeScreen) openParams() (screen.Screen, tea.Cmd) {
	p.phase = phaseParams
	p.paramFocus = 0
	p.paramGrade = components.NewTextInput("Grade", 20)
	p.paramTopic = components.NewTextInput("Topic", 60)
	p.paramGrade.Model.SetValue(p.sess.Grade)
	p.paramTopic.Model.SetValue(p.sess.Topic)
	return p, p.paramGrade.Focus()
}

func (p *PracticeScreen) applyParams() (screen.Screen, tea.Cmd) {
	machine, sess := p.machine, p.sess
	grade := p.paramGrade.Value()
	topic := p.paramTopic.Value()
	p.phase = phaseLoading
	return p, func() tea.Msg {
		if err := machine.SetParams(context.Background(), sess, topic, grade); err != nil {
			return questionReadyMsg{Err: err}
		}
		return questionReadyMsg{}
	}
}

func (p *PracticeScreen) restart() (screen.Screen, tea.Cmd) {
	p.phase = phaseLoading
	p.sess = nil
	return p, p.startSession()
}

func (p *PracticeScreen) showSummary() (screen.Screen, tea.Cmd) {
	sess := p.sess
	machine, eventRepo := p.machine, p.eventRepo
	student, grade, topic := p.student, p.grade, p.topic
	restart := func() screen.Screen {
		return New(machine, eventRepo, student, grade, topic)
	}
	return p, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(sess, restart)}
	}
}

// logSessionStart records the start event. Best-effort; the session
// does not depend on the event log.
func (p *PracticeScreen) logSessionStart() tea.Cmd {
	repo, sess := p.eventRepo, p.sess
	if repo == nil {
		return nil
	}
	return func() tea.Msg {
		_ = repo.AppendSessionEvent(context.Background(), store.SessionEventData{
			SessionID: sess.ID,
			Action:    "start",
			Student:   sess.Student,
			Topic:     sess.Topic,
			Grade:     sess.Grade,
		})
		return nil
	}
}

// logSessionEnd writes the summary row to the history sink and the end
// event to the local store.
func (p *PracticeScreen) logSessionEnd() tea.Cmd {
	machine, repo, sess := p.machine, p.eventRepo, p.sess
	return func() tea.Msg {
		ctx := context.Background()
		machine.Finish(ctx, sess)
		if repo != nil {
			_ = repo.AppendSessionEvent(ctx, store.SessionEventData{
				SessionID:       sess.ID,
				Action:          "end",
				Student:         sess.Student,
				Topic:           sess.Topic,
				Grade:           sess.Grade,
				QuestionsServed: sess.Total,
				CorrectAnswers:  sess.Score,
				ScorePercent:    sess.ScorePercent(),
				DurationSecs:    int(time.Since(sess.StartedAt).Seconds()),
			})
		}
		return finishLoggedMsg{}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
