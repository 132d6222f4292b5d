package practice

import (
	"github.com/anand/mathdrill/internal/quiz"
)

// sessionReadyMsg is sent when the session has started and the first
// question is available.
type sessionReadyMsg struct {
	Session *quiz.Session
	Err     error
}

// questionReadyMsg is sent when an advance (next question, parameter
// change, or finish transition) completes. retryable marks a failed
// fetch whose index is already pending: the retry must re-run the fetch
// at that index, not advance past it.
type questionReadyMsg struct {
	Err       error
	retryable bool
}

// gradedMsg is sent when a submitted answer has been graded.
type gradedMsg struct {
	Verdict quiz.Verdict
	Err     error
}

// finishLoggedMsg is sent after the session summary row and end event
// have been written.
type finishLoggedMsg struct{}
