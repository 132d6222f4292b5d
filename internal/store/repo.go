package store

import (
	"context"
	"time"
)

// AttemptEventData captures one graded submission for the local log.
type AttemptEventData struct {
	SessionID       string
	Student         string
	Topic           string
	Grade           string
	Tier            string
	QuestionIndex   int
	QuestionText    string
	ReferenceAnswer string
	StudentAnswer   string
	Verdict         string
}

// SessionEventData captures a session lifecycle event.
type SessionEventData struct {
	SessionID       string
	Action          string // "start" or "end"
	Student         string
	Topic           string
	Grade           string
	QuestionsServed int
	CorrectAnswers  int
	ScorePercent    float64
	DurationSecs    int
}

// LLMRequestEventData captures the data for a single model request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored model request event as returned by queries.
type LLMEvent struct {
	ID           int
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// QueryOpts configures event queries.
type QueryOpts struct {
	Limit int // max results (0 = unlimited)
}

// TopicAverage is the aggregate performance on one topic.
type TopicAverage struct {
	Topic        string
	Sessions     int
	AverageScore float64
}

// StudentSummary aggregates a student's practice history.
type StudentSummary struct {
	Student       string
	Sessions      int
	AverageScore  float64
	LastPracticed time.Time
	Topics        []TopicAverage

	// WeakTopics lists topics averaging below the weakness threshold,
	// used as learner context for quiz generation.
	WeakTopics []string
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	// AppendAttempt records a graded submission.
	AppendAttempt(ctx context.Context, data AttemptEventData) error

	// AppendSessionEvent records a session start or end.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// AppendLLMRequest records a model API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns recent model request events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns one model request event by ID, or nil if it
	// does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// Summarize aggregates a student's completed sessions.
	Summarize(ctx context.Context, student string) (*StudentSummary, error)
}
