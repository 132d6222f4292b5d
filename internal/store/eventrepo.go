package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anand/mathdrill/ent"
	"github.com/anand/mathdrill/ent/llmrequestevent"
)

// weakTopicThreshold marks topics needing more practice. Topics whose
// average score falls below it show up in StudentSummary.WeakTopics.
const weakTopicThreshold = 70.0

type eventRepo struct {
	client *ent.Client
	db     *sql.DB
	seq    *sequenceCounter
}

func (r *eventRepo) AppendAttempt(ctx context.Context, data AttemptEventData) error {
	seqNum, err := r.seq.next()
	if err != nil {
		return err
	}
	_, err = r.client.AttemptEvent.Create().
		SetSequence(seqNum).
		SetTimestamp(time.Now()).
		SetSessionID(data.SessionID).
		SetStudent(data.Student).
		SetTopic(data.Topic).
		SetGrade(data.Grade).
		SetTier(data.Tier).
		SetQuestionIndex(data.QuestionIndex).
		SetQuestionText(data.QuestionText).
		SetReferenceAnswer(data.ReferenceAnswer).
		SetStudentAnswer(data.StudentAnswer).
		SetVerdict(data.Verdict).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("append attempt event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.next()
	if err != nil {
		return err
	}
	_, err = r.client.SessionEvent.Create().
		SetSequence(seqNum).
		SetTimestamp(time.Now()).
		SetSessionID(data.SessionID).
		SetAction(data.Action).
		SetStudent(data.Student).
		SetTopic(data.Topic).
		SetGrade(data.Grade).
		SetQuestionsServed(data.QuestionsServed).
		SetCorrectAnswers(data.CorrectAnswers).
		SetScorePercent(data.ScorePercent).
		SetDurationSecs(data.DurationSecs).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("append session event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.next()
	if err != nil {
		return err
	}
	_, err = r.client.LLMRequestEvent.Create().
		SetSequence(seqNum).
		SetTimestamp(time.Now()).
		SetProvider(data.Provider).
		SetModel(data.Model).
		SetPurpose(data.Purpose).
		SetInputTokens(data.InputTokens).
		SetOutputTokens(data.OutputTokens).
		SetLatencyMs(data.LatencyMs).
		SetSuccess(data.Success).
		SetErrorMessage(data.ErrorMessage).
		SetRequestBody(data.RequestBody).
		SetResponseBody(data.ResponseBody).
		Save(ctx)
	if err != nil {
		return fmt.Errorf("append llm request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	q := r.client.LLMRequestEvent.Query().
		Order(ent.Desc(llmrequestevent.FieldSequence))
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	rows, err := q.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query llm events: %w", err)
	}

	events := make([]LLMEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, llmEventFromRow(row))
	}
	return events, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	row, err := r.client.LLMRequestEvent.Get(ctx, id)
	if err != nil {
		if ent.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get llm event %d: %w", id, err)
	}
	e := llmEventFromRow(row)
	return &e, nil
}

func llmEventFromRow(row *ent.LLMRequestEvent) LLMEvent {
	return LLMEvent{
		ID:           row.ID,
		Timestamp:    row.Timestamp,
		Provider:     row.Provider,
		Model:        row.Model,
		Purpose:      row.Purpose,
		InputTokens:  row.InputTokens,
		OutputTokens: row.OutputTokens,
		LatencyMs:    row.LatencyMs,
		Success:      row.Success,
		ErrorMessage: row.ErrorMessage,
		RequestBody:  row.RequestBody,
		ResponseBody: row.ResponseBody,
	}
}
