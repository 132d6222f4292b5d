package store

import (
	"context"
	"fmt"
	"time"
)

// Summarize aggregates the student's completed sessions. Aggregation runs
// as raw SQL over the session_events table; ent's query builder has no
// GROUP BY surface for this shape.
func (r *eventRepo) Summarize(ctx context.Context, student string) (*StudentSummary, error) {
	summary := &StudentSummary{Student: student}

	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(AVG(score_percent), 0), COALESCE(MAX(timestamp), '')
		FROM session_events
		WHERE student = ? AND action = 'end'`, student)

	var lastRaw string
	if err := row.Scan(&summary.Sessions, &summary.AverageScore, &lastRaw); err != nil {
		return nil, fmt.Errorf("summarize sessions: %w", err)
	}
	if lastRaw != "" {
		if ts, err := parseSQLiteTime(lastRaw); err == nil {
			summary.LastPracticed = ts
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT topic, COUNT(*), AVG(score_percent)
		FROM session_events
		WHERE student = ? AND action = 'end'
		GROUP BY topic
		ORDER BY AVG(score_percent) ASC`, student)
	if err != nil {
		return nil, fmt.Errorf("summarize topics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ta TopicAverage
		if err := rows.Scan(&ta.Topic, &ta.Sessions, &ta.AverageScore); err != nil {
			return nil, fmt.Errorf("scan topic row: %w", err)
		}
		summary.Topics = append(summary.Topics, ta)
		if ta.AverageScore < weakTopicThreshold {
			summary.WeakTopics = append(summary.WeakTopics, ta.Topic)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic rows: %w", err)
	}

	return summary, nil
}

// parseSQLiteTime handles the timestamp formats SQLite may hand back
// depending on how the value was bound.
func parseSQLiteTime(raw string) (time.Time, error) {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
