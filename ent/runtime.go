// Code generated by ent, DO NOT EDIT.

package ent

import (
	"time"

	"github.com/anand/mathdrill/ent/attemptevent"
	"github.com/anand/mathdrill/ent/llmrequestevent"
	"github.com/anand/mathdrill/ent/schema"
	"github.com/anand/mathdrill/ent/sessionevent"
)

// The init function reads all schema descriptors with runtime code
// (default values, validators, hooks and policies) and stitches it
// to their package variables.
func init() {
	attempteventMixin := schema.AttemptEvent{}.Mixin()
	attempteventMixinFields0 := attempteventMixin[0].Fields()
	_ = attempteventMixinFields0
	attempteventFields := schema.AttemptEvent{}.Fields()
	_ = attempteventFields
	// attempteventDescTimestamp is the schema descriptor for timestamp field.
	attempteventDescTimestamp := attempteventMixinFields0[1].Descriptor()
	// attemptevent.DefaultTimestamp holds the default value on creation for the timestamp field.
	attemptevent.DefaultTimestamp = attempteventDescTimestamp.Default.(func() time.Time)
	// attempteventDescSessionID is the schema descriptor for session_id field.
	attempteventDescSessionID := attempteventFields[0].Descriptor()
	// attemptevent.SessionIDValidator is a validator for the "session_id" field. It is called by the builders before save.
	attemptevent.SessionIDValidator = attempteventDescSessionID.Validators[0].(func(string) error)
	// attempteventDescStudent is the schema descriptor for student field.
	attempteventDescStudent := attempteventFields[1].Descriptor()
	// attemptevent.StudentValidator is a validator for the "student" field. It is called by the builders before save.
	attemptevent.StudentValidator = attempteventDescStudent.Validators[0].(func(string) error)
	// attempteventDescTopic is the schema descriptor for topic field.
	attempteventDescTopic := attempteventFields[2].Descriptor()
	// attemptevent.TopicValidator is a validator for the "topic" field. It is called by the builders before save.
	attemptevent.TopicValidator = attempteventDescTopic.Validators[0].(func(string) error)
	// attempteventDescGrade is the schema descriptor for grade field.
	attempteventDescGrade := attempteventFields[3].Descriptor()
	// attemptevent.GradeValidator is a validator for the "grade" field. It is called by the builders before save.
	attemptevent.GradeValidator = attempteventDescGrade.Validators[0].(func(string) error)
	// attempteventDescTier is the schema descriptor for tier field.
	attempteventDescTier := attempteventFields[4].Descriptor()
	// attemptevent.TierValidator is a validator for the "tier" field. It is called by the builders before save.
	attemptevent.TierValidator = attempteventDescTier.Validators[0].(func(string) error)
	// attempteventDescQuestionText is the schema descriptor for question_text field.
	attempteventDescQuestionText := attempteventFields[6].Descriptor()
	// attemptevent.QuestionTextValidator is a validator for the "question_text" field. It is called by the builders before save.
	attemptevent.QuestionTextValidator = attempteventDescQuestionText.Validators[0].(func(string) error)
	// attempteventDescStudentAnswer is the schema descriptor for student_answer field.
	attempteventDescStudentAnswer := attempteventFields[8].Descriptor()
	// attemptevent.StudentAnswerValidator is a validator for the "student_answer" field. It is called by the builders before save.
	attemptevent.StudentAnswerValidator = attempteventDescStudentAnswer.Validators[0].(func(string) error)
	// attempteventDescVerdict is the schema descriptor for verdict field.
	attempteventDescVerdict := attempteventFields[9].Descriptor()
	// attemptevent.VerdictValidator is a validator for the "verdict" field. It is called by the builders before save.
	attemptevent.VerdictValidator = attempteventDescVerdict.Validators[0].(func(string) error)
	llmrequesteventMixin := schema.LLMRequestEvent{}.Mixin()
	llmrequesteventMixinFields0 := llmrequesteventMixin[0].Fields()
	_ = llmrequesteventMixinFields0
	llmrequesteventFields := schema.LLMRequestEvent{}.Fields()
	_ = llmrequesteventFields
	// llmrequesteventDescTimestamp is the schema descriptor for timestamp field.
	llmrequesteventDescTimestamp := llmrequesteventMixinFields0[1].Descriptor()
	// llmrequestevent.DefaultTimestamp holds the default value on creation for the timestamp field.
	llmrequestevent.DefaultTimestamp = llmrequesteventDescTimestamp.Default.(func() time.Time)
	// llmrequesteventDescInputTokens is the schema descriptor for input_tokens field.
	llmrequesteventDescInputTokens := llmrequesteventFields[3].Descriptor()
	// llmrequestevent.DefaultInputTokens holds the default value on creation for the input_tokens field.
	llmrequestevent.DefaultInputTokens = llmrequesteventDescInputTokens.Default.(int)
	// llmrequesteventDescOutputTokens is the schema descriptor for output_tokens field.
	llmrequesteventDescOutputTokens := llmrequesteventFields[4].Descriptor()
	// llmrequestevent.DefaultOutputTokens holds the default value on creation for the output_tokens field.
	llmrequestevent.DefaultOutputTokens = llmrequesteventDescOutputTokens.Default.(int)
	// llmrequesteventDescLatencyMs is the schema descriptor for latency_ms field.
	llmrequesteventDescLatencyMs := llmrequesteventFields[5].Descriptor()
	// llmrequestevent.DefaultLatencyMs holds the default value on creation for the latency_ms field.
	llmrequestevent.DefaultLatencyMs = llmrequesteventDescLatencyMs.Default.(int64)
	// llmrequesteventDescErrorMessage is the schema descriptor for error_message field.
	llmrequesteventDescErrorMessage := llmrequesteventFields[7].Descriptor()
	// llmrequestevent.DefaultErrorMessage holds the default value on creation for the error_message field.
	llmrequestevent.DefaultErrorMessage = llmrequesteventDescErrorMessage.Default.(string)
	// llmrequesteventDescRequestBody is the schema descriptor for request_body field.
	llmrequesteventDescRequestBody := llmrequesteventFields[8].Descriptor()
	// llmrequestevent.DefaultRequestBody holds the default value on creation for the request_body field.
	llmrequestevent.DefaultRequestBody = llmrequesteventDescRequestBody.Default.(string)
	// llmrequesteventDescResponseBody is the schema descriptor for response_body field.
	llmrequesteventDescResponseBody := llmrequesteventFields[9].Descriptor()
	// llmrequestevent.DefaultResponseBody holds the default value on creation for the response_body field.
	llmrequestevent.DefaultResponseBody = llmrequesteventDescResponseBody.Default.(string)
	sessioneventMixin := schema.SessionEvent{}.Mixin()
	sessioneventMixinFields0 := sessioneventMixin[0].Fields()
	_ = sessioneventMixinFields0
	sessioneventFields := schema.SessionEvent{}.Fields()
	_ = sessioneventFields
	// sessioneventDescTimestamp is the schema descriptor for timestamp field.
	sessioneventDescTimestamp := sessioneventMixinFields0[1].Descriptor()
	// sessionevent.DefaultTimestamp holds the default value on creation for the timestamp field.
	sessionevent.DefaultTimestamp = sessioneventDescTimestamp.Default.(func() time.Time)
	// sessioneventDescSessionID is the schema descriptor for session_id field.
	sessioneventDescSessionID := sessioneventFields[0].Descriptor()
	// sessionevent.SessionIDValidator is a validator for the "session_id" field. It is called by the builders before save.
	sessionevent.SessionIDValidator = sessioneventDescSessionID.Validators[0].(func(string) error)
	// sessioneventDescAction is the schema descriptor for action field.
	sessioneventDescAction := sessioneventFields[1].Descriptor()
	// sessionevent.ActionValidator is a validator for the "action" field. It is called by the builders before save.
	sessionevent.ActionValidator = sessioneventDescAction.Validators[0].(func(string) error)
	// sessioneventDescStudent is the schema descriptor for student field.
	sessioneventDescStudent := sessioneventFields[2].Descriptor()
	// sessionevent.StudentValidator is a validator for the "student" field. It is called by the builders before save.
	sessionevent.StudentValidator = sessioneventDescStudent.Validators[0].(func(string) error)
	// sessioneventDescTopic is the schema descriptor for topic field.
	sessioneventDescTopic := sessioneventFields[3].Descriptor()
	// sessionevent.TopicValidator is a validator for the "topic" field. It is called by the builders before save.
	sessionevent.TopicValidator = sessioneventDescTopic.Validators[0].(func(string) error)
	// sessioneventDescGrade is the schema descriptor for grade field.
	sessioneventDescGrade := sessioneventFields[4].Descriptor()
	// sessionevent.GradeValidator is a validator for the "grade" field. It is called by the builders before save.
	sessionevent.GradeValidator = sessioneventDescGrade.Validators[0].(func(string) error)
	// sessioneventDescQuestionsServed is the schema descriptor for questions_served field.
	sessioneventDescQuestionsServed := sessioneventFields[5].Descriptor()
	// sessionevent.DefaultQuestionsServed holds the default value on creation for the questions_served field.
	sessionevent.DefaultQuestionsServed = sessioneventDescQuestionsServed.Default.(int)
	// sessioneventDescCorrectAnswers is the schema descriptor for correct_answers field.
	sessioneventDescCorrectAnswers := sessioneventFields[6].Descriptor()
	// sessionevent.DefaultCorrectAnswers holds the default value on creation for the correct_answers field.
	sessionevent.DefaultCorrectAnswers = sessioneventDescCorrectAnswers.Default.(int)
	// sessioneventDescScorePercent is the schema descriptor for score_percent field.
	sessioneventDescScorePercent := sessioneventFields[7].Descriptor()
	// sessionevent.DefaultScorePercent holds the default value on creation for the score_percent field.
	sessionevent.DefaultScorePercent = sessioneventDescScorePercent.Default.(float64)
	// sessioneventDescDurationSecs is the schema descriptor for duration_secs field.
	sessioneventDescDurationSecs := sessioneventFields[8].Descriptor()
	// sessionevent.DefaultDurationSecs holds the default value on creation for the duration_secs field.
	sessionevent.DefaultDurationSecs = sessioneventDescDurationSecs.Default.(int)
}
