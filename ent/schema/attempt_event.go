package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// AttemptEvent records one graded submission within a session.
type AttemptEvent struct {
	ent.Schema
}

func (AttemptEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (AttemptEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty().
			Comment("Links to SessionEvent"),
		field.String("student").
			NotEmpty().
			Comment("Student name, lowercased"),
		field.String("topic").
			NotEmpty().
			Comment("Topic the question was generated for"),
		field.String("grade").
			NotEmpty().
			Comment("Grade level, e.g. Grade 6"),
		field.String("tier").
			NotEmpty().
			Comment("easy, medium, or hard"),
		field.Int("question_index").
			Comment("1-based position in the session"),
		field.String("question_text").
			NotEmpty().
			Comment("The question shown"),
		field.String("reference_answer").
			Comment("Model-provided answer; sentinel when unparseable"),
		field.String("student_answer").
			NotEmpty().
			Comment("What the student typed"),
		field.String("verdict").
			NotEmpty().
			Comment("correct or incorrect"),
	}
}

func (AttemptEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
		index.Fields("student"),
		index.Fields("topic"),
	}
}
