package question

// Tier is the difficulty band a question is generated for.
// The band is a pure function of the question's position in the drill,
// computed by the quiz package.
type Tier string

const (
	TierEasy   Tier = "easy"
	TierMedium Tier = "medium"
	TierHard   Tier = "hard"
)

// String returns the display label for the tier.
func (t Tier) String() string {
	switch t {
	case TierEasy:
		return "Easy"
	case TierMedium:
		return "Medium"
	case TierHard:
		return "Hard"
	}
	return string(t)
}

// Unparseable is the sentinel reference answer assigned when the model's
// payload is missing the question/answer delimiter. A question carrying
// it can never be graded by comparison; grading must short-circuit.
const Unparseable = "<unparseable>"

// Question is a single generated question. Immutable once created;
// advancing the drill replaces it wholesale.
type Question struct {
	// Text is the question prompt shown to the student.
	Text string

	// ReferenceAnswer is the model-provided correct answer, or the
	// Unparseable sentinel when the payload had no delimiter.
	ReferenceAnswer string

	// Topic and Grade are the generation parameters the question was
	// produced under.
	Topic string
	Grade string

	// Tier is the difficulty band for the question's index.
	Tier Tier

	// Index is the 1-based position in the drill this question belongs to.
	Index int
}

// Gradeable reports whether the question has a usable reference answer.
func (q *Question) Gradeable() bool {
	return q.ReferenceAnswer != Unparseable
}
