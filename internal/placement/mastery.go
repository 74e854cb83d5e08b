package placement

// MasteryStatus is the binary (plus "no quiz") outcome of a single-item
// validation quiz.
type MasteryStatus string

const (
	MasteryLearned  MasteryStatus = "learned"
	MasteryStudying MasteryStatus = "studying"
	MasteryNoQuiz   MasteryStatus = "no_quiz"
)

// MasteryOutcome reports one validation quiz run.
type MasteryOutcome struct {
	Status         MasteryStatus `json:"status"`
	CorrectCount   int           `json:"correctCount"`
	TotalQuestions int           `json:"totalQuestions"`
}

// ValidateMastery aggregates a single item's quiz with strict AND semantics:
// the item is learned only when every question is answered correctly. A
// missing answer counts as incorrect. An item with no quiz questions can
// never be granted learned status.
func ValidateMastery(questions []Question, answers []SubmittedAnswer) MasteryOutcome {
	if len(questions) == 0 {
		return MasteryOutcome{Status: MasteryNoQuiz}
	}

	correct := 0
	for i, q := range questions {
		if i < len(answers) && Evaluate(q, answers[i]) {
			correct++
		}
	}

	status := MasteryStudying
	if correct == len(questions) {
		status = MasteryLearned
	}
	return MasteryOutcome{
		Status:         status,
		CorrectCount:   correct,
		TotalQuestions: len(questions),
	}
}
