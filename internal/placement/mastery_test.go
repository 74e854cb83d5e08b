package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func masteryQuiz() []Question {
	return []Question{
		singleChoice(0),
		{ID: "q-fill", Type: FillBlank, CorrectText: "谢谢"},
		{ID: "q-order", Type: SentenceOrder, Options: []string{"我", "很", "好"}, CorrectOrder: []int{0, 1, 2}},
	}
}

func TestMasteryAllCorrectIsLearned(t *testing.T) {
	outcome := ValidateMastery(masteryQuiz(), []SubmittedAnswer{
		{Kind: AnswerIndex, Index: 0},
		{Kind: AnswerText, Text: " 谢谢 "},
		{Kind: AnswerOrder, Indices: []int{0, 1, 2}},
	})

	assert.Equal(t, MasteryLearned, outcome.Status)
	assert.Equal(t, 3, outcome.CorrectCount)
	assert.Equal(t, 3, outcome.TotalQuestions)
}

func TestMasterySingleMissIsStudying(t *testing.T) {
	outcome := ValidateMastery(masteryQuiz(), []SubmittedAnswer{
		{Kind: AnswerIndex, Index: 0},
		{Kind: AnswerText, Text: "谢谢"},
		{Kind: AnswerOrder, Indices: []int{1, 0, 2}},
	})

	assert.Equal(t, MasteryStudying, outcome.Status)
	assert.Equal(t, 2, outcome.CorrectCount)
}

func TestMasteryMissingAnswersAreIncorrect(t *testing.T) {
	outcome := ValidateMastery(masteryQuiz(), []SubmittedAnswer{
		{Kind: AnswerIndex, Index: 0},
	})

	assert.Equal(t, MasteryStudying, outcome.Status)
	assert.Equal(t, 1, outcome.CorrectCount)
	assert.Equal(t, 3, outcome.TotalQuestions)
}

func TestMasteryEmptyQuizNeverLearns(t *testing.T) {
	outcome := ValidateMastery(nil, nil)
	assert.Equal(t, MasteryNoQuiz, outcome.Status)
	assert.Equal(t, 0, outcome.TotalQuestions)
}
