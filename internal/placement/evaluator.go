package placement

import (
	"sort"
	"strings"
)

// Evaluate reports whether the submitted answer is correct for the question.
// It is a total function: a submission whose shape does not match the question
// type scores as incorrect rather than producing an error, and repeated calls
// with the same inputs always yield the same result.
func Evaluate(q Question, a SubmittedAnswer) bool {
	switch q.Type {
	case MultipleChoice:
		if len(q.CorrectSet) > 0 {
			return evaluateMultiSelect(q.CorrectSet, a)
		}
		return a.Kind == AnswerIndex && a.Index == q.CorrectIndex

	case FillBlank:
		if a.Kind != AnswerText {
			return false
		}
		return normalizeText(a.Text) == normalizeText(q.CorrectText)

	case SentenceOrder:
		if a.Kind != AnswerOrder {
			return false
		}
		return equalOrder(a.Indices, q.CorrectOrder)

	case ReadingComprehension:
		if a.Kind != AnswerSub || len(a.SubAnswers) != len(q.SubQuestions) {
			return false
		}
		for i, sub := range q.SubQuestions {
			if a.SubAnswers[i] != sub.CorrectIndex {
				return false
			}
		}
		return len(q.SubQuestions) > 0

	default:
		return false
	}
}

// evaluateMultiSelect compares submitted and correct indices as sets. No
// partial credit.
func evaluateMultiSelect(correct []int, a SubmittedAnswer) bool {
	if a.Kind != AnswerIndexSet || len(a.Indices) != len(correct) {
		return false
	}
	sub := append([]int(nil), a.Indices...)
	want := append([]int(nil), correct...)
	sort.Ints(sub)
	sort.Ints(want)
	for i := range want {
		if sub[i] != want[i] {
			return false
		}
	}
	return true
}

// equalOrder requires the exact sequence, position by position.
func equalOrder(got, want []int) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func normalizeText(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
