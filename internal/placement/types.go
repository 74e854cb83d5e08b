package placement

import (
	"fmt"
	"strings"
	"time"
)

// Phase 测评阶段
type Phase string

const (
	PhaseInitial   Phase = "initial"
	PhaseFollowup  Phase = "followup"
	PhaseFinal     Phase = "final"
	PhaseCompleted Phase = "completed"
)

// QuestionType 题型
type QuestionType string

const (
	MultipleChoice       QuestionType = "multiple_choice"
	FillBlank            QuestionType = "fill_blank"
	ReadingComprehension QuestionType = "reading_comprehension"
	SentenceOrder        QuestionType = "sentence_order"
)

// SubQuestion is one independently scored part of a reading comprehension
// question. All sub-questions must be answered correctly for the parent
// question to count as correct.
type SubQuestion struct {
	Options      []string `json:"options"`
	CorrectIndex int      `json:"-"`
}

// Question is the engine-side view of one assessable item. Exactly one of the
// Correct* fields is populated, matching Type.
type Question struct {
	ID       string       `json:"id"`
	Type     QuestionType `json:"questionType"`
	Level    string       `json:"level"`
	Prompt   string       `json:"prompt"`
	AudioURL string       `json:"audioUrl,omitempty"`
	Options  []string     `json:"options,omitempty"`

	CorrectIndex int           `json:"-"` // multiple_choice, single answer
	CorrectSet   []int         `json:"-"` // multiple_choice, multi-select (nil when single)
	CorrectText  string        `json:"-"` // fill_blank
	CorrectOrder []int         `json:"-"` // sentence_order
	SubQuestions []SubQuestion `json:"subQuestions,omitempty"`
}

// AnswerKind tags the shape of a submitted answer.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerIndex
	AnswerIndexSet
	AnswerText
	AnswerOrder
	AnswerSub
)

// SubmittedAnswer is the tagged union of everything a learner can submit.
// A shape that does not match the question type evaluates to incorrect.
type SubmittedAnswer struct {
	Kind       AnswerKind
	Index      int
	Indices    []int
	Text       string
	SubAnswers []int
}

// BatchSpec 指定某一难度等级抽取的题目数量
type BatchSpec struct {
	Level string `json:"level"`
	Count int    `json:"count"`
}

// BranchCondition matches a phase score against an inclusive range.
type BranchCondition struct {
	FromPhase    Phase  `json:"fromPhase"`
	CorrectRange [2]int `json:"correctRange"`
}

// Branch routes a score band either to a next phase with a fresh batch or to
// a terminal placement level. Exactly one of NextQuestions/ResultLevel is set.
type Branch struct {
	Name          string          `json:"name"`
	Condition     BranchCondition `json:"condition"`
	NextQuestions []BatchSpec     `json:"nextQuestions,omitempty"`
	NextPhase     Phase           `json:"nextPhase,omitempty"`
	ResultLevel   string          `json:"resultLevel,omitempty"`
}

// RewardRule maps a terminal placement level to its payout.
type RewardRule struct {
	Level      string `json:"level"`
	Experience int    `json:"experience"`
	Currency   int    `json:"currency"`
}

// BranchConfig is the static definition of one placement product. It is
// read-only after Validate and may be shared across sessions.
type BranchConfig struct {
	Product          string        `json:"product"`
	Cost             int           `json:"cost"`
	PhaseSeconds     map[Phase]int `json:"phaseSeconds"`
	InitialQuestions []BatchSpec   `json:"initialQuestions"`
	Branches         []Branch      `json:"branches"`
	Rewards          []RewardRule  `json:"rewards"`
}

// Reward 终局奖励
type Reward struct {
	Experience int `json:"experience"`
	Currency   int `json:"currency"`
}

// Result is the immutable terminal artifact of one attempt. Counts cover the
// final scored phase only.
type Result struct {
	SessionID      string    `json:"sessionId"`
	UserID         uint      `json:"userId"`
	Product        string    `json:"product"`
	Level          string    `json:"level"`
	CorrectCount   int       `json:"correctCount"`
	TotalQuestions int       `json:"totalQuestions"`
	Score          int       `json:"score"`
	BranchTrail    []string  `json:"branchTrail"`
	Rewards        Reward    `json:"rewards"`
	CompletedAt    time.Time `json:"completedAt"`
}

// BranchOutcome is the decision of the branch selector for one completed
// phase.
type BranchOutcome struct {
	Terminal   bool
	BranchName string
	NextPhase  Phase
	NextBatch  []BatchSpec
	Level      string
}

// ValidateKey checks that the answer key shape matches the question type.
// A mismatch is a content configuration error and must be caught before the
// question reaches a session; the evaluator itself never errors.
func (q Question) ValidateKey() error {
	switch q.Type {
	case MultipleChoice:
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: %s has no options", ErrBadQuestion, q.ID)
		}
		if len(q.CorrectSet) > 0 {
			for _, idx := range q.CorrectSet {
				if idx < 0 || idx >= len(q.Options) {
					return fmt.Errorf("%w: %s multi-select index %d", ErrBadQuestion, q.ID, idx)
				}
			}
			return nil
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: %s index %d", ErrBadQuestion, q.ID, q.CorrectIndex)
		}
	case FillBlank:
		if strings.TrimSpace(q.CorrectText) == "" {
			return fmt.Errorf("%w: %s empty fill-blank key", ErrBadQuestion, q.ID)
		}
	case SentenceOrder:
		if len(q.CorrectOrder) == 0 {
			return fmt.Errorf("%w: %s empty order key", ErrBadQuestion, q.ID)
		}
	case ReadingComprehension:
		if len(q.SubQuestions) == 0 {
			return fmt.Errorf("%w: %s has no sub-questions", ErrBadQuestion, q.ID)
		}
		for i, sub := range q.SubQuestions {
			if sub.CorrectIndex < 0 || sub.CorrectIndex >= len(sub.Options) {
				return fmt.Errorf("%w: %s sub-question %d index %d", ErrBadQuestion, q.ID, i, sub.CorrectIndex)
			}
		}
	default:
		return fmt.Errorf("%w: %s unknown type %q", ErrBadQuestion, q.ID, q.Type)
	}
	return nil
}
