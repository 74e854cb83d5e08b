package placement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig mirrors a small two-to-three phase placement product: 5 initial
// questions, low scores drop to an easier followup, high scores jump straight
// to the hard final.
func testConfig() *BranchConfig {
	return &BranchConfig{
		Product: "hsk-placement-test",
		PhaseSeconds: map[Phase]int{
			PhaseInitial:  600,
			PhaseFollowup: 600,
			PhaseFinal:    600,
		},
		InitialQuestions: []BatchSpec{{Level: "hsk1", Count: 5}},
		Branches: []Branch{
			{
				Name:          "easy",
				Condition:     BranchCondition{FromPhase: PhaseInitial, CorrectRange: [2]int{0, 3}},
				NextQuestions: []BatchSpec{{Level: "hsk1", Count: 4}},
				NextPhase:     PhaseFollowup,
			},
			{
				Name:          "hard",
				Condition:     BranchCondition{FromPhase: PhaseInitial, CorrectRange: [2]int{4, 5}},
				NextQuestions: []BatchSpec{{Level: "hsk3", Count: 5}},
				NextPhase:     PhaseFinal,
			},
			{
				Name:        "stay-basic",
				Condition:   BranchCondition{FromPhase: PhaseFollowup, CorrectRange: [2]int{0, 2}},
				ResultLevel: "HSK1",
			},
			{
				Name:          "recovered",
				Condition:     BranchCondition{FromPhase: PhaseFollowup, CorrectRange: [2]int{3, 4}},
				NextQuestions: []BatchSpec{{Level: "hsk3", Count: 5}},
				NextPhase:     PhaseFinal,
			},
			{
				Name:        "intermediate",
				Condition:   BranchCondition{FromPhase: PhaseFinal, CorrectRange: [2]int{0, 3}},
				ResultLevel: "HSK2",
			},
			{
				Name:        "advanced",
				Condition:   BranchCondition{FromPhase: PhaseFinal, CorrectRange: [2]int{4, 5}},
				ResultLevel: "HSK3",
			},
		},
		Rewards: []RewardRule{
			{Level: "HSK1", Experience: 50, Currency: 10},
			{Level: "HSK2", Experience: 80, Currency: 20},
			{Level: "HSK3", Experience: 120, Currency: 30},
		},
	}
}

func TestValidateAcceptsFixture(t *testing.T) {
	require.NoError(t, testConfig().Validate())
}

func TestValidateRejectsCoverageGap(t *testing.T) {
	cfg := testConfig()
	// Shrink the easy band so initial score 4 falls through the table.
	cfg.Branches[0].Condition.CorrectRange = [2]int{0, 2}
	cfg.Branches[1].Condition.CorrectRange = [2]int{5, 5}

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrBadBranchConfig)
	assert.Contains(t, err.Error(), "matches no branch")
}

func TestValidateRejectsMalformedBranches(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BranchConfig)
	}{
		{"both next and result", func(c *BranchConfig) {
			c.Branches[0].ResultLevel = "HSK1"
		}},
		{"neither next nor result", func(c *BranchConfig) {
			c.Branches[0].NextQuestions = nil
		}},
		{"advance without nextPhase", func(c *BranchConfig) {
			c.Branches[0].NextPhase = ""
		}},
		{"backwards transition", func(c *BranchConfig) {
			c.Branches[3].NextPhase = PhaseInitial
		}},
		{"inverted range", func(c *BranchConfig) {
			c.Branches[0].Condition.CorrectRange = [2]int{3, 0}
		}},
		{"missing reward rule", func(c *BranchConfig) {
			c.Rewards = c.Rewards[:1]
		}},
		{"empty initial batch", func(c *BranchConfig) {
			c.InitialQuestions = nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrBadBranchConfig)
		})
	}
}

func TestSelectBranchEveryScoreMatches(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	phaseTotals := map[Phase]int{
		PhaseInitial:  5,
		PhaseFollowup: 4,
		PhaseFinal:    5,
	}
	for phase, total := range phaseTotals {
		for score := 0; score <= total; score++ {
			outcome, err := SelectBranch(cfg, phase, score, total)
			require.NoError(t, err, "phase %s score %d", phase, score)
			assert.NotEmpty(t, outcome.BranchName)
		}
	}
}

func TestSelectBranchBounds(t *testing.T) {
	cfg := testConfig()

	low, err := SelectBranch(cfg, PhaseInitial, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, "easy", low.BranchName)
	assert.Equal(t, PhaseFollowup, low.NextPhase)
	assert.False(t, low.Terminal)

	high, err := SelectBranch(cfg, PhaseInitial, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, "hard", high.BranchName)
	assert.Equal(t, PhaseFinal, high.NextPhase)

	terminal, err := SelectBranch(cfg, PhaseFinal, 5, 5)
	require.NoError(t, err)
	assert.True(t, terminal.Terminal)
	assert.Equal(t, "HSK3", terminal.Level)
}

func TestSelectBranchFirstMatchWins(t *testing.T) {
	cfg := testConfig()
	// Overlap the initial bands: configured order decides, no best-match
	// scoring.
	cfg.Branches[1].Condition.CorrectRange = [2]int{0, 5}

	outcome, err := SelectBranch(cfg, PhaseInitial, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, "easy", outcome.BranchName)
}

func TestSelectBranchNoMatch(t *testing.T) {
	cfg := testConfig()
	_, err := SelectBranch(cfg, PhaseInitial, 99, 5)
	require.ErrorIs(t, err, ErrNoBranchMatched)
}

func TestComputeReward(t *testing.T) {
	cfg := testConfig()

	r := ComputeReward(cfg, &Result{Level: "HSK2"})
	assert.Equal(t, Reward{Experience: 80, Currency: 20}, r)

	// Unknown level pays nothing rather than guessing.
	assert.Equal(t, Reward{}, ComputeReward(cfg, &Result{Level: "HSK9"}))
}
