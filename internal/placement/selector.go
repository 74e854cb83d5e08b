package placement

import "fmt"

// SelectBranch picks the branch for a completed phase: linear scan of the
// configured branches filtered by fromPhase, first inclusive range match
// wins. Order in the config is significant; Validate has already guaranteed
// that every reachable score matches at least one branch, so an error here
// means the config changed underneath a running session.
func SelectBranch(cfg *BranchConfig, phase Phase, correctCount, totalInPhase int) (BranchOutcome, error) {
	for _, b := range cfg.Branches {
		if b.Condition.FromPhase != phase {
			continue
		}
		if correctCount < b.Condition.CorrectRange[0] || correctCount > b.Condition.CorrectRange[1] {
			continue
		}
		if b.ResultLevel != "" {
			return BranchOutcome{
				Terminal:   true,
				BranchName: b.Name,
				Level:      b.ResultLevel,
			}, nil
		}
		return BranchOutcome{
			BranchName: b.Name,
			NextPhase:  b.NextPhase,
			NextBatch:  b.NextQuestions,
		}, nil
	}
	return BranchOutcome{}, fmt.Errorf("%w: phase %s score %d/%d", ErrNoBranchMatched, phase, correctCount, totalInPhase)
}

// Validate checks the branch table at load time. An unmatched score must be a
// configuration error surfaced here, never a runtime fallback.
func (cfg *BranchConfig) Validate() error {
	if cfg.Product == "" {
		return fmt.Errorf("%w: missing product name", ErrBadBranchConfig)
	}
	if batchSize(cfg.InitialQuestions) <= 0 {
		return fmt.Errorf("%w: initialQuestions must request at least one question", ErrBadBranchConfig)
	}

	terminalLevels := make(map[string]bool)
	for i, b := range cfg.Branches {
		hasNext := len(b.NextQuestions) > 0
		hasLevel := b.ResultLevel != ""
		if hasNext == hasLevel {
			return fmt.Errorf("%w: branch %q must set exactly one of nextQuestions or resultLevel", ErrBadBranchConfig, b.Name)
		}
		if hasNext && b.NextPhase == "" {
			return fmt.Errorf("%w: branch %q advances without nextPhase", ErrBadBranchConfig, b.Name)
		}
		if hasNext && !validTransition(b.Condition.FromPhase, b.NextPhase) {
			return fmt.Errorf("%w: branch %q illegal transition %s -> %s", ErrBadBranchConfig, b.Name, b.Condition.FromPhase, b.NextPhase)
		}
		if b.Condition.CorrectRange[0] > b.Condition.CorrectRange[1] {
			return fmt.Errorf("%w: branch %q has inverted correctRange", ErrBadBranchConfig, b.Name)
		}
		if b.Name == "" {
			return fmt.Errorf("%w: branch %d has no name", ErrBadBranchConfig, i)
		}
		if hasLevel {
			terminalLevels[b.ResultLevel] = true
		}
	}

	for level := range terminalLevels {
		if _, ok := lookupReward(cfg.Rewards, level); !ok {
			return fmt.Errorf("%w: no reward rule for level %q", ErrBadBranchConfig, level)
		}
	}

	return cfg.validateCoverage()
}

// validateCoverage requires that for every phase, each possible batch size
// entering that phase has every score in [0, size] matched by some branch.
// A phase may be entered through branches whose batch specs disagree on
// size, so each distinct size is checked.
func (cfg *BranchConfig) validateCoverage() error {
	totals := map[Phase][]int{
		PhaseInitial: {batchSize(cfg.InitialQuestions)},
	}
	for _, b := range cfg.Branches {
		if len(b.NextQuestions) == 0 {
			continue
		}
		size := batchSize(b.NextQuestions)
		if size <= 0 {
			return fmt.Errorf("%w: branch %q requests an empty batch", ErrBadBranchConfig, b.Name)
		}
		totals[b.NextPhase] = appendUnique(totals[b.NextPhase], size)
	}

	for phase, sizes := range totals {
		for _, total := range sizes {
			for score := 0; score <= total; score++ {
				if !cfg.scoreMatched(phase, score) {
					return fmt.Errorf("%w: phase %s score %d/%d matches no branch", ErrBadBranchConfig, phase, score, total)
				}
			}
		}
	}
	return nil
}

func (cfg *BranchConfig) scoreMatched(phase Phase, score int) bool {
	for _, b := range cfg.Branches {
		if b.Condition.FromPhase == phase &&
			score >= b.Condition.CorrectRange[0] && score <= b.Condition.CorrectRange[1] {
			return true
		}
	}
	return false
}

// PhaseBudget returns the configured time budget for a phase, falling back
// to a sane default when the product omits one.
func (cfg *BranchConfig) PhaseBudget(phase Phase) int {
	const defaultPhaseSeconds = 300
	if s, ok := cfg.PhaseSeconds[phase]; ok && s > 0 {
		return s
	}
	return defaultPhaseSeconds
}

func validTransition(from, to Phase) bool {
	switch from {
	case PhaseInitial:
		return to == PhaseFollowup || to == PhaseFinal
	case PhaseFollowup:
		return to == PhaseFinal
	default:
		return false
	}
}

func batchSize(specs []BatchSpec) int {
	total := 0
	for _, s := range specs {
		total += s.Count
	}
	return total
}

func appendUnique(sizes []int, size int) []int {
	for _, s := range sizes {
		if s == size {
			return sizes
		}
	}
	return append(sizes, size)
}
