package placement

// ComputeReward looks up the payout for a terminal result in the product's
// reward table. Purely data-driven: any score-based differentiation belongs
// in the branch table, not here.
func ComputeReward(cfg *BranchConfig, result *Result) Reward {
	if r, ok := lookupReward(cfg.Rewards, result.Level); ok {
		return r
	}
	return Reward{}
}

func lookupReward(rules []RewardRule, level string) (Reward, bool) {
	for _, r := range rules {
		if r.Level == level {
			return Reward{Experience: r.Experience, Currency: r.Currency}, true
		}
	}
	return Reward{}, false
}
