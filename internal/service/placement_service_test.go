package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/internal/placement"
	"lingua_edu_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func TestDecodeAnswerByType(t *testing.T) {
	cases := []struct {
		name  string
		qtype placement.QuestionType
		raw   string
		want  placement.SubmittedAnswer
	}{
		{
			name:  "single choice index",
			qtype: placement.MultipleChoice,
			raw:   `2`,
			want:  placement.SubmittedAnswer{Kind: placement.AnswerIndex, Index: 2},
		},
		{
			name:  "multi-select indices",
			qtype: placement.MultipleChoice,
			raw:   `[0,2]`,
			want:  placement.SubmittedAnswer{Kind: placement.AnswerIndexSet, Indices: []int{0, 2}},
		},
		{
			name:  "fill blank text",
			qtype: placement.FillBlank,
			raw:   `"xiè xiè"`,
			want:  placement.SubmittedAnswer{Kind: placement.AnswerText, Text: "xiè xiè"},
		},
		{
			name:  "sentence order",
			qtype: placement.SentenceOrder,
			raw:   `[2,0,1]`,
			want:  placement.SubmittedAnswer{Kind: placement.AnswerOrder, Indices: []int{2, 0, 1}},
		},
		{
			name:  "reading comprehension sub-answers",
			qtype: placement.ReadingComprehension,
			raw:   `[0,1]`,
			want:  placement.SubmittedAnswer{Kind: placement.AnswerSub, SubAnswers: []int{0, 1}},
		},
		{
			name:  "shape mismatch becomes empty answer",
			qtype: placement.FillBlank,
			raw:   `[1,2]`,
			want:  placement.SubmittedAnswer{Kind: placement.AnswerNone},
		},
		{
			name:  "garbage becomes empty answer",
			qtype: placement.MultipleChoice,
			raw:   `{"bogus":true}`,
			want:  placement.SubmittedAnswer{Kind: placement.AnswerNone},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := decodeAnswer(tc.qtype, json.RawMessage(tc.raw))
			assert.Equal(t, tc.want, got)
		})
	}
}

func writeProduct(t *testing.T, dir, name string, cfg placement.BranchConfig) {
	t.Helper()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func validProduct(name string) placement.BranchConfig {
	return placement.BranchConfig{
		Product: name,
		PhaseSeconds: map[placement.Phase]int{
			placement.PhaseInitial:  300,
			placement.PhaseFollowup: 300,
			placement.PhaseFinal:    300,
		},
		InitialQuestions: []placement.BatchSpec{{Level: "hsk1", Count: 4}},
		Branches: []placement.Branch{
			{
				Name:          "low",
				Condition:     placement.BranchCondition{FromPhase: placement.PhaseInitial, CorrectRange: [2]int{0, 2}},
				NextPhase:     placement.PhaseFinal,
				NextQuestions: []placement.BatchSpec{{Level: "hsk1", Count: 3}},
			},
			{
				Name:          "high",
				Condition:     placement.BranchCondition{FromPhase: placement.PhaseInitial, CorrectRange: [2]int{3, 4}},
				NextPhase:     placement.PhaseFinal,
				NextQuestions: []placement.BatchSpec{{Level: "hsk2", Count: 3}},
			},
			{
				Name:        "basic",
				Condition:   placement.BranchCondition{FromPhase: placement.PhaseFinal, CorrectRange: [2]int{0, 1}},
				ResultLevel: "hsk1",
			},
			{
				Name:        "solid",
				Condition:   placement.BranchCondition{FromPhase: placement.PhaseFinal, CorrectRange: [2]int{2, 3}},
				ResultLevel: "hsk2",
			},
		},
		Rewards: []placement.RewardRule{
			{Level: "hsk1", Experience: 50, Currency: 10},
			{Level: "hsk2", Experience: 80, Currency: 20},
		},
	}
}

func newRegistryService(t *testing.T, dir string) *PlacementService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Storage.Type = "local"
	cfg.Placement.ConfigDir = dir
	cfg.Placement.DefaultProduct = "hsk-main"

	svc, err := NewPlacementService(nil, nil, nil, nil, NewStorageService(cfg), cfg)
	require.NoError(t, err)
	return svc
}

func TestReloadProductsLoadsValidFiles(t *testing.T) {
	dir := t.TempDir()
	writeProduct(t, dir, "main.json", validProduct("hsk-main"))
	writeProduct(t, dir, "kids.json", validProduct("hsk-kids"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	svc := newRegistryService(t, dir)

	assert.ElementsMatch(t, []string{"hsk-main", "hsk-kids"}, svc.ProductNames())

	// 空产品名回落到默认产品
	cfg, err := svc.Product("")
	require.NoError(t, err)
	assert.Equal(t, "hsk-main", cfg.Product)

	_, err = svc.Product("missing")
	assert.Error(t, err)
}

func TestReloadProductsSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeProduct(t, dir, "main.json", validProduct("hsk-main"))

	// 覆盖缺口：initial 只匹配 [0,2]，3 和 4 分无路可走
	broken := validProduct("hsk-broken")
	broken.Branches = broken.Branches[:1]
	writeProduct(t, dir, "broken.json", broken)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("{not json"), 0644))

	svc := newRegistryService(t, dir)

	assert.ElementsMatch(t, []string{"hsk-main"}, svc.ProductNames())
}

func TestReloadProductsKeepsRegistryWhenDirGoesBad(t *testing.T) {
	dir := t.TempDir()
	writeProduct(t, dir, "main.json", validProduct("hsk-main"))

	svc := newRegistryService(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, "main.json")))

	// 目录清空后重载保持旧注册表
	require.NoError(t, svc.ReloadProducts())
	assert.ElementsMatch(t, []string{"hsk-main"}, svc.ProductNames())
}
