package scoring

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sectorlag/internal/contracts"
	"github.com/wonny/sectorlag/internal/rules"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ruleA() contracts.Rule {
	return contracts.Rule{
		Sector:         "CHEM",
		Lookback:       5,
		GroupThreshold: 0.03,
		Participation:  0.6,
		LaggerMaxMove:  0.02,
		EntryLag:       1,
		Hold:           5,
	}
}

func outcome(r contracts.Rule, ret float64, exit string) TradeOutcome {
	return TradeOutcome{Rule: r, Return: ret, ExitDate: day(exit)}
}

func TestRuleID_Format(t *testing.T) {
	id := RuleID(ruleA())
	assert.Regexp(t, regexp.MustCompile(`^R_[0-9A-F]{8}$`), id)
}

func TestRuleID_DeterministicAndDistinct(t *testing.T) {
	assert.Equal(t, RuleID(ruleA()), RuleID(ruleA()))

	other := ruleA()
	other.Hold = 7
	assert.NotEqual(t, RuleID(ruleA()), RuleID(other))

	otherSector := ruleA()
	otherSector.Sector = "BANKS"
	assert.NotEqual(t, RuleID(ruleA()), RuleID(otherSector))
}

func TestScore_QualityMode(t *testing.T) {
	r := ruleA()
	outcomes := []TradeOutcome{
		outcome(r, 0.04, "2024-03-01"),
		outcome(r, 0.02, "2024-03-05"),
		outcome(r, -0.01, "2024-03-10"),
		outcome(r, 0.03, "2024-03-15"),
	}

	scores := NewScorer(rules.ModeQuality).Score(outcomes)
	require.Len(t, scores, 1)
	s := scores[0]

	assert.Equal(t, 4, s.Trades)
	assert.InDelta(t, 0.75, s.WinRate, 1e-9)
	assert.InDelta(t, 0.02, s.AvgReturn, 1e-9)
	assert.InDelta(t, 0.025, s.MedianReturn, 1e-9)
	assert.InDelta(t, -0.01, s.MaxDrawdown, 1e-9)

	// Below 50 trades the sample penalty is 0.5
	want := (0.02 * 0.75 * 0.5) / 0.01
	assert.InDelta(t, want, s.Quality, 1e-9)
}

func TestScore_ExpectancyMode(t *testing.T) {
	r := ruleA()
	outcomes := []TradeOutcome{
		outcome(r, 0.04, "2024-03-01"),
		outcome(r, -0.02, "2024-03-05"),
	}

	scores := NewScorer(rules.ModeExpectancy).Score(outcomes)
	require.Len(t, scores, 1)
	assert.InDelta(t, 0.01*0.5, scores[0].Quality, 1e-9)
}

func TestScore_SamplePenaltyTiers(t *testing.T) {
	r := ruleA()
	build := func(n int) []TradeOutcome {
		outcomes := make([]TradeOutcome, n)
		for i := range outcomes {
			outcomes[i] = outcome(r, 0.02, "2024-03-01")
		}
		// One loser pins max drawdown
		outcomes[0] = outcome(r, -0.02, "2024-03-01")
		return outcomes
	}

	small := NewScorer(rules.ModeQuality).Score(build(10))[0]
	medium := NewScorer(rules.ModeQuality).Score(build(100))[0]
	large := NewScorer(rules.ModeQuality).Score(build(250))[0]

	// Same economics, more trades, higher score
	assert.Less(t, small.Quality/medium.Quality, 1.0)
	assert.Less(t, medium.Quality/large.Quality, 1.0)
}

func TestScore_RankedDeterministically(t *testing.T) {
	good := ruleA()
	bad := ruleA()
	bad.Hold = 7

	outcomes := []TradeOutcome{
		outcome(good, 0.05, "2024-03-01"),
		outcome(good, 0.04, "2024-03-02"),
		outcome(bad, -0.05, "2024-03-01"),
		outcome(bad, 0.01, "2024-03-02"),
	}

	scorer := NewScorer(rules.ModeQuality)
	first := scorer.Score(outcomes)
	second := scorer.Score(outcomes)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	assert.Greater(t, first[0].Quality, first[1].Quality)
	assert.Equal(t, 5, first[0].Rule.Hold)
}

func TestOutcomesFromPositions_SkipsOpen(t *testing.T) {
	positions := []contracts.Position{
		{Rule: ruleA(), Return: 0.02, ExitDate: day("2024-03-01"), Closed: true},
		{Rule: ruleA(), Return: 0.00, Closed: false},
	}
	outcomes := OutcomesFromPositions(positions)
	require.Len(t, outcomes, 1)
	assert.InDelta(t, 0.02, outcomes[0].Return, 1e-9)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.InDelta(t, 2.0, median([]float64{3, 1, 2}), 1e-9)
	assert.InDelta(t, 1.5, median([]float64{2, 1}), 1e-9)
}
