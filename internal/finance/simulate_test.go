package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateGoal_ZeroReturnIsSumOfContributions(t *testing.T) {
	proj := SimulateGoal(GoalPlan{
		MonthlySIP:      decimal.NewFromInt(1000),
		AnnualReturnPct: 0,
		Years:           2,
	})
	assert.True(t, proj.Corpus.Equal(decimal.NewFromInt(24000)), "corpus %s", proj.Corpus)
	assert.True(t, proj.Invested.Equal(decimal.NewFromInt(24000)), "invested %s", proj.Invested)
	assert.True(t, proj.Gain.IsZero(), "gain %s", proj.Gain)
}

func TestSimulateGoal_StepUpRaisesContributions(t *testing.T) {
	proj := SimulateGoal(GoalPlan{
		MonthlySIP:      decimal.NewFromInt(1000),
		AnnualReturnPct: 0,
		StepUpPct:       10,
		Years:           2,
	})
	// year 1: 12 x 1000, year 2: 12 x 1100
	assert.True(t, proj.Invested.Equal(decimal.NewFromInt(25200)), "invested %s", proj.Invested)
	assert.True(t, proj.Corpus.Equal(proj.Invested), "corpus %s", proj.Corpus)

	require.Len(t, proj.Timeline, 2)
	assert.True(t, proj.Timeline[0].Invested.Equal(decimal.NewFromInt(12000)))
	assert.True(t, proj.Timeline[1].Invested.Equal(decimal.NewFromInt(25200)))
}

func TestSimulateGoal_LumpSumCompounds(t *testing.T) {
	proj := SimulateGoal(GoalPlan{
		LumpSum:         decimal.NewFromInt(100000),
		AnnualReturnPct: 12,
		Years:           1,
	})
	// A lone lump sum grows by the annual rate over one year.
	assert.True(t, proj.Invested.Equal(decimal.NewFromInt(100000)))
	diff := proj.Corpus.Sub(decimal.NewFromInt(112000)).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromInt(1)), "corpus %s", proj.Corpus)
}

func TestSimulateGoal_PositiveReturnBeatsInvested(t *testing.T) {
	proj := SimulateGoal(GoalPlan{
		MonthlySIP:      decimal.NewFromInt(5000),
		AnnualReturnPct: 12,
		StepUpPct:       10,
		Years:           15,
	})
	assert.True(t, proj.Corpus.GreaterThan(proj.Invested))
	assert.True(t, proj.Gain.Equal(proj.Corpus.Sub(proj.Invested)))
	require.Len(t, proj.Timeline, 15)
	for i := 1; i < len(proj.Timeline); i++ {
		assert.True(t, proj.Timeline[i].Corpus.GreaterThan(proj.Timeline[i-1].Corpus))
	}
}

func TestRequiredSIP_InvertsSimulation(t *testing.T) {
	target := decimal.NewFromInt(10000000)
	sip := RequiredSIP(target, 15, 12, 10)
	require.True(t, sip.Sign() > 0)

	proj := SimulateGoal(GoalPlan{
		MonthlySIP:      sip,
		AnnualReturnPct: 12,
		StepUpPct:       10,
		Years:           15,
	})
	// Within a rupee per bisection step of the target.
	diff := proj.Corpus.Sub(target).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromInt(100)), "corpus %s vs target %s", proj.Corpus, target)
}

func TestRequiredSIP_ZeroTargetOrYears(t *testing.T) {
	assert.True(t, RequiredSIP(decimal.Zero, 10, 12, 0).IsZero())
	assert.True(t, RequiredSIP(decimal.NewFromInt(1000), 0, 12, 0).IsZero())
}
