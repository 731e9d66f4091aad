package finance

import (
	"math"

	"github.com/shopspring/decimal"
)

// GoalPlan is the input to a goal projection: a monthly SIP with an annual
// step-up, an optional lump-sum seed, and an expected annual return.
type GoalPlan struct {
	MonthlySIP      decimal.Decimal `json:"monthly_sip"`
	LumpSum         decimal.Decimal `json:"lump_sum"`
	AnnualReturnPct float64         `json:"annual_return_pct"`
	StepUpPct       float64         `json:"step_up_pct"`
	Years           int             `json:"years"`
}

type YearSnapshot struct {
	Year     int             `json:"year"`
	Invested decimal.Decimal `json:"invested"`
	Corpus   decimal.Decimal `json:"corpus"`
}

type Projection struct {
	Corpus   decimal.Decimal `json:"corpus"`
	Invested decimal.Decimal `json:"invested"`
	Gain     decimal.Decimal `json:"gain"`
	Timeline []YearSnapshot  `json:"timeline"`
}

// monthlyRate converts an annual percentage to the equivalent monthly
// compounding rate: (1+a)^(1/12) - 1.
func monthlyRate(annualPct float64) decimal.Decimal {
	r := math.Pow(1+annualPct/100, 1.0/12) - 1
	return decimal.NewFromFloat(r)
}

// SimulateGoal compounds the plan month by month. The SIP is contributed at
// the start of each month and stepped up once every 12 months.
func SimulateGoal(p GoalPlan) Projection {
	mr := monthlyRate(p.AnnualReturnPct)
	growth := decimal.NewFromInt(1).Add(mr)
	stepUp := decimal.NewFromInt(1).Add(decimal.NewFromFloat(p.StepUpPct / 100))

	sip := p.MonthlySIP
	corpus := p.LumpSum
	invested := p.LumpSum
	timeline := make([]YearSnapshot, 0, p.Years)

	for m := 0; m < p.Years*12; m++ {
		if m > 0 && m%12 == 0 {
			sip = sip.Mul(stepUp)
		}
		corpus = corpus.Add(sip).Mul(growth)
		invested = invested.Add(sip)
		if (m+1)%12 == 0 {
			timeline = append(timeline, YearSnapshot{
				Year:     (m + 1) / 12,
				Invested: invested.Round(2),
				Corpus:   corpus.Round(2),
			})
		}
	}

	corpus = corpus.Round(2)
	invested = invested.Round(2)
	return Projection{
		Corpus:   corpus,
		Invested: invested,
		Gain:     corpus.Sub(invested),
		Timeline: timeline,
	}
}

// RequiredSIP solves for the starting monthly SIP that grows to target under
// the given return and step-up assumptions. Bisection on the SIP amount; the
// projection is monotonic in it.
func RequiredSIP(target decimal.Decimal, years int, annualReturnPct, stepUpPct float64) decimal.Decimal {
	if years <= 0 || target.Sign() <= 0 {
		return decimal.Zero
	}
	plan := GoalPlan{AnnualReturnPct: annualReturnPct, StepUpPct: stepUpPct, Years: years}

	lo, hi := decimal.Zero, target
	two := decimal.NewFromInt(2)
	for i := 0; i < 60; i++ {
		mid := lo.Add(hi).Div(two)
		plan.MonthlySIP = mid
		if SimulateGoal(plan).Corpus.Cmp(target) < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi.Round(2)
}
