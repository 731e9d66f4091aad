package finance

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// CashFlow is one dated movement of money. Investments are negative,
// redemptions and the current portfolio value are positive.
type CashFlow struct {
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

var (
	ErrTooFewFlows = errors.New("xirr: need at least two cash flows")
	ErrSameSign    = errors.New("xirr: cash flows must contain both inflows and outflows")
	ErrNoSolution  = errors.New("xirr: no rate found in (-99.99%, 1000%)")
)

const (
	xirrLow  = -0.9999
	xirrHigh = 10.0
	xirrTol  = 1e-9
)

// XIRR returns the annualized discount rate at which the net present value
// of the given irregular cash-flow series is zero. It tries Newton-Raphson
// first and falls back to bisection when the iteration diverges.
func XIRR(flows []CashFlow) (float64, error) {
	if len(flows) < 2 {
		return 0, ErrTooFewFlows
	}

	sorted := make([]CashFlow, len(flows))
	copy(sorted, flows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var hasPos, hasNeg bool
	t0 := sorted[0].Date
	amounts := make([]float64, len(sorted))
	years := make([]float64, len(sorted))
	for i, f := range sorted {
		a := f.Amount.InexactFloat64()
		amounts[i] = a
		years[i] = f.Date.Sub(t0).Hours() / 24 / 365
		if a > 0 {
			hasPos = true
		}
		if a < 0 {
			hasNeg = true
		}
	}
	if !hasPos || !hasNeg {
		return 0, ErrSameSign
	}

	npv := func(r float64) float64 {
		var sum float64
		for i := range amounts {
			sum += amounts[i] / math.Pow(1+r, years[i])
		}
		return sum
	}
	dnpv := func(r float64) float64 {
		var sum float64
		for i := range amounts {
			if years[i] == 0 {
				continue
			}
			sum -= years[i] * amounts[i] / math.Pow(1+r, years[i]+1)
		}
		return sum
	}

	// Newton-Raphson from a conventional 10% guess.
	r := 0.1
	for i := 0; i < 100; i++ {
		f := npv(r)
		if math.Abs(f) < xirrTol {
			return r, nil
		}
		d := dnpv(r)
		if d == 0 || math.IsNaN(d) {
			break
		}
		next := r - f/d
		if math.IsNaN(next) || next <= xirrLow || next >= xirrHigh {
			break
		}
		if math.Abs(next-r) < xirrTol {
			return next, nil
		}
		r = next
	}

	return bisectXIRR(npv)
}

func bisectXIRR(npv func(float64) float64) (float64, error) {
	lo, hi := xirrLow, xirrHigh
	flo, fhi := npv(lo), npv(hi)
	if flo*fhi > 0 {
		return 0, ErrNoSolution
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fm := npv(mid)
		if math.Abs(fm) < xirrTol || (hi-lo)/2 < xirrTol {
			return mid, nil
		}
		if flo*fm < 0 {
			hi = mid
		} else {
			lo, flo = mid, fm
		}
	}
	return (lo + hi) / 2, nil
}
