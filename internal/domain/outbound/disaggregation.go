package outbound

import (
	"github.com/shopspring/decimal"
)

// Distribute spreads total picked units over sources proportionally to their
// weights (original reservation quantities). It extends current shares
// instead of recomputing them, so a source's share never decreases as total
// grows. Each unit goes to the source furthest below its proportional target
// total*w/sum; ties go to the earlier source. No source exceeds its weight.
// When total reaches the sum of weights every source receives exactly its
// weight.
func Distribute(current []int64, total int64, weights []int64) []int64 {
	shares := make([]int64, len(weights))
	copy(shares, current)

	var sum, assigned int64
	for i, w := range weights {
		sum += w
		assigned += shares[i]
	}
	if sum <= 0 {
		return shares
	}
	if total > sum {
		total = sum
	}

	dTotal := decimal.NewFromInt(total)
	dSum := decimal.NewFromInt(sum)
	targets := make([]decimal.Decimal, len(weights))
	for i, w := range weights {
		targets[i] = dTotal.Mul(decimal.NewFromInt(w)).Div(dSum)
	}

	for ; assigned < total; assigned++ {
		best := -1
		var bestDeficit decimal.Decimal
		for i := range weights {
			if shares[i] >= weights[i] {
				continue
			}
			deficit := targets[i].Sub(decimal.NewFromInt(shares[i]))
			if best < 0 || deficit.GreaterThan(bestDeficit) {
				best = i
				bestDeficit = deficit
			}
		}
		if best < 0 {
			break
		}
		shares[best]++
	}
	return shares
}

// FillRate returns picked/requested as a percentage rounded to two places.
func FillRate(picked, requested int64) decimal.Decimal {
	if requested <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(picked).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(requested)).
		Round(2)
}
