package tracker

import (
	"fmt"
	"sort"
)

// CostOption is one purchase option to compare: a package of doses at a
// given price, consumed at a daily rate.
type CostOption struct {
	DoseCount float64
	Price     float64
	DailyDose float64
}

// CostResult is the evaluation of one option.
type CostResult struct {
	Option     CostOption
	DaysSupply float64
	CostPerDay float64
}

// CompareCosts evaluates purchase options and returns them sorted by cost
// per day, cheapest first. Every option needs a positive daily dose and
// dose count; anything else cannot be compared.
func CompareCosts(options []CostOption) ([]CostResult, error) {
	if len(options) < 2 {
		return nil, fmt.Errorf("need at least 2 options to compare, got %d", len(options))
	}

	results := make([]CostResult, 0, len(options))
	for i, opt := range options {
		if opt.DailyDose <= 0 {
			return nil, fmt.Errorf("option %d: daily dose must be positive", i+1)
		}
		if opt.DoseCount <= 0 {
			return nil, fmt.Errorf("option %d: dose count must be positive", i+1)
		}
		days := opt.DoseCount / opt.DailyDose
		results = append(results, CostResult{
			Option:     opt,
			DaysSupply: days,
			CostPerDay: opt.Price / days,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CostPerDay < results[j].CostPerDay
	})
	return results, nil
}
