// Package credits prices a story generation from its requested length
// budget. The tier table is data, not control flow, and is fixed at
// compile time.
package credits

import "github.com/Lemon-stack/budwrite-sub000/internal/apperr"

type CostTier struct {
	MaxBudget int
	Credits   int64
}

// CostTiers maps a length budget (token ceiling for the narrative call)
// to its credit price. Ordered ascending; a budget prices at the first
// tier whose MaxBudget it does not exceed.
var CostTiers = []CostTier{
	{MaxBudget: 500, Credits: 1},
	{MaxBudget: 2000, Credits: 2},
	{MaxBudget: 5000, Credits: 3},
	{MaxBudget: 10000, Credits: 4},
}

// MaxLengthBudget is the largest budget the service accepts.
var MaxLengthBudget = CostTiers[len(CostTiers)-1].MaxBudget

// RequiredCredits returns the credit cost for a length budget. The same
// budget value must be handed to the narrative step as its output
// ceiling so that price and bound always agree.
func RequiredCredits(lengthBudget int) (int64, error) {
	if lengthBudget <= 0 {
		return 0, apperr.Newf(apperr.KindValidation, "length budget must be positive, got %d", lengthBudget)
	}
	for _, tier := range CostTiers {
		if lengthBudget <= tier.MaxBudget {
			return tier.Credits, nil
		}
	}
	return 0, apperr.Newf(apperr.KindValidation, "length budget %d exceeds the maximum of %d", lengthBudget, MaxLengthBudget)
}
