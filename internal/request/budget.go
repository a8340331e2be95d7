package request

import (
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
)

// BudgetCurrency is the ISO code budgets are denominated in (minor units).
const BudgetCurrency = "COP"

// ParseBudget derives the numeric budget from the free-text budget field by
// stripping every non-digit character. Thousand separators, currency signs,
// and stray text all disappear, so "45.000.000" and "$45,000,000" both parse
// to 45000000. A value with no digits parses to 0, which deliberately routes
// the request down the low-budget branch.
func ParseBudget(raw string) int64 {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	value, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		// Overflow on absurdly long digit runs. Treat as unparseable.
		return 0
	}
	return value
}

// BudgetAmount wraps the parsed budget as a money amount for display and
// comparison.
func BudgetAmount(raw string) *money.Money {
	return money.New(ParseBudget(raw), BudgetCurrency)
}
