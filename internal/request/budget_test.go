package request

import "testing"

func TestParseBudget(t *testing.T) {
	cases := []struct {
		input string
		want  int64
	}{
		{"45.000.000", 45000000},
		{"55,000,000", 55000000},
		{"$ 50'000.000 COP", 50000000},
		{"", 0},
		{"por definir", 0},
		{"0", 0},
	}
	for _, tc := range cases {
		if got := ParseBudget(tc.input); got != tc.want {
			t.Fatalf("ParseBudget(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestBudgetAmountCurrency(t *testing.T) {
	amount := BudgetAmount("55,000,000")
	if amount.Currency().Code != BudgetCurrency {
		t.Fatalf("expected %s, got %s", BudgetCurrency, amount.Currency().Code)
	}
	if amount.Amount() != 55000000 {
		t.Fatalf("expected 55000000 minor units, got %d", amount.Amount())
	}
}
