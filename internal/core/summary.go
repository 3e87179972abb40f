package core

import "sort"

// Rollup labels.
const (
	UncategorizedName = "Uncategorized"
	OthersName        = "Others"
	TopCategories     = 3
)

// PeriodTotals are the signed sums of one window.
type PeriodTotals struct {
	Income    int64 // Σ amount >= 0
	Expenses  int64 // Σ amount <= 0, so zero or negative
	Remaining int64 // Σ amount
}

// CategoryTotal is the absolute expense sum of one category.
type CategoryTotal struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// DayTotals holds one day of the timeline. Both values are absolute.
type DayTotals struct {
	Date     Date  `json:"date"`
	Income   int64 `json:"income"`
	Expenses int64 `json:"expenses"`
}

// Summary is the dashboard payload for one window compared to the previous one.
type Summary struct {
	RemainingAmount    int64           `json:"remainingAmount"`
	RemainingChange    float64         `json:"remainingChange"`
	IncomeAmount       int64           `json:"incomeAmount"`
	IncomeChange       float64         `json:"incomeChange"`
	ExpensesAmount     int64           `json:"expensesAmount"`
	ExpensesChange     float64         `json:"expensesChange"`
	TotalBalanceAmount int64           `json:"totalBalanceAmount"`
	TotalBalanceChange float64         `json:"totalBalanceChange"`
	Categories         []CategoryTotal `json:"categories"`
	Days               []DayTotals     `json:"days"`
}

// SummaryInput gathers everything the store reports for a summary.
type SummaryInput struct {
	Period          Period
	Current         PeriodTotals
	Previous        PeriodTotals
	Balance         int64
	PreviousBalance int64
	Categories      []CategoryTotal
	Days            []DayTotals
}

// PercentageChange compares current to previous.
// Growth from a zero baseline is reported as 100, no activity at all as 0.
func PercentageChange(current, previous int64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return float64(current-previous) / float64(previous) * 100
}

// BuildSummary assembles the payload from raw store results.
func BuildSummary(in SummaryInput) Summary {
	return Summary{
		RemainingAmount:    in.Current.Remaining,
		RemainingChange:    PercentageChange(in.Current.Remaining, in.Previous.Remaining),
		IncomeAmount:       in.Current.Income,
		IncomeChange:       PercentageChange(in.Current.Income, in.Previous.Income),
		ExpensesAmount:     in.Current.Expenses,
		ExpensesChange:     PercentageChange(in.Current.Expenses, in.Previous.Expenses),
		TotalBalanceAmount: in.Balance,
		TotalBalanceChange: PercentageChange(in.Balance, in.PreviousBalance),
		Categories:         RollupCategories(in.Categories),
		Days:               FillMissingDays(in.Days, in.Period),
	}
}

// RollupCategories sorts categories by value, keeps the top three and folds
// the rest into a trailing "Others" entry. Others is only added when at
// least one category was folded into it.
func RollupCategories(totals []CategoryTotal) []CategoryTotal {
	sorted := make([]CategoryTotal, len(totals))
	copy(sorted, totals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value > sorted[j].Value
		}
		return sorted[i].Name < sorted[j].Name
	})

	if len(sorted) <= TopCategories {
		return sorted
	}

	out := make([]CategoryTotal, 0, TopCategories+1)
	out = append(out, sorted[:TopCategories]...)
	var others int64
	for _, c := range sorted[TopCategories:] {
		others += c.Value
	}
	return append(out, CategoryTotal{Name: OthersName, Value: others})
}

// FillMissingDays returns one entry per day of p, taking values from days
// when present and zeros otherwise. Entries outside p are ignored.
func FillMissingDays(days []DayTotals, p Period) []DayTotals {
	byDay := make(map[string]DayTotals, len(days))
	for _, d := range days {
		key := DateOf(d.Date.Time).String()
		acc := byDay[key]
		acc.Income += d.Income
		acc.Expenses += d.Expenses
		byDay[key] = acc
	}

	all := p.Days()
	out := make([]DayTotals, 0, len(all))
	for _, day := range all {
		entry := byDay[day.String()]
		entry.Date = day
		out = append(out, entry)
	}
	return out
}
