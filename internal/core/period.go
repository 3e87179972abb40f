package core

import "time"

// MaxPeriodDays bounds the window a summary may cover.
const MaxPeriodDays = 5 * 366

// Period is an inclusive range of calendar days.
type Period struct {
	From Date `json:"from"`
	To   Date `json:"to"`
}

// MonthPreset is a named period offered to date pickers.
type MonthPreset struct {
	Label string `json:"label"`
	Period
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Period {
	first := NewDate(t.UTC().Year(), int(t.UTC().Month()), 1)
	return Period{From: first, To: Date{Time: first.AddDate(0, 1, -1)}}
}

// ResolvePeriod parses optional yyyy-MM-dd bounds. A missing bound falls back
// to the matching bound of the current month.
func ResolvePeriod(from, to string, now time.Time) (Period, error) {
	p := MonthOf(now)
	if from != "" {
		d, err := ParseDate(from)
		if err != nil {
			return Period{}, err
		}
		p.From = d
	}
	if to != "" {
		d, err := ParseDate(to)
		if err != nil {
			return Period{}, err
		}
		p.To = d
	}
	if p.To.Before(p.From.Time) {
		return Period{}, Invalid("from %s is after to %s", p.From, p.To)
	}
	if n := p.Length(); n > MaxPeriodDays {
		return Period{}, Invalid("period %s to %s spans %d days, at most %d are allowed", p.From, p.To, n, MaxPeriodDays)
	}
	return p, nil
}

// Length is the number of days in the period, both ends included.
func (p Period) Length() int {
	return p.From.DaysUntil(p.To) + 1
}

// Previous returns the period of equal length ending the day before p.From.
func (p Period) Previous() Period {
	n := p.Length()
	return Period{From: p.From.AddDays(-n), To: p.To.AddDays(-n)}
}

// Days lists every day of the period in order.
func (p Period) Days() []Date {
	days := make([]Date, 0, p.Length())
	for d := p.From; !d.After(p.To.Time); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	return !d.Before(p.From.Time) && !d.After(p.To.Time)
}

// MonthPresets returns the current month and the three before it.
func MonthPresets(now time.Time) []MonthPreset {
	labels := []string{"This Month", "Last Month", "2 Months Ago", "3 Months Ago"}
	first := MonthOf(now).From
	presets := make([]MonthPreset, 0, len(labels))
	for i, label := range labels {
		month := MonthOf(first.AddDate(0, -i, 0))
		presets = append(presets, MonthPreset{Label: label, Period: month})
	}
	return presets
}
