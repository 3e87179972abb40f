package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func TestResolvePeriodDefaultsToCurrentMonth(t *testing.T) {
	p, err := ResolvePeriod("", "", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", p.From.String())
	assert.Equal(t, "2024-03-31", p.To.String())
}

func TestResolvePeriodPartialBounds(t *testing.T) {
	p, err := ResolvePeriod("2024-03-10", "", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", p.From.String())
	assert.Equal(t, "2024-03-31", p.To.String())
}

func TestResolvePeriodRejectsBadInput(t *testing.T) {
	_, err := ResolvePeriod("2024-13-01", "", fixedNow)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ResolvePeriod("2024-03-10", "2024-03-01", fixedNow)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestResolvePeriodRejectsOverlongWindow(t *testing.T) {
	_, err := ResolvePeriod("0001-01-01", "9999-12-31", fixedNow)
	assert.True(t, errors.Is(err, ErrValidation))

	from := NewDate(2020, 1, 1)
	p, err := ResolvePeriod(from.String(), from.AddDays(MaxPeriodDays-1).String(), fixedNow)
	require.NoError(t, err)
	assert.Equal(t, MaxPeriodDays, p.Length())

	_, err = ResolvePeriod(from.String(), from.AddDays(MaxPeriodDays).String(), fixedNow)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestPeriodLengthBeyondDurationRange(t *testing.T) {
	p := Period{From: NewDate(1, 1, 1), To: NewDate(9999, 12, 31)}
	assert.Equal(t, 3652059, p.Length())

	prev := p.Previous()
	assert.Equal(t, p.Length(), prev.Length())
	assert.Equal(t, p.From.AddDays(-1), prev.To)
}

func TestPeriodPrevious(t *testing.T) {
	p := Period{From: NewDate(2024, 3, 1), To: NewDate(2024, 3, 31)}
	require.Equal(t, 31, p.Length())

	prev := p.Previous()
	assert.Equal(t, "2024-01-30", prev.From.String())
	assert.Equal(t, "2024-02-29", prev.To.String())
	assert.Equal(t, p.Length(), prev.Length())
}

func TestPeriodSingleDay(t *testing.T) {
	p := Period{From: NewDate(2024, 1, 1), To: NewDate(2024, 1, 1)}
	assert.Equal(t, 1, p.Length())
	assert.Equal(t, "2023-12-31", p.Previous().From.String())
	assert.Equal(t, "2023-12-31", p.Previous().To.String())
	assert.Len(t, p.Days(), 1)
	assert.True(t, p.Contains(NewDate(2024, 1, 1)))
	assert.False(t, p.Contains(NewDate(2024, 1, 2)))
}

func TestMonthPresets(t *testing.T) {
	presets := MonthPresets(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.Len(t, presets, 4)

	assert.Equal(t, "This Month", presets[0].Label)
	assert.Equal(t, "2024-01-01", presets[0].From.String())
	assert.Equal(t, "2024-01-31", presets[0].To.String())
	assert.Equal(t, "2023-12-01", presets[1].From.String())
	assert.Equal(t, "2023-11-30", presets[2].To.String())
	assert.Equal(t, "2023-10-01", presets[3].From.String())
}
