package service

import "time"

// SeasonalWindow is an inclusive day range within one calendar month.
type SeasonalWindow struct {
	Name       string
	Month      time.Month
	StartDay   int
	EndDay     int
	Multiplier float64
	Discount   bool // counts as a discount season for the high-ticket bonus
}

// DefaultSeasons is evaluated in order; when windows overlap the last match wins.
var DefaultSeasons = []SeasonalWindow{
	{Name: "black_friday", Month: time.November, StartDay: 24, EndDay: 30, Multiplier: 1.5, Discount: true},
	{Name: "cyber_week", Month: time.November, StartDay: 27, EndDay: 30, Multiplier: 1.3, Discount: true},
	{Name: "christmas", Month: time.December, StartDay: 15, EndDay: 31, Multiplier: 1.4, Discount: true},
	{Name: "mothers_day", Month: time.May, StartDay: 8, EndDay: 14, Multiplier: 1.2},
	{Name: "valentines_br", Month: time.June, StartDay: 10, EndDay: 16, Multiplier: 1.25},
}

// Contains reports whether t falls inside the window, using t's own location.
func (w SeasonalWindow) Contains(t time.Time) bool {
	if t.Month() != w.Month {
		return false
	}
	d := t.Day()
	return d >= w.StartDay && d <= w.EndDay
}

// ActiveSeason returns the window that applies to t, if any.
func ActiveSeason(windows []SeasonalWindow, t time.Time) (SeasonalWindow, bool) {
	var active SeasonalWindow
	found := false
	for _, w := range windows {
		if w.Contains(t) {
			active = w
			found = true
		}
	}
	return active, found
}

// InDiscountSeason reports whether any discount window contains t.
func InDiscountSeason(windows []SeasonalWindow, t time.Time) bool {
	for _, w := range windows {
		if w.Discount && w.Contains(t) {
			return true
		}
	}
	return false
}
