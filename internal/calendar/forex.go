package calendar

import "time"

// ForexHours models spot currency trading: a near-continuous 24h market with
// one weekly closed interval from Friday 16:00 through Sunday 17:00
// (exclusive), venue-local time.
type ForexHours struct {
	session
}

// NewForexHours creates the forex profile with an all-day nominal session.
func NewForexHours() *ForexHours {
	return &ForexHours{session{open: 0, close: nominalAllDayClose}}
}

func (f *ForexHours) Venue() Venue { return VenueForex }

// IsTradingDay reports false only for Saturday; the market is at least
// partially open on every other day.
func (f *ForexHours) IsTradingDay(t time.Time) bool {
	return t.Weekday() != time.Saturday
}

// IsOpen is closed Friday at and after 16:00, all of Saturday, and Sunday
// before 17:00 (exactly 17:00:00 is open again). Open at every other instant,
// including across midnight on Monday through Thursday.
func (f *ForexHours) IsOpen(t time.Time) bool {
	if !f.IsTradingDay(t) {
		return false
	}
	switch t.Weekday() {
	case time.Friday:
		return timeOfDay(t) < 16*time.Hour
	case time.Sunday:
		return timeOfDay(t) >= 17*time.Hour
	}
	return true
}

// TradingDaysPerYear is five trading days a week.
func (f *ForexHours) TradingDaysPerYear() int { return 5 * 52 }
