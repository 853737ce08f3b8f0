// Package calendar models exchange trading sessions: whether a venue is open
// at a given instant and which calendar dates are trading days. Instants are
// assumed already normalized to venue-local time; no timezone conversion
// happens here.
package calendar

import (
	"fmt"
	"time"
)

// Venue identifies a supported exchange profile. The set is closed: adding a
// venue means adding a case to ForVenue, not subclassing.
type Venue string

const (
	VenueForex  Venue = "forex"
	VenueCrypto Venue = "crypto"
)

// Hours answers open/closed questions for one venue. Implementations are pure
// per-call computations over the supplied instant; repeated queries with the
// same instant return the same answer. The nominal open/close fields are
// advisory session markers for display and statistics only and never gate
// IsOpen.
type Hours interface {
	Venue() Venue
	// IsOpen reports whether the venue trades at instant t.
	IsOpen(t time.Time) bool
	// IsTradingDay reports whether any trading happens on t's calendar
	// date, ignoring the time-of-day component.
	IsTradingDay(t time.Time) bool
	// NominalOpen and NominalClose are time-of-day offsets from midnight.
	NominalOpen() time.Duration
	NominalClose() time.Duration
	SetNominalHours(open, close time.Duration)
	// TradingDaysPerYear is used by downstream annualization statistics.
	TradingDaysPerYear() int
}

// ForVenue returns the Hours profile for a venue.
func ForVenue(v Venue) (Hours, error) {
	switch v {
	case VenueForex:
		return NewForexHours(), nil
	case VenueCrypto:
		return NewCryptoHours(), nil
	default:
		return nil, fmt.Errorf("calendar: unknown venue %q", v)
	}
}

// nominalAllDayClose is 23.999999 hours, i.e. 3.6ms short of midnight: the
// default advisory close for venues whose nominal session is "all day".
const nominalAllDayClose = 24*time.Hour - 3600*time.Microsecond

// session carries the mutable advisory open/close fields shared by all
// profiles. Not safe for concurrent writes.
type session struct {
	open  time.Duration
	close time.Duration
}

func (s *session) NominalOpen() time.Duration  { return s.open }
func (s *session) NominalClose() time.Duration { return s.close }

func (s *session) SetNominalHours(open, close time.Duration) {
	s.open = open
	s.close = close
}

// timeOfDay returns t's offset from its date's midnight.
func timeOfDay(t time.Time) time.Duration {
	h, m, sec := t.Clock()
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(t.Nanosecond())
}
