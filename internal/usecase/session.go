package usecase

import (
	"fmt"
	"time"

	"barflow/internal/calendar"
	"barflow/internal/domain/models"
	"barflow/pkg/util"
)

// SessionStatus describes a venue's trading session at a given instant.
type SessionStatus struct {
	Venue              string    `json:"venue"`
	At                 time.Time `json:"at"`
	Open               bool      `json:"open"`
	TradingDay         bool      `json:"trading_day"`
	NominalOpen        string    `json:"nominal_open"`
	NominalClose       string    `json:"nominal_close"`
	TradingDaysPerYear int       `json:"trading_days_per_year"`
}

// SessionUseCase answers session queries against venue calendars.
type SessionUseCase struct{}

// NewSessionUseCase creates a new SessionUseCase instance.
func NewSessionUseCase() *SessionUseCase {
	return &SessionUseCase{}
}

// Status reports the session state for the requested venue. The instant
// defaults to now when absent.
func (uc *SessionUseCase) Status(req *models.SessionRequest) (*SessionStatus, error) {
	hours, err := calendar.ForVenue(calendar.Venue(req.Venue))
	if err != nil {
		return nil, fmt.Errorf("session status: %w", err)
	}

	at := util.ParseTimeDefault(req.At, time.Now().UTC())
	return &SessionStatus{
		Venue:              string(hours.Venue()),
		At:                 at,
		Open:               hours.IsOpen(at),
		TradingDay:         hours.IsTradingDay(at),
		NominalOpen:        formatOffset(hours.NominalOpen()),
		NominalClose:       formatOffset(hours.NominalClose()),
		TradingDaysPerYear: hours.TradingDaysPerYear(),
	}, nil
}

// formatOffset renders a midnight offset as HH:MM:SS, truncating sub-second
// precision.
func formatOffset(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
