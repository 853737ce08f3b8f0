package calendar

import "time"

// CryptoHours models a venue that never closes.
type CryptoHours struct {
	session
}

// NewCryptoHours creates the crypto profile with an all-day nominal session.
func NewCryptoHours() *CryptoHours {
	return &CryptoHours{session{open: 0, close: nominalAllDayClose}}
}

func (c *CryptoHours) Venue() Venue { return VenueCrypto }

func (c *CryptoHours) IsTradingDay(time.Time) bool { return true }

func (c *CryptoHours) IsOpen(time.Time) bool { return true }

func (c *CryptoHours) TradingDaysPerYear() int { return 365 }
