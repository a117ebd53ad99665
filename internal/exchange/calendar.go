// Package exchange centralizes exchange-local time arithmetic. All market
// hour and trading day decisions go through here so the rules exist in
// exactly one place.
package exchange

import "time"

// Location is the fixed exchange-local offset (US equities, UTC-4). Charts
// align across viewers because timestamps never depend on the local zone.
var Location = time.FixedZone("EST5EDT", -4*60*60)

// Market session bounds in exchange-local wall-clock minutes.
const (
	openMinute  = 9*60 + 30 // 09:30
	closeMinute = 16 * 60   // 16:00
)

// ToExchangeLocal converts an instant to exchange-local time.
func ToExchangeLocal(t time.Time) time.Time {
	return t.In(Location)
}

// IsTradingDay reports whether the given instant falls on a weekday,
// exchange-local.
func IsTradingDay(t time.Time) bool {
	wd := ToExchangeLocal(t).Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// IsMarketOpen reports whether the market session is open at the given
// instant: a weekday between 09:30 and 16:00 exchange-local.
func IsMarketOpen(t time.Time) bool {
	if !IsTradingDay(t) {
		return false
	}
	local := ToExchangeLocal(t)
	minute := local.Hour()*60 + local.Minute()
	return minute >= openMinute && minute < closeMinute
}

// AtMidnight returns the instant of 00:00 exchange-local on the given
// calendar day. Daily bars are pinned to this instant.
func AtMidnight(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location)
}

// AtMarketOpen returns the instant of 09:30 exchange-local on the calendar
// day containing t. Purchase dates are compared at this instant.
func AtMarketOpen(t time.Time) time.Time {
	local := ToExchangeLocal(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 9, 30, 0, 0, Location)
}

// PreviousTradingDay returns midnight exchange-local of the nearest trading
// day strictly before the day containing t, skipping weekends.
func PreviousTradingDay(t time.Time) time.Time {
	local := ToExchangeLocal(t)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location)
	for {
		day = day.AddDate(0, 0, -1)
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			return day
		}
	}
}
