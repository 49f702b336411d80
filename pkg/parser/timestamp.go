package parser

import (
	"fmt"
	"strconv"
	"time"
)

// refLeapYear is only used while parsing month-day tokens, so that a
// "Feb29" token survives time.Parse even when the current year is not a
// leap year. The real year is substituted afterwards.
const refLeapYear = "1996"

// ParseLastChange turns a BIRD last-change token into an absolute
// timestamp, resolved against now. BIRD degrades precision with age and
// emits one of three shapes:
//
//   - "14:50"  — a clock time within the last 24 hours. If that
//     time-of-day has not happened yet today, it was yesterday.
//   - "Jun13"  — a month and day within the last year. If that date has
//     not happened yet this year, it was last year.
//   - "2004"   — a bare year, meaning January 1st of that year.
//
// Anything else is a parse error naming the token. A "Feb29" token
// that resolves into a non-leap year normalizes to March 1 of that
// year. No timezone conversion happens; the result is in now's
// location.
func ParseLastChange(token string, now time.Time) (time.Time, error) {
	if tod, err := time.Parse("15:04", token); err == nil {
		result := time.Date(now.Year(), now.Month(), now.Day(),
			tod.Hour(), tod.Minute(), 0, 0, now.Location())
		if result.After(now) {
			result = result.AddDate(0, 0, -1)
		}
		return result, nil
	}

	if md, err := time.Parse("2006 Jan2", refLeapYear+" "+token); err == nil {
		result := time.Date(now.Year(), md.Month(), md.Day(), 0, 0, 0, 0, now.Location())
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if result.After(today) {
			result = time.Date(now.Year()-1, md.Month(), md.Day(), 0, 0, 0, 0, now.Location())
		}
		return result, nil
	}

	if year, err := strconv.Atoi(token); err == nil {
		return time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location()), nil
	}

	return time.Time{}, fmt.Errorf("cannot parse last-change token %q", token)
}
