package inventory

import (
	"time"

	"github.com/carelane/medstock-backend/pkg/enums"
)

const (
	// CriticalWindowDays is the inclusive upper bound of the critical bucket.
	CriticalWindowDays = 14
	// SoonWindowDays is the inclusive upper bound of the soon bucket.
	SoonWindowDays = 30

	dateLayout = "2006-01-02"
)

// DateOnly truncates t to midnight UTC of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ClassifyExpiration buckets an expiration date against asOf. Both are compared as
// calendar days; each window excludes its lower bound and includes its upper bound.
func ClassifyExpiration(expirationDate *time.Time, asOf time.Time) enums.ExpirationBucket {
	if expirationDate == nil {
		return enums.ExpirationNone
	}
	exp := DateOnly(*expirationDate)
	today := DateOnly(asOf)

	switch {
	case !exp.After(today):
		return enums.ExpirationExpired
	case !exp.After(today.AddDate(0, 0, CriticalWindowDays)):
		return enums.ExpirationCritical
	case !exp.After(today.AddDate(0, 0, SoonWindowDays)):
		return enums.ExpirationSoon
	default:
		return enums.ExpirationNormal
	}
}

// DateWindow is the half-open range (After, Until] of expiration dates.
type DateWindow struct {
	After time.Time
	Until time.Time
}

// ExpiringWindow covers the soon and critical buckets together.
func ExpiringWindow(asOf time.Time) DateWindow {
	today := DateOnly(asOf)
	return DateWindow{After: today, Until: today.AddDate(0, 0, SoonWindowDays)}
}

// CriticalWindow covers the critical bucket only.
func CriticalWindow(asOf time.Time) DateWindow {
	today := DateOnly(asOf)
	return DateWindow{After: today, Until: today.AddDate(0, 0, CriticalWindowDays)}
}

// SoonWindow covers the soon bucket only.
func SoonWindow(asOf time.Time) DateWindow {
	today := DateOnly(asOf)
	return DateWindow{After: today.AddDate(0, 0, CriticalWindowDays), Until: today.AddDate(0, 0, SoonWindowDays)}
}

// DaysUntil counts calendar days from asOf to the expiration date; negative once expired.
func DaysUntil(expirationDate time.Time, asOf time.Time) int {
	return int(DateOnly(expirationDate).Sub(DateOnly(asOf)).Hours() / 24)
}

// FormatDate renders an expiration date as YYYY-MM-DD.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := DateOnly(*t).Format(dateLayout)
	return &s
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and returns the UTC calendar day.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return DateOnly(t), nil
}
