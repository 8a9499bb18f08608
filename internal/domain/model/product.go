package model

import (
	"strings"
	"time"

	"telegram-expiry-reminder/internal/domain"
)

// Product is an item a user bought, tracked until its expiry date.
// ExpiresOn always holds midnight of the calendar date.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ExpiresOn time.Time `json:"expires_on"`
}

// NewProduct validates the name and normalizes the date to midnight in its own location.
// The ID is left zero; the store assigns it.
func NewProduct(name string, expiresOn time.Time) (*Product, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if expiresOn.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	return &Product{Name: name, ExpiresOn: DateOf(expiresOn)}, nil
}

// DaysLeft returns whole calendar days from today to the expiry date.
// Negative once the date has passed.
func (p *Product) DaysLeft(today time.Time) int {
	return DaysBetween(today, p.ExpiresOn)
}

// DateOf truncates t to midnight of its calendar day in t's location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween counts calendar days from a to b using only their date parts,
// so DST shifts and time-of-day never move the result.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// NewCalendarDate builds (year, month, day) and rejects combinations that
// time.Date would silently normalize, like 31 April.
func NewCalendarDate(year, month, day int, loc *time.Location) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, domain.ErrInvalidDate
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, domain.ErrInvalidDate
	}
	return t, nil
}
