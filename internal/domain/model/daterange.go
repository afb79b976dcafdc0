package model

import (
	"fmt"
	"time"

	domainErrors "github.com/polkiloo/eventreg/internal/domain/errors"
)

// DateLayout is the wire and storage layout of stay dates.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// DateRange is a half-open stay interval [CheckIn, CheckOut) on calendar dates.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewDateRange keeps the calendar date of both bounds and requires CheckOut after CheckIn.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	r := DateRange{CheckIn: dateOf(checkIn), CheckOut: dateOf(checkOut)}
	if !r.CheckOut.After(r.CheckIn) {
		return DateRange{}, fmt.Errorf("%w: check-out %s must be after check-in %s",
			domainErrors.ErrInvalidDateRange, r.CheckOut.Format(DateLayout), r.CheckIn.Format(DateLayout))
	}
	return r, nil
}

// ParseDateRange parses YYYY-MM-DD bounds.
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := time.Parse(DateLayout, checkIn)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: check-in %q", domainErrors.ErrInvalidDateRange, checkIn)
	}
	out, err := time.Parse(DateLayout, checkOut)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: check-out %q", domainErrors.ErrInvalidDateRange, checkOut)
	}
	return NewDateRange(in, out)
}

// Overlaps reports whether two half-open ranges intersect. Back-to-back stays do not overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.CheckIn.Before(other.CheckOut) && r.CheckOut.After(other.CheckIn)
}

// Nights is ceil((CheckOut-CheckIn)/24h).
func (r DateRange) Nights() int64 {
	d := r.CheckOut.Sub(r.CheckIn)
	if d <= 0 {
		return 0
	}
	n := int64(d / day)
	if d%day != 0 {
		n++
	}
	return n
}

// Contains reports whether date falls inside [CheckIn, CheckOut).
func (r DateRange) Contains(date time.Time) bool {
	d := dateOf(date)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

func (r DateRange) String() string {
	return r.CheckIn.Format(DateLayout) + ".." + r.CheckOut.Format(DateLayout)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
