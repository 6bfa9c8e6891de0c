package rules

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/SethMMorton/tidymoney/internal/domain"
)

// DayOfYear is a (month, day) pair used for in-year date windows. Pairs
// compare lexicographically: month first, then day.
type DayOfYear struct {
	Month int
	Day   int
}

func (d DayOfYear) String() string {
	return fmt.Sprintf("%d/%d", d.Month, d.Day)
}

func (d DayOfYear) before(o DayOfYear) bool {
	return d.Month < o.Month || (d.Month == o.Month && d.Day < o.Day)
}

func (d DayOfYear) after(o DayOfYear) bool {
	return o.before(d)
}

// OutsideRange reports whether the date falls outside the allowed window.
// Either window failing excludes the date. A bound pair whose high value is
// less than its low value wraps around the period boundary (month-end or
// year-end) instead of being empty: "day 25 through day 6" spans the turn of
// the month, and a date is outside it only strictly between 6 and 25.
func OutsideRange(date civil.Date, minDay, maxDay *int, minYear, maxYear *DayOfYear) bool {
	return outsideRangeInMonth(date, minDay, maxDay) || outsideRangeInYear(date, minYear, maxYear)
}

func outsideRangeInMonth(date civil.Date, minDay, maxDay *int) bool {
	day := date.Day

	// Bounds clip to the real end of this date's month so that "day 31"
	// still covers the last day of April or a leap-year February.
	last := lastDayInMonth(date)

	switch {
	case minDay != nil && maxDay != nil:
		low := min(*minDay, last)
		high := min(*maxDay, last)
		if high < low {
			return !(day <= high || day >= low)
		}
		return !(day >= low && day <= high)
	case minDay != nil:
		return day < min(*minDay, last)
	case maxDay != nil:
		return day > min(*maxDay, last)
	default:
		return false
	}
}

func outsideRangeInYear(date civil.Date, minYear, maxYear *DayOfYear) bool {
	d := DayOfYear{Month: int(date.Month), Day: date.Day}

	switch {
	case minYear != nil && maxYear != nil:
		low, high := *minYear, *maxYear
		if high.before(low) {
			return !(d == high || d.before(high) || d == low || d.after(low))
		}
		return d.before(low) || d.after(high)
	case minYear != nil:
		return d.before(*minYear)
	case maxYear != nil:
		return d.after(*maxYear)
	default:
		return false
	}
}

// lastDayInMonth accounts for leap years.
func lastDayInMonth(date civil.Date) int {
	if date.Month == time.February && isLeapYear(date.Year) {
		return 29
	}
	return lastDayInMonthRaw(int(date.Month))
}

// lastDayInMonthRaw is based only on the month number; February is the
// non-leap 28.
func lastDayInMonthRaw(month int) int {
	switch month {
	case 2:
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// ValidateDateFilters ensures a rule's date bounds are semantically
// possible. kind and name identify the offending rule in the error message.
func ValidateDateFilters(kind, name string, minDay, maxDay *int, minYear, maxYear *DayOfYear) error {
	if minDay != nil && (*minDay < 1 || *minDay > 31) {
		return fmt.Errorf("%w: the %s %q specifies a MinDateInMonth that is not in [1, 31]",
			domain.ErrConfig, kind, name)
	}
	if maxDay != nil && (*maxDay < 1 || *maxDay > 31) {
		return fmt.Errorf("%w: the %s %q specifies a MaxDateInMonth that is not in [1, 31]",
			domain.ErrConfig, kind, name)
	}
	if err := validateDayOfYear(kind, name, "MinDateInYear", minYear); err != nil {
		return err
	}
	return validateDayOfYear(kind, name, "MaxDateInYear", maxYear)
}

func validateDayOfYear(kind, name, field string, d *DayOfYear) error {
	if d == nil {
		return nil
	}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return fmt.Errorf("%w: the %s %q specifies a %s where the month is not in [1, 12] or the day is not in [1, 31]",
			domain.ErrConfig, kind, name, field)
	}
	if last := lastDayInMonthRaw(d.Month); d.Day > last {
		return fmt.Errorf("%w: the %s %q specifies a %s where the given day (%d) is greater than the number of days in that month (%d)",
			domain.ErrConfig, kind, name, field, d.Day, last)
	}
	return nil
}
