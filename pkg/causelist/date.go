package causelist

import (
	"fmt"
	"time"
)

// isoDateLayout is the calendar-date form used at the external boundary.
const isoDateLayout = "2006-01-02"

// ecourtsDateLayout is the dd-mm-yyyy form the eCourts endpoints expect.
const ecourtsDateLayout = "02-01-2006"

// Date is a calendar date (no time-of-day, no zone). It marshals to and
// from the ISO 8601 date form used by the external JSON contract.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// Today returns the current calendar date in local time.
func Today() Date {
	return fromTime(time.Now())
}

// ParseDate parses an ISO 8601 calendar date (YYYY-MM-DD).
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(isoDateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", value, err)
	}
	return fromTime(parsed), nil
}

// DateFor selects the target date the way the CLI flags do: an explicit
// ISO date wins, then --tomorrow, then today.
func DateFor(today bool, tomorrow bool, explicit string) (Date, error) {
	if explicit != "" {
		return ParseDate(explicit)
	}
	if tomorrow {
		return fromTime(time.Now().AddDate(0, 0, 1)), nil
	}
	return Today(), nil
}

func fromTime(value time.Time) Date {
	year, month, day := value.Date()
	return Date{Year: year, Month: month, Day: day}
}

func (date Date) asTime() time.Time {
	return time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date is unset.
func (date Date) IsZero() bool {
	return date.Year == 0 && date.Month == 0 && date.Day == 0
}

// String renders the ISO 8601 form.
func (date Date) String() string {
	return date.asTime().Format(isoDateLayout)
}

// ECourtsFormat renders the dd-mm-yyyy form the upstream site expects.
func (date Date) ECourtsFormat() string {
	return date.asTime().Format(ecourtsDateLayout)
}

// CompactFormat renders ddmmyyyy, used in PDF file naming conventions.
func (date Date) CompactFormat() string {
	return date.asTime().Format("02012006")
}

// ShortYearFormat renders dd-mm-yy, another observed PDF naming convention.
func (date Date) ShortYearFormat() string {
	return date.asTime().Format("02-01-06")
}

// MarshalJSON encodes the date as an ISO 8601 string.
func (date Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + date.String() + `"`), nil
}

// UnmarshalJSON decodes an ISO 8601 date string.
func (date *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date JSON: %s", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*date = parsed
	return nil
}
