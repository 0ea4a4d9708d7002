package billing

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// =============================================================================
// DATE - day-granular calendar date (billing only cares about year/month)
// =============================================================================

// Date is a calendar date in UTC. The zero value means "unset", which is a
// legal state for every optional date field on a client record.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts "2006-01-02" and "2006-01" (month inputs from forms).
// An empty string parses to the zero Date.
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t.UTC()}, nil
		}
	}
	return Date{}, fmt.Errorf("parse date %q: want YYYY-MM-DD or YYYY-MM", s)
}

func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Before(o Date) bool    { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool     { return d.Time.After(o.Time) }
func (d Date) YearMonth() YearMonth  { return YearMonth{Year: d.Year(), Month: d.Month()} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

// MarshalJSON encodes as "2006-01-02", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner. Dates are persisted as TEXT.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = Date{Time: v.UTC()}
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	return fmt.Errorf("scan date: unsupported type %T", src)
}

// Value implements driver.Valuer. Unset dates persist as NULL.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// =============================================================================
// YEAR MONTH - the grain every billing question is asked at
// =============================================================================

// YearMonth identifies one billing cell: a calendar (year, month) pair.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth accepts "2006-01" and the display form "Jan 2006".
func ParseYearMonth(s string) (YearMonth, error) {
	for _, layout := range []string{"2006-01", "Jan 2006", "January 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return YearMonth{Year: t.Year(), Month: t.Month()}, nil
		}
	}
	return YearMonth{}, fmt.Errorf("parse year-month %q: want YYYY-MM or Mon YYYY", s)
}

func (ym YearMonth) IsZero() bool { return ym.Year == 0 }

// index is the absolute month number, used for ordering and distances.
func (ym YearMonth) index() int { return ym.Year*12 + int(ym.Month) - 1 }

func (ym YearMonth) Before(o YearMonth) bool        { return ym.index() < o.index() }
func (ym YearMonth) After(o YearMonth) bool         { return ym.index() > o.index() }
func (ym YearMonth) Equal(o YearMonth) bool         { return ym.index() == o.index() }
func (ym YearMonth) BeforeOrEqual(o YearMonth) bool { return ym.index() <= o.index() }
func (ym YearMonth) AfterOrEqual(o YearMonth) bool  { return ym.index() >= o.index() }

// AddMonths returns the cell n months later (n may be negative).
func (ym YearMonth) AddMonths(n int) YearMonth {
	i := ym.index() + n
	y, m := i/12, i%12
	if m < 0 {
		y, m = y-1, m+12
	}
	return YearMonth{Year: y, Month: time.Month(m + 1)}
}

// MonthsSince returns how many months ym is after o (negative if before).
func (ym YearMonth) MonthsSince(o YearMonth) int { return ym.index() - o.index() }

// String renders the display form used in the comment log, e.g. "Sep 2025".
func (ym YearMonth) String() string {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// Key renders the sortable form used as a storage key, e.g. "2025-09".
func (ym YearMonth) Key() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
