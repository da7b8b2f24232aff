package value

import "time"

// Date and Time are immutable calendar values (spec §3.1).
type Date struct {
	Y, M, D int
}

func (Date) TypeName() string { return "date" }
func (d Date) Display() string {
	return time.Date(d.Y, time.Month(d.M), d.D, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}
func (Date) Truthy() bool { return true }
func (Date) valueMarker() {}

func TodayDate() Date {
	now := time.Now()
	return Date{Y: now.Year(), M: int(now.Month()), D: now.Day()}
}

type Time struct {
	H, Min, Sec int
}

func (Time) TypeName() string { return "time" }
func (t Time) Display() string {
	return time.Date(0, 1, 1, t.H, t.Min, t.Sec, 0, time.UTC).Format("15:04:05")
}
func (Time) Truthy() bool { return true }
func (Time) valueMarker() {}

func NowTime() Time {
	now := time.Now()
	return Time{H: now.Hour(), Min: now.Minute(), Sec: now.Second()}
}

// ParseDate accepts the same "YYYY-MM-DD" layout Date.Display produces.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Y: t.Year(), M: int(t.Month()), D: t.Day()}, nil
}

// ParseTime accepts the same "HH:MM:SS" layout Time.Display produces.
func ParseTime(s string) (Time, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return Time{}, err
	}
	return Time{H: t.Hour(), Min: t.Minute(), Sec: t.Second()}, nil
}
