package shared

import "time"

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}

// Window resolves a from/to query pair into a half-open instant range.
// Missing bounds default to the last 31 days ending tomorrow.
func Window(fromRaw, toRaw string, loc *time.Location) (time.Time, time.Time, error) {
	from, err := ParseDate(fromRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := ParseDate(toRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.IsZero() {
		now := time.Now().In(loc)
		to = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -31)
	}
	return from, to, nil
}
