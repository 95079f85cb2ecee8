package model

import "time"

// TimestampLayout is the format of session timestamps. It sorts
// lexicographically in chronological order.
const TimestampLayout = "2006-01-02_15-04-05"

// Session is one timestamped snapshot of selected windows.
type Session struct {
	Timestamp string   `yaml:"timestamp" json:"timestamp"`
	Windows   []Window `yaml:"windows"   json:"windows"`
}

// SessionMeta describes a stored session without its window records.
type SessionMeta struct {
	Timestamp string `yaml:"timestamp" json:"timestamp"`
	Windows   int    `yaml:"windows"   json:"windows"`
}

// FormatTimestamp renders t as a session timestamp.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a session timestamp in local time.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.Local)
}
