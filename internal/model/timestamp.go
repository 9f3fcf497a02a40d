package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// timestampLayout is fixed width so that lexical order of stored values
// matches chronological order.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is an instant as stored in a record.
//
// It marshals as RFC 3339 in UTC with millisecond precision. Decoding accepts
// RFC 3339 strings, date-only strings ("2006-01-02") and epoch milliseconds.
// A value that cannot be interpreted leaves the receiver unchanged, which keeps
// whatever default the caller decoded over.
type Timestamp struct {
	time.Time
}

// NewTimestamp normalizes t to UTC millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

// TimestampPtr is NewTimestamp for optional instants.
func TimestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := NewTimestamp(*t)
	return &ts
}

// TimePtr converts an optional stored instant back to a time.Time pointer.
func (ts *Timestamp) TimePtr() *time.Time {
	if ts == nil || ts.IsZero() {
		return nil
	}
	t := ts.Time
	return &t
}

// String formats the timestamp the way it is stored.
func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(timestampLayout)
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		ms, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return nil
		}
		ts.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return nil
	}
	if t, ok := ParseInstant(s); ok {
		ts.Time = t.UTC().Truncate(time.Millisecond)
	}
	return nil
}

// ParseInstant interprets the date encodings found in stored records and
// accepted on the command line.
func ParseInstant(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
