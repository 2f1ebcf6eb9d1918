package models

import (
	"encoding/json"
	"time"
)

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// Timestamp is a document date that tolerates malformed stored values.
// Unparsable input decodes to the zero time and keeps the raw text so it
// survives a round trip untouched.
type Timestamp struct {
	time.Time
	raw string
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Malformed reports whether the stored value could not be parsed
func (t Timestamp) Malformed() bool {
	return t.raw != ""
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.raw != "" {
		return json.Marshal(t.raw)
	}
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		t.raw = string(data)
		return nil
	}
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.raw = s
	return nil
}
