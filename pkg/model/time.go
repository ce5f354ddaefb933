package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a backend date-time. The backend writes UTC times without a
// zone suffix ("2024-05-01T10:00:00.123456"), which time.Time rejects.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts any layout ParseDate does. null leaves t unchanged.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, ok := ParseDate(s)
	if !ok {
		return fmt.Errorf("timestamp: cannot parse %q", s)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes RFC 3339.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// MarshalYAML writes the plain time value.
func (t Timestamp) MarshalYAML() (any, error) {
	return t.Time, nil
}
