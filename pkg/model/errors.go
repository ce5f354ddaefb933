package model

import (
	"encoding/json"
	"strings"
)

// ErrorBody is the error document returned by the backend. Detail is
// usually a string; request validation failures carry a list of
// {loc, msg, type} objects instead.
type ErrorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// FieldError is one entry of a validation failure list.
type FieldError struct {
	Loc  []any  `json:"loc,omitempty"`
	Msg  string `json:"msg"`
	Type string `json:"type,omitempty"`
}

// Message returns the human-readable detail, or "" if there is none.
func (b *ErrorBody) Message() string {
	if b == nil || len(b.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(b.Detail, &s); err == nil {
		return s
	}
	var fields []FieldError
	if err := json.Unmarshal(b.Detail, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if f.Msg != "" {
				msgs = append(msgs, f.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

// ParseErrorBody extracts the detail message from a raw response body.
func ParseErrorBody(data []byte) string {
	var body ErrorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Message()
}
