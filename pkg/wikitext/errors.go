package wikitext

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParamShape is reported when a parameter value is a nested
	// structure instead of a scalar, list or flag.
	ErrInvalidParamShape = errors.New("parameter value must be a scalar, a list of scalars or a flag")

	// ErrMalformedCallBody is reported when a call body contains a parameter
	// segment the simplified grammar cannot split into key and value.
	ErrMalformedCallBody = errors.New("malformed call body")
)

// IssueKind classifies a non-fatal problem found while decoding or parsing.
type IssueKind int

const (
	InvalidParamShape IssueKind = iota
	MalformedCallBody
)

func (k IssueKind) String() string {
	switch k {
	case InvalidParamShape:
		return "InvalidParamShape"
	case MalformedCallBody:
		return "MalformedCallBody"
	default:
		return "Unknown"
	}
}

// Issue describes one dropped or garbled fragment. Issues never abort the
// processing of a document; they are returned next to the result.
type Issue struct {
	Kind IssueKind `json:"kind"`
	// Record is the index of the affected record in the resulting Document.
	Record int `json:"record"`
	// Key is the affected parameter key, if known.
	Key string `json:"key,omitempty"`
	// Segment is the raw input fragment, if known.
	Segment string `json:"segment,omitempty"`
	Err     error  `json:"-"`
}

func (i Issue) Error() string {
	msg := fmt.Sprintf("record %d: %s", i.Record, i.Kind)
	if i.Key != "" {
		msg += fmt.Sprintf(" (key %q)", i.Key)
	} else if i.Segment != "" {
		msg += fmt.Sprintf(" (segment %q)", i.Segment)
	}
	if i.Err != nil {
		msg += ": " + i.Err.Error()
	}
	return msg
}

func (i Issue) Unwrap() error {
	return i.Err
}

// MarshalText lets issues travel in JSON payloads as their message.
func (k IssueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *IssueKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "InvalidParamShape":
		*k = InvalidParamShape
	case "MalformedCallBody":
		*k = MalformedCallBody
	default:
		return fmt.Errorf("unknown issue kind %q", text)
	}
	return nil
}
