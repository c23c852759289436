package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// AnswerKind tags the shape of a SelectedAnswer.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerSingle
	AnswerMulti
)

// SelectedAnswer is what a user picked for one question: nothing, a single
// identifier or free-text value, or a list of identifiers.
// On the wire it is a JSON string, a JSON array of strings, or null.
type SelectedAnswer struct {
	kind   AnswerKind
	single string
	multi  []string
}

// SingleAnswer builds a one-value answer (single choice, true/false, fill in the blank).
func SingleAnswer(v string) SelectedAnswer {
	return SelectedAnswer{kind: AnswerSingle, single: v}
}

// MultiAnswer builds a list answer (multiple choice).
func MultiAnswer(v ...string) SelectedAnswer {
	values := make([]string, len(v))
	copy(values, v)
	return SelectedAnswer{kind: AnswerMulti, multi: values}
}

func (a SelectedAnswer) Kind() AnswerKind { return a.kind }

// Single returns the value and true when the answer is a single value.
func (a SelectedAnswer) Single() (string, bool) {
	return a.single, a.kind == AnswerSingle
}

// Multi returns a copy of the values and true when the answer is a list.
func (a SelectedAnswer) Multi() ([]string, bool) {
	if a.kind != AnswerMulti {
		return nil, false
	}
	values := make([]string, len(a.multi))
	copy(values, a.multi)
	return values, true
}

// IsEmpty reports whether nothing usable was selected: no value, a blank
// string or an empty list.
func (a SelectedAnswer) IsEmpty() bool {
	switch a.kind {
	case AnswerSingle:
		return strings.TrimSpace(a.single) == ""
	case AnswerMulti:
		return len(a.multi) == 0
	default:
		return true
	}
}

func (a SelectedAnswer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerSingle:
		return json.Marshal(a.single)
	case AnswerMulti:
		if a.multi == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.multi)
	default:
		return []byte("null"), nil
	}
}

func (a *SelectedAnswer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = SelectedAnswer{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*a = SingleAnswer(v)
		return nil
	case '[':
		var v []string
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return fmt.Errorf("selected answer list must contain strings: %w", err)
		}
		*a = MultiAnswer(v...)
		return nil
	default:
		return fmt.Errorf("selected answer must be a string, a list of strings or null")
	}
}
