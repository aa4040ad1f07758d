// Package extract parses the free-text output of a vision LLM into
// structured invoice fields.
package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	openFence  = "```json"
	closeFence = "```"
)

// Fields holds the typed invoice fields recovered from a model response.
// Nil means the model omitted the field or produced something unusable.
type Fields struct {
	TaxID       *string
	IssueDate   *string
	TotalAmount *float64
}

// MalformedResponseError indicates the model response could not be parsed as
// JSON by either the fenced-block or whole-text strategy. It carries the
// original text so callers can surface it for prompt/model drift inspection.
type MalformedResponseError struct {
	RawText string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v (raw: %s)", e.Err, strings.TrimSpace(e.RawText))
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Parse extracts invoice fields from a raw model response.
//
// It first locates a fenced JSON block and parses the content strictly
// between the fences; when no opening fence exists the whole trimmed text is
// parsed instead. Failure of both strategies yields a
// *MalformedResponseError, never a partial result.
func Parse(raw string) (*Fields, error) {
	payload, fenced := locateBlock(raw)
	if !fenced {
		payload = strings.TrimSpace(raw)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil, &MalformedResponseError{RawText: raw, Err: err}
	}

	return &Fields{
		TaxID:       stringField(obj["cnpj"]),
		IssueDate:   stringField(obj["data"]),
		TotalAmount: amountField(obj["valor"]),
	}, nil
}

// locateBlock finds the first ```json opener and the nearest closing fence
// after it, returning the trimmed content strictly between them. First match
// wins; anything after the closing fence is ignored. An opener without a
// closer reports no block, so Parse falls through to whole-text parsing.
func locateBlock(raw string) (string, bool) {
	start := strings.Index(raw, openFence)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(openFence):]
	end := strings.Index(rest, closeFence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// isNull reports whether a raw JSON value is an explicit null. Unmarshal
// leaves the target untouched on null, which would silently turn "model said
// null" into a zero value.
func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

func stringField(raw json.RawMessage) *string {
	if raw == nil || isNull(raw) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// amountField coerces the amount value leniently: JSON numbers and numeric
// strings both parse, anything else becomes nil. A garbled amount must not
// block extraction of the remaining fields, so this is the one place a parse
// problem is absorbed instead of raised.
func amountField(raw json.RawMessage) *float64 {
	if raw == nil || isNull(raw) {
		return nil
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &n
}
