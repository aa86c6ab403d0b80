package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseError reports that no JSON object could be recovered from model
// output. Raw carries the original text so callers can persist it alongside
// an error tag instead of dropping the evidence.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("recover json from model output: %s", e.Reason)
}

var (
	lineComments  = regexp.MustCompile(`(?m)//.*$`)
	blockComments = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingComma = regexp.MustCompile(`,\s*([\]}])`)
)

// DecodeObject recovers a JSON object from untrusted model output and
// unmarshals it into v. Strategies are tried in order, first success wins:
//
//  1. parse the trimmed output as JSON directly;
//  2. strip code fences and comments, drop trailing commas, isolate the first
//     '{' through the last '}', and parse that.
//
// When every strategy fails a *ParseError carrying the raw output is
// returned.
func DecodeObject(raw string, v any) error {
	trimmed := strings.TrimSpace(raw)

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	}

	cleaned := stripFences(trimmed)
	cleaned = lineComments.ReplaceAllString(cleaned, "")
	cleaned = blockComments.ReplaceAllString(cleaned, "")
	cleaned = trailingComma.ReplaceAllString(cleaned, "$1")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return &ParseError{Reason: "no object found", Raw: raw}
	}

	if err := json.Unmarshal([]byte(cleaned[start:end+1]), v); err != nil {
		return &ParseError{Reason: err.Error(), Raw: raw}
	}

	return nil
}

func stripFences(raw string) string {
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.Trim(strings.TrimSpace(raw), "`")
}

// CoerceFloat converts loosely typed JSON values into a float64, returning
// NaN when the value has no numeric reading.
func CoerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// CoerceString renders loosely typed JSON values as a trimmed string.
func CoerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
