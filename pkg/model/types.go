package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var jsonNull = []byte("null")

// Number is a numeric field that tolerates the loose encodings produced
// upstream: JSON numbers, numeric strings (decimal columns) and null.
// Anything that cannot be read as a finite number decodes to 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding number: %w", err)
	}

	var f float64

	switch v := raw.(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}

		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}

	*n = Number(f)

	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 {
	return float64(n)
}

// Int returns the value rounded to the nearest integer.
func (n Number) Int() int64 {
	return int64(math.Round(float64(n)))
}

// Int is an integer field decoded like Number: integral floats such as
// 1200.0 and numeric strings are accepted and rounded.
type Int int64

// UnmarshalJSON implements json.Unmarshaler.
func (i *Int) UnmarshalJSON(data []byte) error {
	var n Number
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}

	*i = Int(n.Int())

	return nil
}

// intPtr converts an optional Int, keeping nil for absent values.
func intPtr(v *Int) *int64 {
	if v == nil {
		return nil
	}

	out := int64(*v)

	return &out
}

// ID is an identifier that may be encoded as a JSON string or number.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ""

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}

		*id = ID(s)

		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("decoding id: %w", err)
	}

	*id = ID(num.String())

	return nil
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}

// BenchmarkVersion is the suite version a run was scored against.
// Upstream emits it either as a bare string/number or as an object
// carrying a "version" key.
type BenchmarkVersion struct {
	Version string `mapstructure:"version" json:"version"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *BenchmarkVersion) UnmarshalJSON(data []byte) error {
	*b = BenchmarkVersion{}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding benchmark version: %w", err)
	}

	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		b.Version = v
	case float64:
		b.Version = strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any:
		if err := mapstructure.WeakDecode(v, b); err != nil {
			return fmt.Errorf("decoding benchmark version object: %w", err)
		}
	}

	return nil
}

// MarshalJSON emits the version as a plain string.
func (b BenchmarkVersion) MarshalJSON() ([]byte, error) {
	if b.Version == "" {
		return jsonNull, nil
	}

	return json.Marshal(b.Version)
}

// Display returns "v<version>", or "v-" when unknown.
func (b BenchmarkVersion) Display() string {
	if b.Version == "" {
		return "v-"
	}

	return "v" + b.Version
}

// CategoryFilter holds the JSON-encoded list of category ids a run was
// restricted to. The empty value means the run covered all categories.
type CategoryFilter string

// UnmarshalJSON accepts null, a JSON string holding the encoded list,
// or the list itself.
func (c *CategoryFilter) UnmarshalJSON(data []byte) error {
	*c = ""

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding category filter: %w", err)
		}

		*c = CategoryFilter(s)

		return nil
	}

	*c = CategoryFilter(data)

	return nil
}

// MarshalJSON emits the encoded list as a string, or null.
func (c CategoryFilter) MarshalJSON() ([]byte, error) {
	if c == "" {
		return jsonNull, nil
	}

	return json.Marshal(string(c))
}

// UnmarshalJSON reads the verdict counts as loose integers.
func (c *Counts) UnmarshalJSON(data []byte) error {
	var raw struct {
		Pass    Int `json:"pass"`
		Partial Int `json:"partial"`
		Fail    Int `json:"fail"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding counts: %w", err)
	}

	*c = Counts{Pass: int(raw.Pass), Partial: int(raw.Partial), Fail: int(raw.Fail)}

	return nil
}

// UnmarshalJSON reads the latencies as loose integers. Absent or null
// latencies stay nil.
func (r *TestCaseResult) UnmarshalJSON(data []byte) error {
	type plain TestCaseResult

	var raw struct {
		plain
		ModelLatencyMs *Int `json:"model_latency_ms"`
		JudgeLatencyMs *Int `json:"judge_latency_ms"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding test case result: %w", err)
	}

	*r = TestCaseResult(raw.plain)
	r.ModelLatencyMs = intPtr(raw.ModelLatencyMs)
	r.JudgeLatencyMs = intPtr(raw.JudgeLatencyMs)

	return nil
}

// UnmarshalJSON reads totalTests as a loose integer.
func (d *RunDocument) UnmarshalJSON(data []byte) error {
	type plain RunDocument

	var raw struct {
		plain
		TotalTests Int `json:"totalTests"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding run document: %w", err)
	}

	*d = RunDocument(raw.plain)
	d.TotalTests = int(raw.TotalTests)

	return nil
}
