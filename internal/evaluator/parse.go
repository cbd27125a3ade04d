package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseArguments decodes a comma-joined list of JSON literals, e.g. `[2,7,11,15], 9`.
func ParseArguments(input string) ([]any, error) {
	var args []any
	if err := decodeJSON("["+input+"]", &args); err != nil {
		return nil, fmt.Errorf("invalid test case input %q: %w", input, err)
	}
	return args, nil
}

// ParseExpected decodes a JSON-encoded expected output.
func ParseExpected(expected string) (any, error) {
	var v any
	if err := decodeJSON(expected, &v); err != nil {
		return nil, fmt.Errorf("invalid expected output %q: %w", expected, err)
	}
	return v, nil
}

func decodeJSON(text string, v any) error {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}

// Canonical re-encodes a JSON literal so that structurally equal values compare equal
// (`[0, 1]` and `[0,1]`, `1.0` and `1`). Text that is not JSON is returned trimmed.
func Canonical(text string) string {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return strings.TrimSpace(text)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(buf.String())
}

// Equal reports whether two JSON literals are structurally equal.
func Equal(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

// Fabricate produces a plausible JSON result of the same shape as expected that is
// guaranteed not to equal it.
func Fabricate(expected any) string {
	switch x := expected.(type) {
	case []any:
		if len(x) > 0 {
			return "[]"
		}
		return "[-1]"
	case map[string]any:
		if len(x) > 0 {
			return "{}"
		}
		return `{"error":true}`
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return "0"
		}
		g := f + 1
		if g == f {
			g = f * 2
		}
		if g == f {
			return "0"
		}
		return strconv.FormatFloat(g, 'f', -1, 64)
	case float64:
		return Fabricate(json.Number(strconv.FormatFloat(x, 'f', -1, 64)))
	case string:
		if x != "" {
			return `""`
		}
		return `"?"`
	case bool:
		return strconv.FormatBool(!x)
	default:
		return "0"
	}
}

// isArray reports whether the decoded expected output is array-shaped.
func isArray(v any) bool {
	_, ok := v.([]any)
	return ok
}
