package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// ErrNoData is returned for a missing body or a JSON value that counts as
// empty: null, false, 0, "", [] and {}.
var ErrNoData = errors.New("no data provided")

// DecodeError reports a body that is not a single valid JSON value
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "failed to decode JSON object: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

const prettyIndent = "    "

// decodePayload parses body as exactly one JSON value. Numbers are kept as
// json.Number so their literal text survives.
func decodePayload(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if rest := bytes.TrimSpace(body[dec.InputOffset():]); len(rest) > 0 {
		return nil, &DecodeError{Err: fmt.Errorf("invalid character %q after top-level value", rest[0])}
	}

	return v, nil
}

// isEmpty reports whether a decoded value counts as no data
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		return err == nil && f == 0
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// prettyPrint indents a valid JSON document by four spaces, keeping key order
// and number literals, and escapes non-ASCII characters as \uXXXX.
func prettyPrint(raw []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", prettyIndent); err != nil {
		return "", err
	}
	return escapeNonASCII(buf.Bytes()), nil
}

// compact strips insignificant whitespace from a valid JSON document
func compact(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// escapeNonASCII rewrites every rune above 0x7F as a JSON \u escape.
// Outside strings valid JSON is pure ASCII, so this only touches string contents.
func escapeNonASCII(b []byte) string {
	var out bytes.Buffer
	out.Grow(len(b))

	for len(b) > 0 {
		if b[0] < utf8.RuneSelf {
			out.WriteByte(b[0])
			b = b[1:]
			continue
		}

		r, size := utf8.DecodeRune(b)
		b = b[size:]

		if r > 0xFFFF {
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&out, `\u%04x\u%04x`, hi, lo)
			continue
		}
		fmt.Fprintf(&out, `\u%04x`, r)
	}

	return out.String()
}
