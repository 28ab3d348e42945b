package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 style canonical JSON.
// This is the serialization used for values hashed by a runtime or persisted
// by a state store. Emitted graph text uses MarshalVerbatim.
//
// Key differences from standard json.Marshal:
// 1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
// 2. No HTML escaping (< > & are NOT escaped)
// 3. Strings are NFC normalized
// 4. Floats use the shortest round-trip form, exponent only outside [1e-6, 1e21)
// 5. NaN and Inf are rejected
func MarshalCanonical(v any) ([]byte, error) {
	w := canonicalWriter{nfc: true}
	if err := w.write(v); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// MarshalVerbatim is MarshalCanonical without NFC normalization: strings
// keep their exact bytes. Graph text uses it so that hashing an embedded
// label reproduces the label's ConceptHash even when the label is not NFC.
func MarshalVerbatim(v any) ([]byte, error) {
	var w canonicalWriter
	if err := w.write(v); err != nil {
		return nil, err
	}
	return w.buf.Bytes(), nil
}

// canonicalWriter accumulates canonical JSON. nfc selects whether strings
// are NFC normalized.
type canonicalWriter struct {
	buf bytes.Buffer
	nfc bool
}

func (w *canonicalWriter) write(v any) error {
	buf := &w.buf
	switch val := v.(type) {
	case nil, IRNull:
		buf.WriteString("null")
	case IRString:
		return w.writeString(string(val))
	case string:
		return w.writeString(val)
	case IRInt:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case IRFloat:
		return writeCanonicalFloat(buf, float64(val))
	case float64:
		return writeCanonicalFloat(buf, val)
	case IRBool:
		buf.WriteString(strconv.FormatBool(bool(val)))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case IRArray:
		return w.writeArray(val)
	case IRObject:
		return w.writeObject(val)
	case []any:
		arr, err := FromAny(val)
		if err != nil {
			return err
		}
		return w.write(arr)
	case map[string]any:
		obj, err := FromAny(val)
		if err != nil {
			return err
		}
		return w.write(obj)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalFloat renders f the way ECMAScript Number.prototype.toString
// does for the ranges the compiler produces.
func writeCanonicalFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite float forbidden in canonical JSON: %v", f)
	}
	if f == 0 {
		buf.WriteByte('0')
		return nil
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		buf.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	// Go pads the exponent to two digits ("1e-07"); ECMAScript does not.
	s := strconv.FormatFloat(f, 'e', -1, 64)
	s = strings.Replace(s, "e-0", "e-", 1)
	s = strings.Replace(s, "e+0", "e+", 1)
	buf.WriteString(s)
	return nil
}

// writeString produces a canonical JSON string, NFC normalized when w.nfc
// is set. Only control characters, backslash and quote are escaped.
func (w *canonicalWriter) writeString(s string) error {
	normalized := s
	if w.nfc {
		normalized = norm.NFC.String(s)
	}

	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false) // <, >, & must NOT be escaped
	if err := enc.Encode(normalized); err != nil {
		return err
	}

	// json.Encoder adds a trailing newline
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})

	// Go escapes U+2028 and U+2029 for JavaScript embedding; canonical JSON
	// keeps them literal.
	w.buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators converts \u2028 and \u2029 escapes back to literal
// characters, leaving \\u2028 (an escaped backslash followed by text) alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+1 < len(data) && data[i+1] == '\\' {
			out = append(out, '\\', '\\')
			i++
			continue
		}
		if i+6 <= len(data) && string(data[i:i+5]) == `\u202` && (data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func (w *canonicalWriter) writeArray(arr IRArray) error {
	w.buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.write(elem); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	w.buf.WriteByte(']')
	return nil
}

// writeObject writes an object with RFC 8785 key ordering.
func (w *canonicalWriter) writeObject(obj IRObject) error {
	w.buf.WriteByte('{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.writeString(k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		w.buf.WriteByte(':')
		if err := w.write(obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	w.buf.WriteByte('}')
	return nil
}
