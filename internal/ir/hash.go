package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashSize is the byte length of every identity digest.
const HashSize = sha256.Size

// ConceptHash is the content-addressed identity of a concept.
// ConceptHash = SHA256(normalized_label)
type ConceptHash [HashSize]byte

// FactHash is the context-free identity of a (subject, predicate, object) claim.
// FactHash = SHA256(subject + "|" + predicate + "|" + object)
type FactHash [HashSize]byte

// EpisodeHash identifies one observation of a fact under a specific context.
// EpisodeHash = SHA256(fact_bytes ++ context_bytes)
type EpisodeHash [HashSize]byte

// ContextHash identifies an observation context.
// ContextHash = SHA256(event_time + "|" + source + "|" + scope)
type ContextHash [HashSize]byte

// ConceptHashOf computes the identity of an already-normalized label.
func ConceptHashOf(normalizedLabel string) ConceptHash {
	return ConceptHash(sha256.Sum256([]byte(normalizedLabel)))
}

// FactHashOf computes the context-free identity of a fact.
// The pipe separator keeps adjacent label parts from running together.
func FactHashOf(subject, predicate, object string) FactHash {
	h := sha256.New()
	h.Write([]byte(subject))
	h.Write([]byte{'|'})
	h.Write([]byte(predicate))
	h.Write([]byte{'|'})
	h.Write([]byte(object))

	var out FactHash
	h.Sum(out[:0])
	return out
}

// ContextHashOf computes the identity of a context from its original
// (non-normalized) event time, source and scope. Optional fields such as the
// agent or session id do not participate.
func ContextHashOf(meta ContextMeta) ContextHash {
	h := sha256.New()
	h.Write([]byte(meta.EventTime))
	h.Write([]byte{'|'})
	h.Write([]byte(meta.Source))
	h.Write([]byte{'|'})
	h.Write([]byte(meta.Scope))

	var out ContextHash
	h.Sum(out[:0])
	return out
}

// EpisodeHashOf binds a fact to a context by hashing the raw 64-byte
// concatenation of both digests (not their hex forms).
func EpisodeHashOf(fact FactHash, ctx ContextHash) EpisodeHash {
	var combined [2 * HashSize]byte
	copy(combined[:HashSize], fact[:])
	copy(combined[HashSize:], ctx[:])
	return EpisodeHash(sha256.Sum256(combined[:]))
}

// ShortHex returns the first n hex characters of a digest for display.
// n is clamped to 64; only the leading bytes needed are encoded.
// Never use the result as an identity.
func ShortHex(hash [HashSize]byte, n int) string {
	if n <= 0 {
		return ""
	}
	if n > 2*HashSize {
		n = 2 * HashSize
	}
	bytesNeeded := (n + 1) / 2
	return hex.EncodeToString(hash[:bytesNeeded])[:n]
}

// HashLengthError reports a hex hash that does not decode to exactly 32 bytes.
type HashLengthError struct {
	Kind string
	Got  int
}

func (e *HashLengthError) Error() string {
	return fmt.Sprintf("%s: expected %d bytes, got %d", e.Kind, HashSize, e.Got)
}

// decodeHashHex decodes a hex digest, failing closed on any length mismatch.
func decodeHashHex(kind, s string) ([HashSize]byte, error) {
	var out [HashSize]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%s: invalid hex: %w", kind, err)
	}
	if len(raw) != HashSize {
		return out, &HashLengthError{Kind: kind, Got: len(raw)}
	}
	copy(out[:], raw)
	return out, nil
}

func unmarshalHashJSON(kind string, data []byte) ([HashSize]byte, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return [HashSize]byte{}, fmt.Errorf("%s: %w", kind, err)
	}
	return decodeHashHex(kind, s)
}

func unmarshalHashText(kind string, dst *[HashSize]byte, text []byte) error {
	b, err := decodeHashHex(kind, string(text))
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

// ParseConceptHash decodes a 64-character hex string.
func ParseConceptHash(s string) (ConceptHash, error) {
	b, err := decodeHashHex("ConceptHash", s)
	return ConceptHash(b), err
}

// ParseFactHash decodes a 64-character hex string.
func ParseFactHash(s string) (FactHash, error) {
	b, err := decodeHashHex("FactHash", s)
	return FactHash(b), err
}

// ParseEpisodeHash decodes a 64-character hex string.
func ParseEpisodeHash(s string) (EpisodeHash, error) {
	b, err := decodeHashHex("EpisodeHash", s)
	return EpisodeHash(b), err
}

// ParseContextHash decodes a 64-character hex string.
func ParseContextHash(s string) (ContextHash, error) {
	b, err := decodeHashHex("ContextHash", s)
	return ContextHash(b), err
}

func (h ConceptHash) String() string { return hex.EncodeToString(h[:]) }
func (h FactHash) String() string    { return hex.EncodeToString(h[:]) }
func (h EpisodeHash) String() string { return hex.EncodeToString(h[:]) }
func (h ContextHash) String() string { return hex.EncodeToString(h[:]) }

// Short returns the leading n hex characters for display.
func (h ConceptHash) Short(n int) string { return ShortHex(h, n) }
func (h FactHash) Short(n int) string    { return ShortHex(h, n) }
func (h EpisodeHash) Short(n int) string { return ShortHex(h, n) }
func (h ContextHash) Short(n int) string { return ShortHex(h, n) }

// MarshalText implements encoding.TextMarshaler (hex form). This also makes
// the hash types usable as JSON map keys.
func (h ConceptHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }
func (h FactHash) MarshalText() ([]byte, error)    { return []byte(h.String()), nil }
func (h EpisodeHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }
func (h ContextHash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler; JSON uses it for map
// keys. Anything but 64 hex characters is rejected.
func (h *ConceptHash) UnmarshalText(text []byte) error {
	return unmarshalHashText("ConceptHash", (*[HashSize]byte)(h), text)
}

func (h *FactHash) UnmarshalText(text []byte) error {
	return unmarshalHashText("FactHash", (*[HashSize]byte)(h), text)
}

func (h *EpisodeHash) UnmarshalText(text []byte) error {
	return unmarshalHashText("EpisodeHash", (*[HashSize]byte)(h), text)
}

func (h *ContextHash) UnmarshalText(text []byte) error {
	return unmarshalHashText("ContextHash", (*[HashSize]byte)(h), text)
}

// UnmarshalJSON decodes a hex string and rejects anything but 32 bytes.
func (h *ConceptHash) UnmarshalJSON(data []byte) error {
	b, err := unmarshalHashJSON("ConceptHash", data)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

// UnmarshalJSON decodes a hex string and rejects anything but 32 bytes.
func (h *FactHash) UnmarshalJSON(data []byte) error {
	b, err := unmarshalHashJSON("FactHash", data)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

// UnmarshalJSON decodes a hex string and rejects anything but 32 bytes.
func (h *EpisodeHash) UnmarshalJSON(data []byte) error {
	b, err := unmarshalHashJSON("EpisodeHash", data)
	if err != nil {
		return err
	}
	*h = b
	return nil
}

// UnmarshalJSON decodes a hex string and rejects anything but 32 bytes.
func (h *ContextHash) UnmarshalJSON(data []byte) error {
	b, err := unmarshalHashJSON("ContextHash", data)
	if err != nil {
		return err
	}
	*h = b
	return nil
}
