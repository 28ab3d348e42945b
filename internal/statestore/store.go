package statestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/zeromem/internal/ir"
)

// ErrEmptyKey is returned when a state key is empty.
var ErrEmptyKey = errors.New("statestore: empty key")

// Store is a key-value state backend.
type Store interface {
	// Load returns the value stored under key. found is false, with a nil
	// error, when the key is absent.
	Load(ctx context.Context, key string) (value ir.IRValue, found bool, err error)

	// Save stores value under key, replacing any previous value.
	Save(ctx context.Context, key string, value ir.IRValue) error

	// Close releases backend resources.
	Close() error
}

// encodeValue converts a value to canonical JSON TEXT for storage.
func encodeValue(value ir.IRValue) (string, error) {
	if value == nil {
		value = ir.IRNull{}
	}
	data, err := ir.MarshalCanonical(value)
	if err != nil {
		return "", fmt.Errorf("marshal state value: %w", err)
	}
	return string(data), nil
}

// decodeValue parses stored JSON TEXT back into an IRValue.
// Uses ir.UnmarshalIRValue, which keeps integers beyond 2^53 exact.
func decodeValue(data string) (ir.IRValue, error) {
	if !json.Valid([]byte(data)) {
		return nil, fmt.Errorf("unmarshal state value: invalid JSON")
	}
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal state value: %w", err)
	}
	return v, nil
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}
