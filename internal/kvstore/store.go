// Package kvstore holds the key-value persistence backends used for glint
// settings. Values are opaque bytes; the settings package owns the encoding.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// ErrInvalidKey is returned for keys that are empty or contain path separators.
var ErrInvalidKey = errors.New("invalid key")

// Store is a get/set key-value store.
type Store interface {
	// Get returns the value for key. ok is false when the key was never set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// ValidateKey rejects keys that cannot be stored by every backend.
func ValidateKey(key string) error {
	switch {
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case strings.ContainsAny(key, `/\`), key == ".", key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
