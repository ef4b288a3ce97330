// Package repo implements the journal's persistence layer. The journal keeps
// its whole state in a few JSON documents addressed by key, so everything is
// built on a small key-value Storage contract with three backends (memory,
// SQLite through GORM, Redis) and a typed Repository that owns the four
// collections on top of it.
package repo

import (
	"context"
	"errors"
	"fmt"
)

// ErrStorage wraps every failure reported by a backend or met while decoding
// a stored document.
var ErrStorage = errors.New("storage failed")

// Storage is a string key-value store. Get reports a missing key with
// ok=false and a nil error. Remove ignores keys that do not exist.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

func storageErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s %s: %v", ErrStorage, op, key, err)
}
