// Package pebbleengine adapts github.com/cockroachdb/pebble, an ordered
// LSM-tree KV library, to the engine.Engine contract, so the server can run
// against a mature third-party storage engine instead of the bundled
// log-structured store.
package pebbleengine

import (
	"errors"

	"github.com/cockroachdb/pebble"

	"github.com/epokhe/kvs/internal/kvserr"
)

// Adapter wraps a *pebble.DB so it satisfies engine.Engine.
type Adapter struct {
	db *pebble.DB
}

// Open opens (or creates) a pebble database rooted at dir.
func Open(dir string) (*Adapter, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, kvserr.External(err, "open pebble database")
	}
	return &Adapter{db: db}, nil
}

// Set stores value under key with a synced write: Set returns only once the
// write is on stable storage.
func (a *Adapter) Set(key, value string) error {
	if err := a.db.Set([]byte(key), []byte(value), pebble.Sync); err != nil {
		return kvserr.External(err, "pebble set")
	}
	return nil
}

// Get returns the current value for key.
func (a *Adapter) Get(key string) (string, bool, error) {
	val, closer, err := a.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, kvserr.External(err, "pebble get")
	}
	defer closer.Close()

	return string(val), true, nil
}

// Remove deletes key, failing with kvserr.CodeKeyNotFound if it's absent —
// pebble itself doesn't distinguish a delete-of-missing-key, so the adapter
// checks existence first to match the log-structured engine's contract.
func (a *Adapter) Remove(key string) error {
	_, closer, err := a.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return kvserr.KeyNotFound(key)
	}
	if err != nil {
		return kvserr.External(err, "pebble get before remove")
	}
	_ = closer.Close()

	if err := a.db.Delete([]byte(key), pebble.Sync); err != nil {
		return kvserr.External(err, "pebble delete")
	}
	return nil
}

// Close releases the underlying pebble database.
func (a *Adapter) Close() error {
	if err := a.db.Close(); err != nil {
		return kvserr.External(err, "close pebble database")
	}
	return nil
}
