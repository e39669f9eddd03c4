// Package engine defines the storage capability the server dispatches
// against: `{Set, Get, Remove}`. Any concrete store — the log-structured
// kvstore.Store, or a third-party ordered KV library behind an adapter —
// satisfies it identically, so the server and client never know which one
// they're talking to.
package engine

// Engine is the capability contract shared by the log-structured store and
// any alternative adapter.
type Engine interface {
	// Set stores value under key; the write has left any in-process buffer
	// before Set returns.
	Set(key, value string) error
	// Get returns the current value for key. found is false on a miss; err
	// is non-nil only for a genuine storage failure.
	Get(key string) (value string, found bool, err error)
	// Remove deletes key. It returns a kvserr.CodeKeyNotFound error if key
	// isn't present.
	Remove(key string) error
}
