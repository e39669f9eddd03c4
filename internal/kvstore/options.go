package kvstore

import "go.uber.org/zap"

// defaultCompactionThreshold is the uncompacted-byte count that triggers a
// compaction pass after every write.
const defaultCompactionThreshold = 1 * 1024 * 1024

// Option configures a Store at Open time, following the functional-options
// pattern used throughout this codebase (grounded on
// Epokhe-bitdb/core/db.go's `Option func(*DB)`).
type Option func(*Store)

// WithFsync controls whether every Set/Remove calls fsync on the active
// segment in addition to flushing the buffer. Flushing the buffer already
// makes a write visible to other readers of the file; fsync is a stronger,
// optional guarantee that the write has reached stable storage before the
// call returns.
func WithFsync(b bool) Option {
	return func(s *Store) { s.fsync = b }
}

// WithCompactionThreshold overrides the default uncompacted-bytes trigger.
func WithCompactionThreshold(n int64) Option {
	return func(s *Store) { s.compactionThreshold = n }
}

// WithLogger injects a structured logger. Defaults to zap's no-op logger so
// the package stays silent and embeddable when the caller doesn't care.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(s *Store) { s.log = log }
}
