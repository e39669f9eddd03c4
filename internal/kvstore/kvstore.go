// Package kvstore implements a log-structured storage engine: append-only
// segment files on disk, an in-memory index pointing at the most recent
// record for each key, recovery on open by replaying every segment, and
// synchronous compaction to reclaim space from overwritten and deleted
// keys. It is grounded on Epokhe-bitdb's core package (segment management,
// options pattern, orphan-file check), adapted from bitdb's async
// multi-segment merge down to a synchronous two-segment compaction that
// always runs inline with the write that triggered it.
package kvstore

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/epokhe/kvs/internal/kvserr"
	"github.com/epokhe/kvs/internal/posio"
	"github.com/epokhe/kvs/internal/record"
)

// commandPos locates the most recent Set record for a key: which segment
// it lives in, its byte offset within that segment, and its encoded
// length, so a later Get can read back exactly that many bytes without
// rescanning the segment.
type commandPos struct {
	version uint64
	pos     int64
	len     int64
}

// Store is the log-structured key/value engine. It is single-threaded by
// design: every exported method takes an exclusive lock for its whole
// duration, so callers never observe a partially-applied write or a
// compaction mid-flight.
type Store struct {
	dir string
	mu  sync.Mutex
	log *zap.SugaredLogger

	fsync               bool
	compactionThreshold int64

	versionCtr    uint64 // next version number to hand out
	activeVersion uint64
	activeFile    *os.File
	writer        *posio.Writer

	segFiles   map[uint64]*os.File      // every live segment's file handle (active included)
	segReaders map[uint64]*posio.Reader // position-tracking readers over the same handles, for recovery and Get

	index       map[string]commandPos
	uncompacted int64
}

// Open creates the directory if missing, recovers the index from every
// segment found there (in ascending version order), and starts a fresh
// active segment at max(existing)+1.
func Open(dir string, opts ...Option) (store *Store, err error) {
	s := &Store{
		dir:                 dir,
		log:                 zap.NewNop().Sugar(),
		compactionThreshold: defaultCompactionThreshold,
		segFiles:            make(map[uint64]*os.File),
		segReaders:          make(map[uint64]*posio.Reader),
		index:               make(map[string]commandPos),
	}
	for _, opt := range opts {
		opt(s)
	}

	defer func() {
		if err != nil {
			s.abortOpen()
		}
	}()

	if err = os.MkdirAll(dir, 0o755); err != nil {
		return nil, kvserr.IO(err, "create data directory")
	}

	versions, err := discoverVersions(dir)
	if err != nil {
		return nil, err
	}

	for i, v := range versions {
		isLast := i == len(versions)-1
		f, err := os.OpenFile(segmentPath(dir, v), os.O_RDWR, 0o644)
		if err != nil {
			return nil, kvserr.IO(err, "open segment")
		}
		s.segFiles[v] = f
		s.segReaders[v] = posio.NewReader(f)

		uncompacted, err := s.recoverSegment(v, f, isLast)
		if err != nil {
			return nil, err
		}
		s.uncompacted += uncompacted
	}

	maxVersion := uint64(0)
	if len(versions) > 0 {
		maxVersion = versions[len(versions)-1]
	}
	s.activeVersion = maxVersion + 1
	s.versionCtr = s.activeVersion + 1

	activeFile, err := createSegmentFile(dir, s.activeVersion)
	if err != nil {
		return nil, err
	}
	s.segFiles[s.activeVersion] = activeFile
	s.segReaders[s.activeVersion] = posio.NewReader(activeFile)
	s.activeFile = activeFile
	s.writer = posio.NewWriter(activeFile, 0)

	if err := s.checkOrphanedFiles(); err != nil {
		return nil, err
	}

	return s, nil
}

func createSegmentFile(dir string, version uint64) (*os.File, error) {
	f, err := os.OpenFile(segmentPath(dir, version), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, kvserr.IO(err, "create segment")
	}
	return f, nil
}

// recoverSegment streaming-decodes every record in f from offset 0 and
// folds it into the index, returning the uncompacted-byte delta this
// segment contributed. If isLast and the final record is truncated (a
// crash mid-write), the segment is truncated to the last fully-decoded
// boundary and the loss is logged, rather than treating a torn write as a
// fatal corruption.
func (s *Store) recoverSegment(version uint64, f *os.File, isLast bool) (int64, error) {
	reader, ok := s.segReaders[version]
	if !ok {
		return 0, kvserr.IO(errors.New("segment reader not open"), "recover segment")
	}
	if err := reader.Seek(0); err != nil {
		return 0, kvserr.IO(err, "seek segment for recovery")
	}

	dec := record.NewDecoder(reader, 0)
	var uncompacted int64
	var pos int64

	for {
		cmd, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if isLast && errors.Is(err, io.ErrUnexpectedEOF) {
				s.log.Warnw("truncating corrupt tail record", "version", version, "truncatedTo", pos)
				if terr := f.Truncate(pos); terr != nil {
					return 0, kvserr.IO(terr, "truncate corrupt tail")
				}
				if _, terr := f.Seek(0, io.SeekEnd); terr != nil {
					return 0, kvserr.IO(terr, "seek after truncate")
				}
				break
			}
			return 0, err
		}

		next := dec.Offset()
		length := next - pos

		switch cmd.Type {
		case record.KindSet:
			if old, ok := s.index[cmd.Key]; ok {
				uncompacted += old.len
			}
			s.index[cmd.Key] = commandPos{version: version, pos: pos, len: length}
		case record.KindRemove:
			if old, ok := s.index[cmd.Key]; ok {
				uncompacted += old.len
				delete(s.index, cmd.Key)
			}
			uncompacted += length
		}

		pos = next
	}

	return uncompacted, nil
}

// abortOpen releases whatever was opened so far when Open fails partway
// through, mirroring Epokhe-bitdb's AbortOnOpen.
func (s *Store) abortOpen() {
	for _, f := range s.segFiles {
		_ = f.Close()
	}
}

// Close flushes and closes every open segment file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writer.Sync(); err != nil {
		return kvserr.IO(err, "sync active segment")
	}

	var firstErr error
	for _, f := range s.segFiles {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return kvserr.IO(firstErr, "close segment")
	}
	return nil
}

// Set encodes and appends a Set record, flushes, and updates the index.
// Last write wins; compaction runs synchronously if the uncompacted byte
// count crosses the threshold.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos := s.writer.Pos()
	n, err := record.Encode(s.writer, record.Set(key, value))
	if err != nil {
		return err
	}
	if err := s.flushActive(); err != nil {
		return err
	}

	if old, ok := s.index[key]; ok {
		s.uncompacted += old.len
	}
	s.index[key] = commandPos{version: s.activeVersion, pos: pos, len: n}

	return s.maybeCompact()
}

// Get returns the current value for key. found is false on an index miss;
// err is non-nil only for genuine I/O/decode failures or an
// UnexpectedCommandType invariant violation.
func (s *Store) Get(key string) (value string, found bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loc, ok := s.index[key]
	if !ok {
		return "", false, nil
	}

	val, err := s.readValueAt(key, loc)
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *Store) readValueAt(key string, loc commandPos) (string, error) {
	reader, ok := s.segReaders[loc.version]
	if !ok {
		return "", kvserr.IO(errors.New("segment not open"), "read indexed record")
	}

	if err := reader.Seek(loc.pos); err != nil {
		return "", kvserr.IO(err, "seek indexed record")
	}
	buf := make([]byte, loc.len)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", kvserr.IO(err, "read indexed record")
	}

	var cmd record.Command
	if err := json.Unmarshal(buf, &cmd); err != nil {
		return "", kvserr.Serde(err, "decode indexed record")
	}

	if cmd.Type != record.KindSet {
		return "", kvserr.UnexpectedCommandType(key)
	}
	return cmd.Value, nil
}

// Remove deletes key. It fails with kvserr.CodeKeyNotFound if the key
// isn't indexed, rather than silently no-oping on an already-absent key.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.index[key]
	if !ok {
		return kvserr.KeyNotFound(key)
	}

	n, err := record.Encode(s.writer, record.Remove(key))
	if err != nil {
		return err
	}
	if err := s.flushActive(); err != nil {
		return err
	}

	delete(s.index, key)
	s.uncompacted += old.len + n

	return s.maybeCompact()
}

func (s *Store) flushActive() error {
	if err := s.writer.Flush(); err != nil {
		return kvserr.IO(err, "flush active segment")
	}
	if s.fsync {
		if err := s.activeFile.Sync(); err != nil {
			return kvserr.IO(err, "fsync active segment")
		}
	}
	return nil
}

func (s *Store) maybeCompact() error {
	if s.uncompacted > s.compactionThreshold {
		return s.compact()
	}
	return nil
}

// DiskSize returns the sum of all on-disk segment file sizes, useful for
// asserting that compaction actually bounds disk usage under sustained
// overwrite load.
func (s *Store) DiskSize() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, f := range s.segFiles {
		info, err := f.Stat()
		if err != nil {
			return 0, kvserr.IO(err, "stat segment")
		}
		total += info.Size()
	}
	return total, nil
}

func sortedKeys(index map[string]commandPos) []string {
	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
