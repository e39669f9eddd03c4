package kvstore

import (
	"io"
	"os"

	"github.com/epokhe/kvs/internal/kvserr"
	"github.com/epokhe/kvs/internal/posio"
)

// compact rewrites every live record into a fresh segment and retires all
// older segments, reclaiming the space held by overwritten and deleted
// keys. It is called with s.mu already held (from Set/Remove). Two new
// versions are allocated: compactionVersion for the rewritten live
// records, and a new activeVersion for subsequent writes — allocating the
// active segment up front means a write arriving right after compaction
// never has to wait on another compaction pass. Records are copied
// verbatim (no re-encode) in ascending key order, so the output segment is
// a deterministic function of the index, which keeps compaction easy to
// test against.
func (s *Store) compact() (err error) {
	compactionVersion := s.versionCtr
	newActiveVersion := s.versionCtr + 1
	s.versionCtr += 2

	compFile, err := createSegmentFile(s.dir, compactionVersion)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = compFile.Close()
			_ = os.Remove(segmentPath(s.dir, compactionVersion))
		}
	}()

	compWriter := posio.NewWriter(compFile, 0)
	newIndex := make(map[string]commandPos, len(s.index))

	for _, key := range sortedKeys(s.index) {
		loc := s.index[key]

		srcReader, ok := s.segReaders[loc.version]
		if !ok {
			return kvserr.IO(os.ErrNotExist, "compact: source segment not open")
		}

		if err := srcReader.Seek(loc.pos); err != nil {
			return kvserr.IO(err, "compact: seek live record")
		}
		buf := make([]byte, loc.len)
		if _, err := io.ReadFull(srcReader, buf); err != nil {
			return kvserr.IO(err, "compact: read live record")
		}

		newPos := compWriter.Pos()
		if _, err := compWriter.Write(buf); err != nil {
			return kvserr.IO(err, "compact: write live record")
		}

		newIndex[key] = commandPos{version: compactionVersion, pos: newPos, len: loc.len}
	}

	if err := compWriter.Sync(); err != nil {
		return kvserr.IO(err, "compact: sync compacted segment")
	}

	newActiveFile, err := createSegmentFile(s.dir, newActiveVersion)
	if err != nil {
		return err
	}

	// Drop every segment strictly older than compactionVersion — this
	// includes the segment that was active before compaction started,
	// whose live records now all live in compFile.
	for version, f := range s.segFiles {
		if version < compactionVersion {
			if cerr := f.Close(); cerr != nil {
				s.log.Warnw("close old segment", "version", version, "error", cerr)
			}
			if rerr := os.Remove(segmentPath(s.dir, version)); rerr != nil {
				s.log.Warnw("remove old segment", "version", version, "error", rerr)
			}
			delete(s.segFiles, version)
			delete(s.segReaders, version)
		}
	}

	s.segFiles[compactionVersion] = compFile
	s.segReaders[compactionVersion] = posio.NewReader(compFile)
	s.segFiles[newActiveVersion] = newActiveFile
	s.segReaders[newActiveVersion] = posio.NewReader(newActiveFile)
	s.activeFile = newActiveFile
	s.activeVersion = newActiveVersion
	s.writer = posio.NewWriter(newActiveFile, 0)
	s.index = newIndex
	s.uncompacted = 0

	return nil
}
