// Package posio provides buffered, position-tracking readers and writers
// over *os.File. Each wrapper exposes the current absolute byte offset at
// every public call boundary, which is what lets the storage engine record
// the (pos, len) of a just-written record without a second syscall to ask
// the OS where the file cursor ended up.
package posio

import (
	"bufio"
	"io"
	"os"
)

// Writer is a buffered append writer that tracks its absolute offset.
type Writer struct {
	w   *bufio.Writer
	f   *os.File
	pos int64
}

// NewWriter wraps f, whose cursor must already be positioned where writes
// should begin (callers open segments with O_APPEND, or seek to end first).
func NewWriter(f *os.File, startPos int64) *Writer {
	return &Writer{w: bufio.NewWriter(f), f: f, pos: startPos}
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	return n, err
}

// Pos returns the absolute offset of the next byte that will be written,
// including bytes still sitting in the buffer.
func (w *Writer) Pos() int64 { return w.pos }

// Flush empties the buffer to the underlying file. A mutating engine call
// must flush before returning, or a just-written record wouldn't be
// visible to a concurrent reader of the same file until the buffer
// happened to fill up.
func (w *Writer) Flush() error { return w.w.Flush() }

// Sync flushes the buffer and then fsyncs the underlying file.
func (w *Writer) Sync() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.f.Sync()
}

// Reader is a buffered reader over a segment file. It may share its
// *os.File with a Writer: Seek moves the shared file cursor, which does not
// change where the Writer's next write lands when the file was opened with
// O_APPEND.
type Reader struct {
	r   *bufio.Reader
	f   *os.File
	pos int64
}

func NewReader(f *os.File) *Reader {
	return &Reader{r: bufio.NewReader(f), f: f}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.pos += int64(n)
	return n, err
}

// Seek repositions the reader to an absolute offset, discarding buffered
// data, and updates Pos() to match.
func (r *Reader) Seek(off int64) error {
	if _, err := r.f.Seek(off, io.SeekStart); err != nil {
		return err
	}
	r.r.Reset(r.f)
	r.pos = off
	return nil
}

// Pos returns the absolute offset of the next byte Read will return.
func (r *Reader) Pos() int64 { return r.pos }
