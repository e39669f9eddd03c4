package posio

import (
	"io"
	"os"
	"testing"
)

func tempFile(t *testing.T) *os.File {
	f, err := os.CreateTemp("", "posio_test_*")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}
	t.Cleanup(func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	})
	return f
}

func TestWriterTracksPos(t *testing.T) {
	f := tempFile(t)
	w := NewWriter(f, 0)

	if w.Pos() != 0 {
		t.Fatalf("expected initial pos 0, got %d", w.Pos())
	}

	n, err := w.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 bytes written, got %d", n)
	}
	if w.Pos() != 5 {
		t.Errorf("expected pos 5, got %d", w.Pos())
	}

	n2, err := w.Write([]byte(" world"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if w.Pos() != int64(5+n2) {
		t.Errorf("expected pos %d, got %d", 5+n2, w.Pos())
	}
}

func TestWriterFlushAndSync(t *testing.T) {
	f := tempFile(t)
	w := NewWriter(f, 0)

	if _, err := w.Write([]byte("data")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 4 {
		t.Errorf("expected 4 bytes on disk after Sync, got %d", info.Size())
	}
}

func TestReaderTracksPosAndSeek(t *testing.T) {
	f := tempFile(t)
	if _, err := f.Write([]byte("0123456789")); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek failed: %v", err)
	}

	r := NewReader(f)
	buf := make([]byte, 4)

	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if r.Pos() != int64(n) {
		t.Errorf("expected pos %d, got %d", n, r.Pos())
	}

	if err := r.Seek(8); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	if r.Pos() != 8 {
		t.Errorf("expected pos 8 after Seek, got %d", r.Pos())
	}

	n, err = r.Read(buf)
	if err != nil {
		t.Fatalf("Read after Seek failed: %v", err)
	}
	if string(buf[:n]) != "89" {
		t.Errorf("expected to read '89' after seeking to 8, got %q", string(buf[:n]))
	}
}
