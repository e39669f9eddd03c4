package pebbleengine

import (
	"testing"

	"github.com/epokhe/kvs/internal/kvserr"
)

func TestAdapterSetGetRemove(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	if err := a.Set("foo", "bar"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, found, err := a.Get("foo")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || value != "bar" {
		t.Errorf("expected found=true value='bar', got found=%v value=%q", found, value)
	}

	if err := a.Remove("foo"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	_, found, err = a.Get("foo")
	if err != nil {
		t.Fatalf("Get after Remove failed: %v", err)
	}
	if found {
		t.Error("expected key to be gone after Remove")
	}
}

func TestAdapterGetMissing(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	_, found, err := a.Get("missing")
	if err != nil {
		t.Fatalf("Get returned unexpected error: %v", err)
	}
	if found {
		t.Error("expected found=false for a key that was never set")
	}
}

func TestAdapterRemoveMissingIsKeyNotFound(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer a.Close()

	err = a.Remove("missing")
	if err == nil {
		t.Fatal("expected an error removing a missing key")
	}
	if !kvserr.IsKeyNotFound(err) {
		t.Errorf("expected a KeyNotFound error, got %v", err)
	}
}
