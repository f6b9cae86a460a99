package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "register.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestCSVRegistryLookup(t *testing.T) {
	path := writeSnapshot(t, "Name; Reference Number; Status\nA Vet; 1234567; Registered\nB Vet; 7654321 ; Registered\n")
	reg := NewCSVRegistry(zap.NewNop(), path)

	ok, err := reg.Lookup("1234567")
	if err != nil {
		t.Fatalf("expected lookup to succeed, got %v", err)
	}
	if !ok {
		t.Fatalf("expected 1234567 to be present")
	}

	// Stored values are trimmed, and so is the query.
	ok, err = reg.Lookup("  7654321 ")
	if err != nil || !ok {
		t.Fatalf("expected trimmed match, got ok=%v err=%v", ok, err)
	}

	ok, err = reg.Lookup("0000000")
	if err != nil {
		t.Fatalf("expected lookup to succeed, got %v", err)
	}
	if ok {
		t.Fatalf("expected 0000000 to be absent")
	}
}

func TestCSVRegistryFailsClosedWhenUnreadable(t *testing.T) {
	reg := NewCSVRegistry(zap.NewNop(), filepath.Join(t.TempDir(), "missing.csv"))

	ok, err := reg.Lookup("1234567")
	if ok {
		t.Fatalf("expected lookup to fail closed")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCSVRegistryMissingColumn(t *testing.T) {
	path := writeSnapshot(t, "Name; Status\nA Vet; Registered\n")
	reg := NewCSVRegistry(zap.NewNop(), path)

	if _, err := reg.Lookup("1234567"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for snapshot without reference column, got %v", err)
	}
}

func TestCSVRegistryReloadKeepsServing(t *testing.T) {
	path := writeSnapshot(t, "Reference Number\n1234567\n")
	reg := NewCSVRegistry(zap.NewNop(), path)

	if ok, _ := reg.Lookup("1234567"); !ok {
		t.Fatalf("expected number before reload")
	}

	if err := os.WriteFile(path, []byte("Reference Number\n9999999\n"), 0o600); err != nil {
		t.Fatalf("rewrite snapshot: %v", err)
	}
	if err := reg.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if ok, _ := reg.Lookup("9999999"); !ok {
		t.Fatalf("expected number after reload")
	}
	if ok, _ := reg.Lookup("1234567"); ok {
		t.Fatalf("expected old number gone after reload")
	}

	// A reload against a broken file keeps the last good set.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove snapshot: %v", err)
	}
	if err := reg.Reload(); err == nil {
		t.Fatalf("expected reload error for missing file")
	}
	if ok, err := reg.Lookup("9999999"); err != nil || !ok {
		t.Fatalf("expected last good set to keep serving, got ok=%v err=%v", ok, err)
	}
}
