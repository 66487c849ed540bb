package service

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalWalletFileSinkWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wallets")
	sink := NewLocalWalletFileSink(0)

	if sink.Exists(dir, "wallet") {
		t.Fatalf("wallet should not exist yet")
	}
	if err := sink.Write(dir, "wallet", strings.NewReader("first")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := sink.Write(dir, "wallet", strings.NewReader("second")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if !sink.Exists(dir, "wallet") {
		t.Fatalf("wallet should exist after write")
	}
	content, err := os.ReadFile(filepath.Join(dir, "wallet"))
	if err != nil {
		t.Fatalf("read wallet failed: %v", err)
	}
	if string(content) != "second" {
		t.Fatalf("wallet should be overwritten, got %q", content)
	}
	info, err := os.Stat(filepath.Join(dir, "wallet"))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o666 {
		t.Fatalf("wallet mode want 0666 got %o", info.Mode().Perm())
	}
}

func TestLocalWalletFileSinkRejectsInvalidTarget(t *testing.T) {
	sink := NewLocalWalletFileSink(0)
	if err := sink.Write("", "wallet", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for empty wallet directory")
	}
	if err := sink.Write(t.TempDir(), "../wallet", strings.NewReader("x")); err == nil {
		t.Fatalf("expected error for path traversal")
	}
	if sink.Exists("", "wallet") {
		t.Fatalf("exists should be false for invalid directory")
	}
}

func TestLocalWalletFileSinkMaxSize(t *testing.T) {
	dir := t.TempDir()
	sink := NewLocalWalletFileSink(4)
	err := sink.Write(dir, "wallet.keys", strings.NewReader("12345"))
	if !errors.Is(err, ErrWalletFileTooLarge) {
		t.Fatalf("expected ErrWalletFileTooLarge, got %v", err)
	}
	if err.Error() != "wallet file exceeds the upload size limit (max 4 bytes)" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if err := sink.Write(dir, "wallet.keys", strings.NewReader("1234")); err != nil {
		t.Fatalf("write within limit failed: %v", err)
	}
}
