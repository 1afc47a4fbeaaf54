package local

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveWritesUnderBaseDir(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	path, err := store.Save("receipt.png", []byte{0x89, 0x50, 0x4e, 0x47})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Fatalf("expected file under %s, got %s", dir, path)
	}
	if !strings.HasSuffix(path, ".png") {
		t.Fatalf("expected original extension preserved, got %s", path)
	}
	if strings.Contains(filepath.Base(path), "receipt") {
		t.Fatalf("user-supplied name must not be reused: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if len(content) != 4 {
		t.Fatalf("stored content truncated: %d bytes", len(content))
	}
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	first, err := store.Save("proof.pdf", []byte("a"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	second, err := store.Save("proof.pdf", []byte("b"))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct paths for repeated names")
	}
}

func TestSaveValidatesInput(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := store.Save("proof.pdf", nil); err == nil {
		t.Fatal("expected error for empty content")
	}
	if _, err := store.Save("", []byte("x")); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty base dir")
	}
}
