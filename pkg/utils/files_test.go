package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetPathInfo(t *testing.T) {
	full, dir, err := GetPathInfo(filepath.Join("a", "..", "b", "c.mlc"))
	if err != nil {
		t.Fatalf("GetPathInfo failed: %v", err)
	}
	if !filepath.IsAbs(full) {
		t.Errorf("fullPath %q is not absolute", full)
	}
	if filepath.Base(dir) != "b" {
		t.Errorf("parentDir = %q; want it to end in b", dir)
	}
}

func TestReadSource(t *testing.T) {
	tmp := t.TempDir()
	good := filepath.Join(tmp, "main.mlc")
	if err := os.WriteFile(good, []byte("fn main() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	src, dir, err := ReadSource(good)
	if err != nil {
		t.Fatalf("ReadSource failed: %v", err)
	}
	if src != "fn main() {}\n" {
		t.Errorf("src = %q", src)
	}
	if want, _ := filepath.Abs(tmp); dir != want {
		t.Errorf("dir = %q; want %q", dir, want)
	}

	bad := filepath.Join(tmp, "bad.mlc")
	if err := os.WriteFile(bad, []byte{0xff, 0xfe, 'x'}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadSource(bad); err == nil || !strings.Contains(err.Error(), "bad.mlc") {
		t.Errorf("ReadSource(bad) error = %v; want a path-qualified error", err)
	}

	if _, _, err := ReadSource(filepath.Join(tmp, "missing.mlc")); err == nil {
		t.Error("expected error for missing file")
	}
}
