package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{"tilde with path", "~/statements", filepath.Join(home, "statements")},
		{"bare tilde", "~", home},
		{"absolute path", "/absolute/path", "/absolute/path"},
		{"relative path", "relative/path", "relative/path"},
		{"empty", "", ""},
		{"tilde mid-path untouched", "/data/~backup", "/data/~backup"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandHome(tt.path); got != tt.expected {
				t.Errorf("ExpandHome(%q) = %q; want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := WriteFileAtomic(path, []byte("hello\n")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hello\n" {
		t.Errorf("content = %q; want %q", data, "hello\n")
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain")
	}

	// Overwriting replaces the content wholesale.
	if err := WriteFileAtomic(path, []byte("replaced\n")); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "replaced\n" {
		t.Errorf("content = %q; want %q", data, "replaced\n")
	}
}

func TestOutputAndArchiveDirs(t *testing.T) {
	root := t.TempDir()
	today := civil.Date{Year: 2024, Month: 10, Day: 25}

	out, err := OutputDir(root, today)
	if err != nil {
		t.Fatalf("OutputDir: %v", err)
	}
	if !strings.HasSuffix(out, filepath.Join("new", "2024-10-25")) {
		t.Errorf("OutputDir = %q; want suffix new/2024-10-25", out)
	}

	arch, err := ArchiveDir(root, today)
	if err != nil {
		t.Fatalf("ArchiveDir: %v", err)
	}
	if !strings.HasSuffix(arch, filepath.Join("old", "2024-10-25")) {
		t.Errorf("ArchiveDir = %q; want suffix old/2024-10-25", arch)
	}

	for _, dir := range []string{out, arch} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("%q should be a directory", dir)
		}
	}

	// Creating again is a no-op.
	if _, err := OutputDir(root, today); err != nil {
		t.Errorf("second OutputDir: %v", err)
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "sub")
	if err := os.Mkdir(dst, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("some text\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	if err != nil {
		t.Fatalf("moved file unreadable: %v", err)
	}
	if string(data) != "some text\n" {
		t.Errorf("content = %q; want %q", data, "some text\n")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("source file should not remain after a move")
	}
}

func TestArchiveRawFiles(t *testing.T) {
	root := t.TempDir()
	downloads := filepath.Join(root, "downloads")
	if err := os.Mkdir(downloads, 0755); err != nil {
		t.Fatal(err)
	}

	var files []string
	for _, name := range []string{"one.csv", "two.csv", "three.csv"} {
		path := filepath.Join(downloads, name)
		if err := os.WriteFile(path, []byte("text"), 0644); err != nil {
			t.Fatal(err)
		}
		files = append(files, path)
	}

	today := civil.Date{Year: 2024, Month: 10, Day: 25}
	if err := ArchiveRawFiles(files, root, today); err != nil {
		t.Fatalf("ArchiveRawFiles: %v", err)
	}

	for _, name := range []string{"one.csv", "two.csv", "three.csv"} {
		archived := filepath.Join(root, "old", "2024-10-25", name)
		if _, err := os.Stat(archived); err != nil {
			t.Errorf("%q should exist after archiving: %v", archived, err)
		}
	}
	for _, path := range files {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%q should have been moved away", path)
		}
	}
}
