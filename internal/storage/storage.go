// Package storage handles the on-disk layout of a run: atomic file writes,
// dated output and archive directories under the configured storage root,
// and moving raw bank downloads into the archive.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/civil"
)

// ExpandHome replaces a leading ~ with the user's home directory. If the
// home directory cannot be determined the path is returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// WriteFileAtomic writes data so that readers never observe a partial file.
// Uses atomic write pattern: write to temp file, then rename.
func WriteFileAtomic(path string, data []byte) error {
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, path); err != nil {
		// Clean up temp file on error
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// OutputDir returns the directory for processed output from a run dated
// today, creating it if needed: <root>/new/<YYYY-MM-DD>.
func OutputDir(root string, today civil.Date) (string, error) {
	return ensureRunDir(root, "new", today)
}

// ArchiveDir returns the directory where the raw downloads from a run dated
// today are archived, creating it if needed: <root>/old/<YYYY-MM-DD>.
func ArchiveDir(root string, today civil.Date) (string, error) {
	return ensureRunDir(root, "old", today)
}

func ensureRunDir(root, kind string, today civil.Date) (string, error) {
	dir := filepath.Join(root, kind, today.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", kind, err)
	}
	return dir, nil
}

// MoveFile moves src into dir, keeping the base name. Rename is tried
// first; a cross-device move falls back to copy and remove.
func MoveFile(src, dir string) error {
	dst := filepath.Join(dir, filepath.Base(src))
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to copy %q: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to flush %q: %w", dst, err)
	}

	in.Close()
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove %q after copy: %w", src, err)
	}
	return nil
}

// ArchiveRawFiles moves each raw input file into the archive directory for
// today's run. It is called only after every output has been written, so a
// failed run leaves the raw files where the user put them.
func ArchiveRawFiles(paths []string, root string, today civil.Date) error {
	if len(paths) == 0 {
		return nil
	}
	dir, err := ArchiveDir(root, today)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := MoveFile(p, dir); err != nil {
			return err
		}
	}
	return nil
}
