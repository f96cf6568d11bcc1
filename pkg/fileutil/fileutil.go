package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rsnk/politecrawl/pkg/failure"
)

// GetFileExtension extracts the file extension from a path, or empty string if none
func GetFileExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	// Remove the leading dot
	return strings.TrimPrefix(ext, ".")
}

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	assetsDir := filepath.Join(targetPath...)
	if err := os.MkdirAll(assetsDir, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}

// AtomicWriteFile writes data to a temp file in the same directory as
// path and renames it into place, so a reader never observes a
// partially-written file and a crash mid-write leaves the previous
// contents (if any) untouched.
func AtomicWriteFile(path string, data []byte) failure.ClassifiedError {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return &FileError{Message: fmt.Sprintf("%v", err), Retryable: false, Cause: ErrCauseWriteError}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &FileError{Message: fmt.Sprintf("%v", err), Retryable: false, Cause: ErrCauseWriteError}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return &FileError{Message: fmt.Sprintf("%v", err), Retryable: false, Cause: ErrCauseWriteError}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &FileError{Message: fmt.Sprintf("%v", err), Retryable: false, Cause: ErrCauseWriteError}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &FileError{Message: fmt.Sprintf("%v", err), Retryable: false, Cause: ErrCauseWriteError}
	}
	return nil
}
