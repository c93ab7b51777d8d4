// Package filex contains filesystem helpers used by the client to place
// decrypted files on disk.
package filex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxNameAttempts bounds the "name (n).ext" search in WriteNew.
const maxNameAttempts = 1000

// EnsureSubdDir creates dirName under the working directory if needed and
// returns its absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SafeName reduces name to a plain file name. Directory parts are dropped
// and empty or dot names become "download".
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return "download"
	}
	return name
}

// WriteNew writes data to dir under SafeName(name) without overwriting an
// existing file: "note.txt" becomes "note (1).txt" and so on. It returns the
// path written. Files are created with mode 0600.
func WriteNew(dir, name string, data []byte) (string, error) {
	name = SafeName(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", path, err)
		}
		return path, writeAndClose(f, data)
	}
	return "", fmt.Errorf("no free name for %s in %s", name, dir)
}

// WriteTemp writes data to a new temporary file whose name ends in ".ext"
// and returns its path. The caller removes the file.
func WriteTemp(ext string, data []byte) (string, error) {
	pattern := "sealdrop-*"
	if ext != "" {
		pattern += "." + strings.TrimPrefix(ext, ".")
	}

	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if err := writeAndClose(f, data); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func writeAndClose(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", f.Name(), err)
	}
	return nil
}
