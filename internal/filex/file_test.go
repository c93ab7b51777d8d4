package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureSubdDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureSubdDir("preupload")
	require.NoError(t, err)

	want := filepath.Join(tmp, "preupload")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureSubdDir_Idempotent(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	first, err := EnsureSubdDir("preupload")
	require.NoError(t, err)

	second, err := EnsureSubdDir("preupload")
	require.NoError(t, err)

	require.Equal(t, first, second)
	fi, err := os.Stat(second)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureSubdDir_FailsIfFileWithSameNameExists(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	require.NoError(t, os.WriteFile("preupload", []byte("x"), 0o660))

	_, err := EnsureSubdDir("preupload")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"note.txt":            "note.txt",
		"../../etc/passwd":    "passwd",
		`C:\Users\bob\cv.pdf`: "cv.pdf",
		"":                    "download",
		"..":                  "download",
		"dir/":                "dir",
	}
	for in, want := range tests {
		require.Equal(t, want, SafeName(in), in)
	}
}

func TestWriteNew_DoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()

	p1, err := WriteNew(dir, "note.txt", []byte("one"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "note.txt"), p1)

	p2, err := WriteNew(dir, "../note.txt", []byte("two"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "note (1).txt"), p2)

	b, err := os.ReadFile(p1)
	require.NoError(t, err)
	require.Equal(t, "one", string(b))
	b, err = os.ReadFile(p2)
	require.NoError(t, err)
	require.Equal(t, "two", string(b))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(p2)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}
}

func TestWriteNew_MissingDir(t *testing.T) {
	_, err := WriteNew(filepath.Join(t.TempDir(), "absent"), "a.txt", []byte("x"))
	require.Error(t, err)
}

func TestWriteTemp_KeepsExtension(t *testing.T) {
	p, err := WriteTemp("png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Remove(p) })

	require.Equal(t, ".png", filepath.Ext(p))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, b)
}
