package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	AssertNoError(t, nil)
}

func TestAssertClose(t *testing.T) {
	AssertClose(t, "pi", 3.14159, 3.1416, 1e-4)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calib", "000001.txt")
	WriteFile(t, path, []byte("P0: 1"))

	data, err := os.ReadFile(path)
	AssertNoError(t, err)
	if string(data) != "P0: 1" {
		t.Errorf("content = %q", data)
	}
}

func TestAssertError(t *testing.T) {
	AssertError(t, os.ErrNotExist)
}
