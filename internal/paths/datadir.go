package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDir returns the directory where swapbytes persists local state
// (identity keys, DHT records, known peers).
//
// Precedence:
//  1. SWAPBYTES_DATA_DIR env var
//  2. os.UserConfigDir()/swapbytes
//  3. .swapbytes in the current directory
//
// The returned directory is created if it does not exist.
func DataDir() string {
	if v := strings.TrimSpace(os.Getenv("SWAPBYTES_DATA_DIR")); v != "" {
		d := filepath.Clean(v)
		_ = os.MkdirAll(d, 0o700)
		return d
	}
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		d := filepath.Join(dir, "swapbytes")
		_ = os.MkdirAll(d, 0o700)
		return d
	}
	d := ".swapbytes"
	_ = os.MkdirAll(d, 0o700)
	return d
}

// Path returns an absolute path to a file inside DataDir, ensuring the
// parent directory exists.
func Path(filename string) string {
	p := filepath.Join(DataDir(), filepath.Clean(filename))
	_ = os.MkdirAll(filepath.Dir(p), 0o700)
	return p
}
