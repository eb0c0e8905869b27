package localfs

import (
	"fmt"
	"os"
	"path/filepath"
)

// lockFileName is the advisory lock shared by both stores. It serializes
// read-modify-write windows against a concurrently running admin CLI; it
// does NOT make the two processes see each other's in-memory state.
const lockFileName = ".lock"

// prepareDataDir creates the data directory if needed and refuses to use
// one that other users can read. Profiles hold plaintext passwords.
func prepareDataDir(dir string) (string, error) {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create data directory %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", err
	}
	if perm := info.Mode().Perm(); perm&0o044 != 0 {
		return "", fmt.Errorf("data directory %s is readable by other users (mode %04o); run `chmod 700 %s`", dir, perm, dir)
	}
	return dir, nil
}

// writeFileAtomic writes data to a temporary sibling and renames it over
// path, so a concurrent reader sees either the old or the new content but
// never a partial write.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".rmcloud-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	if d, err := os.Open(dir); err == nil {
		d.Sync()
		d.Close()
	}
	return nil
}
