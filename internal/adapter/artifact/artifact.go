// Package artifact writes pipeline artifacts all-or-nothing: content is staged
// in the work directory and renamed into place only after it was fully written.
package artifact

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// Write stages the output of write in workDir and moves it to path on success.
// On any error the staged file is removed and path is left untouched.
func Write(path, workDir string, write func(w io.Writer) error) (err error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("create work dir %s: %w", workDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir for %s: %w", path, err)
	}

	f, err := os.CreateTemp(workDir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("stage %s: %w", path, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err = write(f); err != nil {
		f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync staged %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close staged %s: %w", path, err)
	}
	if err = move(tmp, path); err != nil {
		return fmt.Errorf("publish %s: %w", path, err)
	}
	return nil
}

// move renames src to dst, copying through a sibling of dst when the work
// directory is on another filesystem.
func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	sibling := dst + ".tmp"
	if err := copyFile(src, sibling); err != nil {
		os.Remove(sibling)
		return err
	}
	if err := os.Rename(sibling, dst); err != nil {
		os.Remove(sibling)
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
