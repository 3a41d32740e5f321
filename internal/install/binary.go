// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/minio/selfupdate"

	"github.com/corky/corky/internal/integrity"
)

const binaryMode os.FileMode = 0o755

// writeBinary atomically installs src at dest. The bytes are staged next to
// dest, checked against checksum, and renamed into place; an existing binary
// is swapped out and restored if the final rename fails.
func writeBinary(src, dest, checksum string) (err error) {
	sum, err := integrity.Decode(checksum)
	if err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() {
		// Read-only file handle; close errors are exotic.
		_ = f.Close()
	}()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}

	opts := selfupdate.Options{TargetPath: dest, TargetMode: binaryMode, Checksum: sum}
	if err := selfupdate.PrepareAndCheckBinary(f, opts); err != nil {
		return fmt.Errorf("failed to stage %s: %w", dest, err)
	}

	staged := stagedPath(dest)
	if err := os.Chmod(staged, binaryMode); err != nil {
		_ = os.Remove(staged)
		return fmt.Errorf("failed to set mode on %s: %w", staged, err)
	}

	if _, statErr := os.Stat(dest); errors.Is(statErr, fs.ErrNotExist) {
		if err := os.Rename(staged, dest); err != nil {
			_ = os.Remove(staged)
			return fmt.Errorf("failed to install %s: %w", dest, err)
		}
		return nil
	}

	if err := selfupdate.CommitBinary(opts); err != nil {
		if rerr := selfupdate.RollbackError(err); rerr != nil {
			return fmt.Errorf("failed to replace %s and could not restore the previous binary: %w", dest, rerr)
		}
		return fmt.Errorf("failed to replace %s: %w", dest, err)
	}
	return nil
}

// stagedPath is where selfupdate stages the new binary before the swap.
func stagedPath(dest string) string {
	return filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+".new")
}
