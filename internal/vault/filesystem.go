package vault

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codevault/internal/archive"
)

// FileSystemVault stores snapshots as files:
//
//	<root>/
//	  snapshots/
//	    <instanceID>.snapshot   (encrypted, compressed database)
//	    <instanceID>.version    (highest commit id in the snapshot)
type FileSystemVault struct {
	name        string
	root        string
	snapshotDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	snapshotDir := filepath.Join(root, "snapshots")
	if err := os.MkdirAll(snapshotDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		snapshotDir: snapshotDir,
	}, nil
}

func (v *FileSystemVault) snapshotPath(instanceID string) string {
	return filepath.Join(v.snapshotDir, instanceID+".snapshot")
}

func (v *FileSystemVault) versionPath(instanceID string) string {
	return filepath.Join(v.snapshotDir, instanceID+".version")
}

// PutSnapshot writes the snapshot, then its version marker. A reader that
// sees the new version is guaranteed to find the new snapshot.
func (v *FileSystemVault) PutSnapshot(_ context.Context, instanceID string, r io.Reader, size int64, version int64) error {
	if err := v.writeFile(v.snapshotPath(instanceID), r, size); err != nil {
		return err
	}
	data := strconv.FormatInt(version, 10)
	return v.writeFile(v.versionPath(instanceID), strings.NewReader(data), int64(len(data)))
}

func (v *FileSystemVault) GetSnapshot(_ context.Context, instanceID string, w io.Writer) error {
	f, err := os.Open(v.snapshotPath(instanceID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w for instance %s", archive.ErrNoSnapshot, instanceID)
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	return nil
}

// GetSnapshotVersion returns 0 if no version file exists.
func (v *FileSystemVault) GetSnapshotVersion(_ context.Context, instanceID string) (int64, error) {
	data, err := os.ReadFile(v.versionPath(instanceID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup(context.Context) error {
	for _, dir := range []string{v.root, v.snapshotDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeFile writes data from r to destPath using a temp file and rename.
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	success = true
	return nil
}

var _ archive.Vault = (*FileSystemVault)(nil)
