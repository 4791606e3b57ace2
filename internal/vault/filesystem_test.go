package vault

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codevault/internal/archive"
)

func TestNewFileSystemVault(t *testing.T) {
	t.Run("creates directory structure", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "vault")

		v, err := NewFileSystemVault("test", root)
		if err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(root, "snapshots")); err != nil {
			t.Errorf("snapshots directory not created: %v", err)
		}
		if v.name != "test" {
			t.Errorf("name = %q, want %q", v.name, "test")
		}
		if err := v.ValidateSetup(context.Background()); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})

	t.Run("works with existing directory", func(t *testing.T) {
		if _, err := NewFileSystemVault("test", t.TempDir()); err != nil {
			t.Fatalf("NewFileSystemVault() error = %v", err)
		}
	})
}

func TestFileSystemVault_PutSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		size    int64
		wantErr bool
	}{
		{name: "store snapshot", data: "hello world", size: 11},
		{name: "size mismatch", data: "hello", size: 100, wantErr: true},
		{name: "empty snapshot", data: "", size: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			v, err := NewFileSystemVault("test", t.TempDir())
			if err != nil {
				t.Fatalf("NewFileSystemVault() error = %v", err)
			}

			err = v.PutSnapshot(ctx, "host-1", strings.NewReader(tt.data), tt.size, 42)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PutSnapshot() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				if _, err := os.Stat(v.snapshotPath("host-1")); !os.IsNotExist(err) {
					t.Error("failed put left a snapshot behind")
				}
				entries, _ := os.ReadDir(v.snapshotDir)
				if len(entries) != 0 {
					t.Errorf("failed put left %d files behind", len(entries))
				}
				return
			}

			var buf bytes.Buffer
			if err := v.GetSnapshot(ctx, "host-1", &buf); err != nil {
				t.Fatalf("GetSnapshot() error = %v", err)
			}
			if buf.String() != tt.data {
				t.Errorf("snapshot = %q, want %q", buf.String(), tt.data)
			}

			version, err := v.GetSnapshotVersion(ctx, "host-1")
			if err != nil {
				t.Fatalf("GetSnapshotVersion() error = %v", err)
			}
			if version != 42 {
				t.Errorf("version = %d, want 42", version)
			}
		})
	}
}

func TestFileSystemVault_Missing(t *testing.T) {
	ctx := context.Background()
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := v.GetSnapshot(ctx, "nobody", &bytes.Buffer{}); !errors.Is(err, archive.ErrNoSnapshot) {
		t.Errorf("GetSnapshot() error = %v, want ErrNoSnapshot", err)
	}
	version, err := v.GetSnapshotVersion(ctx, "nobody")
	if err != nil || version != 0 {
		t.Errorf("GetSnapshotVersion() = %d, %v, want 0, nil", version, err)
	}
}

func TestFileSystemVault_CorruptVersion(t *testing.T) {
	ctx := context.Background()
	v, err := NewFileSystemVault("test", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(v.versionPath("host-1"), []byte("not-a-number"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := v.GetSnapshotVersion(ctx, "host-1"); err == nil {
		t.Error("GetSnapshotVersion() expected error for corrupt version file")
	}
}

func TestFileSystemVault_ValidateSetup_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	v, err := NewFileSystemVault("test", root)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}

	if err := v.ValidateSetup(context.Background()); err == nil {
		t.Error("ValidateSetup() expected error after root was removed")
	}
}
