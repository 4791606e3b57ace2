// Package archive pushes encrypted, compressed database snapshots to a vault
// and restores them.
//
// A snapshot is produced as:
//
//	database --VACUUM INTO--> temp file --zstd--> --encrypt--> vault
//
// and is versioned by the highest commit id it contains. Since commits are
// append-only, a higher version always holds a superset of the history.
// The instance id and version are sealed inside the ciphertext, so a
// snapshot only restores under the name and version it was pushed with.
package archive

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrStale is returned by Push when the vault already holds a newer
	// snapshot for the instance.
	ErrStale = errors.New("vault holds a newer snapshot")

	// ErrNoSnapshot is returned when a vault has no snapshot for an instance.
	ErrNoSnapshot = errors.New("no snapshot found")

	// ErrBadPassphrase is returned by Encryptor.Unlock when the passphrase
	// does not open the private key.
	ErrBadPassphrase = errors.New("incorrect passphrase")

	// ErrTargetExists is returned by Pull when the target file exists and
	// overwriting was not requested.
	ErrTargetExists = errors.New("target file already exists")
)

// Vault stores one versioned snapshot per instance.
type Vault interface {
	// PutSnapshot stores size bytes read from r as the snapshot of instanceID.
	PutSnapshot(ctx context.Context, instanceID string, r io.Reader, size int64, version int64) error

	// GetSnapshot writes the snapshot of instanceID to w. Returns
	// ErrNoSnapshot if none exists.
	GetSnapshot(ctx context.Context, instanceID string, w io.Writer) error

	// GetSnapshotVersion returns 0 when no snapshot exists.
	GetSnapshotVersion(ctx context.Context, instanceID string) (int64, error)

	ValidateSetup(ctx context.Context) error
}

// Encryptor encrypts snapshots with a public key. Decryption requires
// unlocking the private key with a passphrase.
type Encryptor interface {
	Setup(passphrase string) error
	// Encrypt seals label followed by the plaintext from r.
	Encrypt(r io.Reader, w io.Writer, label Label) error
	Unlock(passphrase string) (DecryptionContext, error)
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key.
type DecryptionContext interface {
	// Decrypt writes the plaintext to w only if the sealed label equals
	// want. Otherwise it returns an error wrapping ErrLabelMismatch.
	Decrypt(r io.Reader, w io.Writer, want Label) error
}

// Source is the database being archived.
type Source interface {
	BackupTo(path string) error
	MaxCommitID() (int64, error)
}
