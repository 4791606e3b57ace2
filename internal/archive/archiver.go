package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"codevault/internal/vcs"
)

// Archiver moves snapshots of one database instance in and out of a vault.
type Archiver struct {
	instanceID string
	source     Source
	vault      Vault
	encryptor  Encryptor
	logger     vcs.Logger
}

// PushResult describes a completed Push.
type PushResult struct {
	Version int64
	Size    int64
	// Skipped is set when the vault already held this version.
	Skipped bool
}

func NewArchiver(instanceID string, source Source, vault Vault, encryptor Encryptor, logger vcs.Logger) *Archiver {
	if logger == nil {
		logger = vcs.NewNopLogger()
	}
	return &Archiver{
		instanceID: instanceID,
		source:     source,
		vault:      vault,
		encryptor:  encryptor,
		logger:     logger,
	}
}

// Push uploads a snapshot of the source database. It refuses to replace a
// snapshot with a higher version, and skips the upload when the vault is
// already current.
func (a *Archiver) Push(ctx context.Context) (*PushResult, error) {
	if !a.encryptor.IsConfigured() {
		return nil, errors.New("encryption is not configured; run 'codevault key init'")
	}

	version, err := a.source.MaxCommitID()
	if err != nil {
		return nil, fmt.Errorf("reading snapshot version: %w", err)
	}
	remote, err := a.vault.GetSnapshotVersion(ctx, a.instanceID)
	if err != nil {
		return nil, fmt.Errorf("reading remote version: %w", err)
	}
	switch {
	case remote > version:
		return nil, fmt.Errorf("%w: remote version %d, local version %d", ErrStale, remote, version)
	case remote == version && remote != 0:
		a.logger.Info("snapshot already current", "instance_id", a.instanceID, "version", version)
		return &PushResult{Version: version, Skipped: true}, nil
	}

	tmpDir, err := os.MkdirTemp("", "codevault-push-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, "snapshot.db")
	if err := a.source.BackupTo(dbPath); err != nil {
		return nil, fmt.Errorf("copying database: %w", err)
	}

	out, err := os.Create(filepath.Join(tmpDir, "snapshot.db.zst.enc"))
	if err != nil {
		return nil, fmt.Errorf("creating snapshot file: %w", err)
	}
	defer out.Close()

	if err := a.seal(dbPath, out, Label{InstanceID: a.instanceID, Version: version}); err != nil {
		return nil, err
	}

	size, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("sizing snapshot: %w", err)
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding snapshot: %w", err)
	}

	if err := a.vault.PutSnapshot(ctx, a.instanceID, out, size, version); err != nil {
		return nil, fmt.Errorf("uploading snapshot: %w", err)
	}

	a.logger.Info("snapshot pushed", "instance_id", a.instanceID, "version", version, "bytes", size)
	return &PushResult{Version: version, Size: size}, nil
}

// seal compresses and encrypts the file at path into w.
func (a *Archiver) seal(path string, w io.Writer, label Label) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening database copy: %w", err)
	}
	defer in.Close()

	pr, pw := io.Pipe()
	go func() {
		enc, err := zstd.NewWriter(pw)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(enc, in); err != nil {
			enc.Close()
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(enc.Close())
	}()

	if err := a.encryptor.Encrypt(pr, w, label); err != nil {
		pr.CloseWithError(err)
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	return nil
}

// Pull downloads the instance's snapshot and writes the restored database to
// target. The file appears atomically once fully written.
func (a *Archiver) Pull(ctx context.Context, passphrase, target string, overwrite bool) (int64, error) {
	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return 0, fmt.Errorf("%w: %s", ErrTargetExists, target)
		}
	}

	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}

	version, err := a.vault.GetSnapshotVersion(ctx, a.instanceID)
	if err != nil {
		return 0, fmt.Errorf("reading remote version: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "codevault-pull-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	sealed, err := os.Create(filepath.Join(tmpDir, "snapshot.db.zst.enc"))
	if err != nil {
		return 0, fmt.Errorf("creating download file: %w", err)
	}
	defer sealed.Close()

	if err := a.vault.GetSnapshot(ctx, a.instanceID, sealed); err != nil {
		return 0, fmt.Errorf("downloading snapshot: %w", err)
	}
	if _, err := sealed.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding download: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("creating target directory: %w", err)
	}
	out, err := os.CreateTemp(filepath.Dir(target), ".restore-*")
	if err != nil {
		return 0, fmt.Errorf("creating restore file: %w", err)
	}
	tmpPath := out.Name()
	success := false
	defer func() {
		if !success {
			out.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := open(dc, sealed, out, Label{InstanceID: a.instanceID, Version: version}); err != nil {
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing restore file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return 0, fmt.Errorf("moving restore file into place: %w", err)
	}
	success = true

	a.logger.Info("snapshot pulled", "instance_id", a.instanceID, "version", version, "target", target)
	return version, nil
}

// open decrypts and decompresses r into w.
func open(dc DecryptionContext, r io.Reader, w io.Writer, label Label) error {
	pr, pw := io.Pipe()
	decErr := make(chan error, 1)
	go func() {
		err := dc.Decrypt(r, pw, label)
		pw.CloseWithError(err)
		decErr <- err
	}()

	// the decompressor does not preserve the cause of a failed read
	cause := func(err error, msg string) error {
		pr.Close()
		if derr := <-decErr; derr != nil && !errors.Is(derr, io.ErrClosedPipe) {
			return fmt.Errorf("decrypting snapshot: %w", derr)
		}
		return fmt.Errorf("%s: %w", msg, err)
	}

	dec, err := zstd.NewReader(pr)
	if err != nil {
		return cause(err, "creating decompressor")
	}
	defer dec.Close()

	if _, err := io.Copy(w, dec); err != nil {
		return cause(err, "restoring snapshot")
	}
	return nil
}
