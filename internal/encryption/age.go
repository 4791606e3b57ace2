package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"

	"codevault/internal/archive"
	"codevault/internal/config"
)

// AgeEncryptor seals snapshots to an X25519 recipient with filippo.io/age.
// The recipient (public key) is stored in plaintext so pushes never need a
// passphrase. The identity (private key) is itself an age file sealed with
// the passphrase through scrypt, and is only opened for restores.
type AgeEncryptor struct {
	publicKeyPath  string
	privateKeyPath string
}

var _ archive.Encryptor = (*AgeEncryptor)(nil)

// NewAgeEncryptor creates a new AgeEncryptor from configuration.
func NewAgeEncryptor(cfg config.EncryptionConfig) *AgeEncryptor {
	return &AgeEncryptor{
		publicKeyPath:  cfg.PublicKeyPath,
		privateKeyPath: cfg.PrivateKeyPath,
	}
}

// Setup generates the instance's key pair. An existing private key is never
// replaced: every snapshot sealed to it would become unrecoverable.
func (e *AgeEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return errors.New("passphrase must not be empty")
	}
	if _, err := os.Stat(e.privateKeyPath); err == nil {
		return fmt.Errorf("%w: %s", ErrKeysExist, e.privateKeyPath)
	}

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return fmt.Errorf("generating key pair: %w", err)
	}

	lock, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("creating scrypt recipient: %w", err)
	}
	var sealed bytes.Buffer
	w, err := age.Encrypt(&sealed, lock)
	if err != nil {
		return fmt.Errorf("sealing private key: %w", err)
	}
	if _, err := io.WriteString(w, identity.String()+"\n"); err != nil {
		return fmt.Errorf("sealing private key: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("sealing private key: %w", err)
	}

	// private key first: IsConfigured needs both, so a failure in between
	// leaves Setup retryable instead of pushing to a key nobody holds
	if err := writeKeyFile(e.privateKeyPath, sealed.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	if err := writeKeyFile(e.publicKeyPath, []byte(identity.Recipient().String()+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing public key: %w", err)
	}
	return nil
}

// Encrypt seals label and then the snapshot stream from r into a single age
// payload for the stored public key. age authenticates every chunk, so the
// label cannot be swapped without the private key.
func (e *AgeEncryptor) Encrypt(r io.Reader, w io.Writer, label archive.Label) error {
	recipient, err := e.recipient()
	if err != nil {
		return err
	}

	sealed, err := age.Encrypt(w, recipient)
	if err != nil {
		return fmt.Errorf("creating encrypted writer: %w", err)
	}
	if err := archive.WriteLabel(sealed, label); err != nil {
		return err
	}
	if _, err := io.Copy(sealed, r); err != nil {
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := sealed.Close(); err != nil {
		return fmt.Errorf("finalizing encryption: %w", err)
	}
	return nil
}

// Unlock opens the private key with passphrase. A passphrase that does not
// match yields archive.ErrBadPassphrase.
func (e *AgeEncryptor) Unlock(passphrase string) (archive.DecryptionContext, error) {
	sealed, err := os.ReadFile(e.privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key file: %w", err)
	}

	key, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}
	opened, err := age.Decrypt(bytes.NewReader(sealed), key)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return nil, archive.ErrBadPassphrase
		}
		return nil, fmt.Errorf("opening private key: %w", err)
	}

	identities, err := age.ParseIdentities(opened)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	if len(identities) != 1 {
		return nil, fmt.Errorf("private key file holds %d identities, want 1", len(identities))
	}
	return &AgeDecryptionContext{identity: identities[0]}, nil
}

// IsConfigured returns true if both key files exist.
func (e *AgeEncryptor) IsConfigured() bool {
	for _, p := range []string{e.publicKeyPath, e.privateKeyPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

func (e *AgeEncryptor) recipient() (age.Recipient, error) {
	data, err := os.ReadFile(e.publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading public key: %w", err)
	}
	recipients, err := age.ParseRecipients(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing public key: %w", err)
	}
	if len(recipients) != 1 {
		return nil, fmt.Errorf("public key file holds %d recipients, want 1", len(recipients))
	}
	return recipients[0], nil
}

// writeKeyFile writes data to path through a temp file in the same
// directory, so a key file is either complete or absent.
func writeKeyFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".key-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// AgeDecryptionContext holds an unlocked age identity for opening snapshots.
type AgeDecryptionContext struct {
	identity age.Identity
}

var _ archive.DecryptionContext = (*AgeDecryptionContext)(nil)

// Decrypt opens an age payload and checks its label before copying the
// snapshot stream to w.
func (c *AgeDecryptionContext) Decrypt(r io.Reader, w io.Writer, want archive.Label) error {
	opened, err := age.Decrypt(r, c.identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) {
			return fmt.Errorf("snapshot was sealed for a different key: %w", err)
		}
		return fmt.Errorf("opening snapshot: %w", err)
	}

	payload, err := archive.ReadLabel(opened, want)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, payload); err != nil {
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	return nil
}
