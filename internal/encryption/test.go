package encryption

import (
	"bytes"
	"fmt"
	"io"

	"codevault/internal/archive"
)

// testHeader marks data sealed by TestEncryptor.
var testHeader = []byte("CVENC\x00\x00\x00")

// TestEncryptor is a deterministic stand-in for AgeEncryptor used by tests
// and the "test" encryption type. Sealed output is the header, the label line
// and the plaintext, so snapshots stay inspectable while label checks behave
// like the real thing. Once Setup has been called, Unlock only accepts the
// same passphrase.
type TestEncryptor struct {
	passphrase  string
	setupCalled bool
}

var _ archive.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer, label archive.Label) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if err := archive.WriteLabel(w, label); err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (archive.DecryptionContext, error) {
	if e.setupCalled && passphrase != e.passphrase {
		return nil, archive.ErrBadPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext reverses TestEncryptor.
type TestDecryptionContext struct{}

var _ archive.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer, want archive.Label) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header %q", header)
	}

	payload, err := archive.ReadLabel(r, want)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, payload); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
