package encryption

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"codevault/internal/archive"
	"codevault/internal/config"
)

func newTestAgeEncryptor(t *testing.T) *AgeEncryptor {
	t.Helper()
	dir := t.TempDir()
	cfg := config.EncryptionConfig{
		PublicKeyPath:  filepath.Join(dir, "keys", "codevault.pub"),
		PrivateKeyPath: filepath.Join(dir, "keys", "codevault.key"),
	}
	return NewAgeEncryptor(cfg)
}

func TestAgeEncryptor_IsConfigured_BeforeSetup(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)
	if e.IsConfigured() {
		t.Error("IsConfigured() = true before Setup, want false")
	}
}

func TestAgeEncryptor_Setup_IsConfigured(t *testing.T) {
	t.Parallel()
	e := newTestAgeEncryptor(t)

	if err := e.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	if !e.IsConfigured() {
		t.Error("IsConfigured() = false after Setup, want true")
	}
}

func TestAgeEncryptor_EncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "binary data", input: []byte{0x00, 0xff, 0x01, 0xfe}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			passphrase := "test-passphrase"
			e := newTestAgeEncryptor(t)
			if err := e.Setup(passphrase); err != nil {
				t.Fatalf("Setup() error = %v", err)
			}

			// Encrypt
			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted, testLabel); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			// Encrypted output should differ from plaintext
			if len(tt.input) > 0 && bytes.Equal(encrypted.Bytes(), tt.input) {
				t.Error("encrypted output is identical to plaintext")
			}

			// Decrypt
			ctx, err := e.Unlock(passphrase)
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}

			var decrypted bytes.Buffer
			if err := ctx.Decrypt(bytes.NewReader(encrypted.Bytes()), &decrypted, testLabel); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}

			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %d bytes, want %d bytes", decrypted.Len(), len(tt.input))
			}
		})
	}
}

func TestAgeEncryptor_LabelMismatch(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if err := e.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	var encrypted bytes.Buffer
	if err := e.Encrypt(bytes.NewReader([]byte("payload")), &encrypted, testLabel); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	ctx, err := e.Unlock("test-passphrase")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	for _, want := range []archive.Label{
		{InstanceID: "host-2", Version: testLabel.Version},
		{InstanceID: testLabel.InstanceID, Version: testLabel.Version + 1},
	} {
		var out bytes.Buffer
		err := ctx.Decrypt(bytes.NewReader(encrypted.Bytes()), &out, want)
		if !errors.Is(err, archive.ErrLabelMismatch) {
			t.Errorf("Decrypt(%v) error = %v, want ErrLabelMismatch", want, err)
		}
		if out.Len() != 0 {
			t.Errorf("Decrypt(%v) released %d bytes on mismatch", want, out.Len())
		}
	}
}

func TestAgeEncryptor_DecryptWithOtherKey(t *testing.T) {
	t.Parallel()

	a, b := newTestAgeEncryptor(t), newTestAgeEncryptor(t)
	for _, e := range []*AgeEncryptor{a, b} {
		if err := e.Setup("test-passphrase"); err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
	}
	var encrypted bytes.Buffer
	if err := a.Encrypt(bytes.NewReader([]byte("payload")), &encrypted, testLabel); err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	ctx, err := b.Unlock("test-passphrase")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	var out bytes.Buffer
	if err := ctx.Decrypt(bytes.NewReader(encrypted.Bytes()), &out, testLabel); err == nil {
		t.Error("Decrypt() with another instance's key should return error")
	}
}

func TestAgeEncryptor_SetupKeyFiles(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if err := e.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	info, err := os.Stat(e.privateKeyPath)
	if err != nil {
		t.Fatalf("stat private key: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("private key mode = %o, want 600", perm)
	}
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(e.privateKeyPath), ".key-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp key files left behind: %v", leftovers)
	}
}

func TestAgeEncryptor_SetupReplacesOrphanPublicKey(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if err := os.MkdirAll(filepath.Dir(e.publicKeyPath), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(e.publicKeyPath, []byte("stale\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if e.IsConfigured() {
		t.Fatal("IsConfigured() = true with only a public key")
	}
	if err := e.Setup("test-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	var encrypted bytes.Buffer
	if err := e.Encrypt(bytes.NewReader([]byte("payload")), &encrypted, testLabel); err != nil {
		t.Fatalf("Encrypt() after Setup error = %v", err)
	}
}

func TestAgeEncryptor_UnlockWrongPassphrase(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if err := e.Setup("correct-passphrase"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	_, err := e.Unlock("wrong-passphrase")
	if !errors.Is(err, archive.ErrBadPassphrase) {
		t.Errorf("Unlock() with wrong passphrase error = %v, want ErrBadPassphrase", err)
	}
}

func TestAgeEncryptor_EncryptBeforeSetup(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	var buf bytes.Buffer
	err := e.Encrypt(bytes.NewReader([]byte("data")), &buf, testLabel)
	if err == nil {
		t.Error("Encrypt() before Setup should return error")
	}
}

func TestAgeEncryptor_UnlockBeforeSetup(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	_, err := e.Unlock("passphrase")
	if err == nil {
		t.Error("Unlock() before Setup should return error")
	}
}

func TestAgeEncryptor_SetupRefusesToOverwrite(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if err := e.Setup("first"); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if err := e.Setup("second"); !errors.Is(err, ErrKeysExist) {
		t.Fatalf("second Setup() error = %v, want ErrKeysExist", err)
	}
	if _, err := e.Unlock("first"); err != nil {
		t.Errorf("original key no longer unlocks: %v", err)
	}
}

func TestAgeEncryptor_SetupRejectsEmptyPassphrase(t *testing.T) {
	t.Parallel()

	e := newTestAgeEncryptor(t)
	if err := e.Setup(""); err == nil {
		t.Error("Setup(\"\") should return error")
	}
	if e.IsConfigured() {
		t.Error("IsConfigured() = true after rejected Setup")
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ     string
		wantErr bool
	}{
		{typ: ""},
		{typ: "age"},
		{typ: "test"},
		{typ: "rot13", wantErr: true},
	}
	for _, tt := range tests {
		got, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: tt.typ})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewEncryptorFromConfig(%q) error = %v, wantErr %v", tt.typ, err, tt.wantErr)
		}
		if !tt.wantErr && got == nil {
			t.Errorf("NewEncryptorFromConfig(%q) returned nil", tt.typ)
		}
	}
}
