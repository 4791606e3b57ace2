package archive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrLabelMismatch is returned on decryption when a snapshot was sealed for
// a different instance or version than the one being restored.
var ErrLabelMismatch = errors.New("snapshot label mismatch")

const labelPrefix = "codevault-snapshot/1"

// maxLabelLen bounds the label line read back from untrusted input.
const maxLabelLen = 512

// Label names the snapshot a ciphertext belongs to. Encryptors seal it in
// front of the payload and check it before releasing any plaintext.
type Label struct {
	InstanceID string
	Version    int64
}

func (l Label) String() string {
	return fmt.Sprintf("%s instance=%s version=%d", labelPrefix, strconv.Quote(l.InstanceID), l.Version)
}

// WriteLabel writes l as a single line.
func WriteLabel(w io.Writer, l Label) error {
	if _, err := io.WriteString(w, l.String()+"\n"); err != nil {
		return fmt.Errorf("writing snapshot label: %w", err)
	}
	return nil
}

// ReadLabel consumes the label line from r and checks it against want. The
// returned reader yields the payload that follows.
func ReadLabel(r io.Reader, want Label) (io.Reader, error) {
	br := bufio.NewReaderSize(r, maxLabelLen)
	line, err := br.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no label found", ErrLabelMismatch)
		}
		return nil, fmt.Errorf("reading snapshot label: %w", err)
	}

	got := string(line[:len(line)-1])
	if got != want.String() {
		return nil, fmt.Errorf("%w: sealed as %q, restoring %q", ErrLabelMismatch, got, want.String())
	}
	return br, nil
}
