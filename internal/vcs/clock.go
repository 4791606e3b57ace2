package vcs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// HashGenerator produces the display hashes stamped on new commits.
// Hashes identify a commit to people; they are never used for dedup or
// integrity checks.
type HashGenerator interface {
	// DraftHash returns the token for an auto-saved draft commit.
	DraftHash(t time.Time) string
	// CommitHash returns the token for a publish or revert commit.
	CommitHash(t time.Time) string
}

// TokenHashGenerator builds hashes from the commit time plus, for published
// commits, a random suffix.
type TokenHashGenerator struct{}

func (TokenHashGenerator) DraftHash(t time.Time) string {
	return fmt.Sprintf("draft-%d", t.UnixMilli())
}

func (TokenHashGenerator) CommitHash(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return strconv.FormatInt(t.UnixMilli(), 36) + "-" + suffix
}

// Checksum returns the hex SHA-256 of a commit body.
func Checksum(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}
