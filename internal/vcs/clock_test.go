package vcs

import (
	"regexp"
	"testing"
	"time"
)

func TestTokenHashGenerator(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := TokenHashGenerator{}

	if got, want := g.DraftHash(at), "draft-1709294400000"; got != want {
		t.Errorf("DraftHash() = %q, want %q", got, want)
	}

	commitPattern := regexp.MustCompile(`^[0-9a-z]+-[0-9a-f]{8}$`)
	a := g.CommitHash(at)
	b := g.CommitHash(at)
	if !commitPattern.MatchString(a) {
		t.Errorf("CommitHash() = %q, does not match %s", a, commitPattern)
	}
	if a == b {
		t.Errorf("CommitHash() returned %q twice", a)
	}
}

func TestChecksum(t *testing.T) {
	// sha256 of the empty string
	if got := Checksum(""); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("Checksum(\"\") = %q", got)
	}
	if Checksum("a") == Checksum("b") {
		t.Error("Checksum() collided for different input")
	}
}

func TestRealClock_UTC(t *testing.T) {
	if loc := (RealClock{}).Now().Location(); loc != time.UTC {
		t.Errorf("Now().Location() = %v, want UTC", loc)
	}
}
