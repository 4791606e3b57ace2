package vcs

import "fmt"

// Branch labels a commit. Only two branches exist and neither can be
// created or removed.
type Branch string

const (
	// Drafts holds work in progress; every auto-save lands here.
	Drafts Branch = "drafts"
	// Main holds published content, written only by publish or revert.
	Main Branch = "main"
)

// ParseBranch converts raw input into a Branch. An empty string resolves to
// def; anything other than "drafts" or "main" is rejected.
func ParseBranch(raw string, def Branch) (Branch, error) {
	switch Branch(raw) {
	case "":
		return def, nil
	case Drafts, Main:
		return Branch(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown branch %q", ErrInvalidInput, raw)
	}
}

func (b Branch) String() string { return string(b) }

// Valid reports whether b is one of the two known branches.
func (b Branch) Valid() bool { return b == Drafts || b == Main }
