// Package diff compares two versions of a text file line by line.
package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines kept around each hunk.
const DefaultContext = 3

// Result is a unified diff together with its line counts.
type Result struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Unified   string `json:"unified"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Identical reports whether the two texts had no line changes.
func (r *Result) Identical() bool {
	return r.Additions == 0 && r.Deletions == 0
}

// Options control labels and context size of the unified output.
type Options struct {
	FromLabel string
	ToLabel   string
	Context   int
}

// Compute diffs a against b. A negative Context falls back to DefaultContext.
func Compute(a, b string, opts Options) (*Result, error) {
	if opts.Context < 0 {
		opts.Context = DefaultContext
	}

	aLines := difflib.SplitLines(a)
	bLines := difflib.SplitLines(b)

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        aLines,
		B:        bLines,
		FromFile: opts.FromLabel,
		ToFile:   opts.ToLabel,
		Context:  opts.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render diff: %w", err)
	}

	res := &Result{
		From:    opts.FromLabel,
		To:      opts.ToLabel,
		Unified: unified,
	}
	for _, op := range difflib.NewMatcher(aLines, bLines).GetOpCodes() {
		switch op.Tag {
		case 'r':
			res.Deletions += op.I2 - op.I1
			res.Additions += op.J2 - op.J1
		case 'd':
			res.Deletions += op.I2 - op.I1
		case 'i':
			res.Additions += op.J2 - op.J1
		}
	}
	return res, nil
}
