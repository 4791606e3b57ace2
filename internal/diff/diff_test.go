package diff

import (
	"strings"
	"testing"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		a, b      string
		additions int
		deletions int
	}{
		{name: "identical", a: "x\ny\n", b: "x\ny\n"},
		{name: "both empty", a: "", b: ""},
		{name: "append line", a: "x\n", b: "x\ny\n", additions: 1},
		{name: "remove line", a: "x\ny\nz\n", b: "x\nz\n", deletions: 1},
		{name: "replace line", a: "a\nb\nc\n", b: "a\nB\nc\n", additions: 1, deletions: 1},
		{name: "from empty", a: "", b: "one\ntwo\n", additions: 2},
		{name: "to empty", a: "one\ntwo\nthree\n", b: "", deletions: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(tt.a, tt.b, Options{FromLabel: "a", ToLabel: "b", Context: DefaultContext})
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if res.Additions != tt.additions {
				t.Errorf("additions = %d, want %d", res.Additions, tt.additions)
			}
			if res.Deletions != tt.deletions {
				t.Errorf("deletions = %d, want %d", res.Deletions, tt.deletions)
			}
			if res.Identical() != (tt.additions == 0 && tt.deletions == 0) {
				t.Errorf("Identical() = %v", res.Identical())
			}
			if res.Identical() && res.Unified != "" {
				t.Errorf("expected empty unified diff, got %q", res.Unified)
			}
		})
	}
}

func TestCompute_UnifiedOutput(t *testing.T) {
	res, err := Compute("print('hi')\n", "print('hello')\n", Options{FromLabel: "abc", ToLabel: "def", Context: DefaultContext})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	for _, want := range []string{"--- abc", "+++ def", "-print('hi')", "+print('hello')"} {
		if !strings.Contains(res.Unified, want) {
			t.Errorf("unified diff missing %q:\n%s", want, res.Unified)
		}
	}
}

func TestCompute_NegativeContext(t *testing.T) {
	a := "1\n2\n3\n4\n5\n6\n7\n8\n"
	b := "1\n2\n3\n4\nfive\n6\n7\n8\n"

	res, err := Compute(a, b, Options{Context: -1})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// three lines of context on each side of the change
	if !strings.Contains(res.Unified, " 2\n") || !strings.Contains(res.Unified, " 8\n") {
		t.Errorf("expected default context in output:\n%s", res.Unified)
	}
	if strings.Contains(res.Unified, " 1\n") {
		t.Errorf("unexpected extra context in output:\n%s", res.Unified)
	}
}
