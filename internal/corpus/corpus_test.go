package corpus

import (
	"strings"
	"testing"
)

func TestBuildPreservesOrder(t *testing.T) {
	d1 := "1. What is entropy?\n2. Define refraction."
	d2 := "1. What is entropy?\n2. Explain Snell's law."

	c := Build([]string{d1, d2})

	first := strings.Index(c, Boundary)
	if first < 0 {
		t.Fatal("boundary missing")
	}
	if !strings.HasPrefix(c, d1) {
		t.Errorf("corpus should start with first paper: %q", c)
	}
	if i := strings.Index(c, "Snell"); i < first {
		t.Errorf("second paper appears before the first boundary")
	}
	if n := strings.Count(c, Boundary); n != 2 {
		t.Errorf("expected 2 boundaries, got %d", n)
	}
}

func TestBuildBoundaryOnOwnLine(t *testing.T) {
	c := Build([]string{"a"})
	if c != "a\n\n--- END OF PAPER ---\n\n" {
		t.Errorf("unexpected corpus %q", c)
	}
}

func TestBuildEmpty(t *testing.T) {
	if c := Build(nil); c != "" {
		t.Errorf("expected empty corpus, got %q", c)
	}
}
