package grammar

import (
	"os"
	"testing"

	"golang.org/x/exp/ebnf"
)

// TestEBNF verifies that aster.ebnf is well-formed and that every
// production reachable from Program is itself defined, the same
// self-check the Go language specification runs over its own grammar.
func TestEBNF(t *testing.T) {
	f, err := os.Open("aster.ebnf")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := ebnf.Parse("aster.ebnf", f)
	if err != nil {
		t.Fatal(err)
	}
	if err := ebnf.Verify(g, "Program"); err != nil {
		t.Fatal(err)
	}
}
