package maincmd_test

import (
	"bytes"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/aster/internal/filetest"
	"github.com/mna/aster/internal/maincmd"
	"github.com/mna/mainer"
)

var testUpdateE2ETests = flag.Bool("test.update-e2e-tests", false, "If set, replace expected end-to-end test results with actual results.")

// TestRunFile exercises the full CLI path (flag parsing, compiling, running)
// against one script per testdata/in file, checking both the literal stdout
// produced by print statements and whatever diagnostic reaches stderr.
func TestRunFile(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".aster") {
		t.Run(fi.Name(), func(t *testing.T) {
			var out, eout bytes.Buffer
			stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}

			cmd := &maincmd.Cmd{}
			cmd.Main([]string{"aster", filepath.Join(srcDir, fi.Name())}, stdio)

			filetest.DiffOutput(t, fi, out.String(), resultDir, testUpdateE2ETests)
			filetest.DiffErrors(t, fi, eout.String(), resultDir, testUpdateE2ETests)
		})
	}
}
