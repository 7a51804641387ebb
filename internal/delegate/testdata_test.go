package delegate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bazelbuild/rules_go/go/tools/bazel"
)

// testdataDir returns the directory holding the test inputs.
// In Bazel tests, it uses runfiles to find the directory.
// Outside of Bazel, it falls back to the package's testdata directory.
func testdataDir(t *testing.T) string {
	t.Helper()
	if path, err := bazel.Runfile("internal/delegate/testdata/shapes.rs"); err == nil {
		return filepath.Dir(path)
	}
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return filepath.Join(cwd, "testdata")
}
