package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertFileExists fails the test if the file does not exist.
func (w *TestWorkspace) AssertFileExists(relPath string) {
	w.t.Helper()
	fullPath := filepath.Join(w.Path, relPath)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		w.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (w *TestWorkspace) AssertFileContains(relPath, substr string) {
	w.t.Helper()
	content := w.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		w.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertQueryIDs runs a query command against the given catalog and
// verifies the matched ids.
func (w *TestWorkspace) AssertQueryIDs(db, filter string, expected ...string) {
	w.t.Helper()
	result := w.RunCLI("query", "--db", db, filter)
	result.MustSucceed(w.t)

	ids := result.DataList("ids")
	if len(ids) != len(expected) {
		w.t.Errorf("query %q: expected %d matches, got %d\nRaw: %s",
			filter, len(expected), len(ids), result.RawJSON)
		return
	}
	for i, id := range ids {
		if id != expected[i] {
			w.t.Errorf("query %q: match %d: expected %q, got %v", filter, i, expected[i], id)
		}
	}
}

// AssertResultCount checks that a result list has the expected length.
func (r *CLIResult) AssertResultCount(t *testing.T, key string, expected int) {
	t.Helper()
	results := r.DataList(key)
	if len(results) != expected {
		t.Errorf("expected %d %s, got %d\nRaw: %s", expected, key, len(results), r.RawJSON)
	}
}
