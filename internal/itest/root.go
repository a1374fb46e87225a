//go:build integration

package itest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// findRepoRoot walks up from the test directory to the module root that
// holds the beepsub entry point.
func findRepoRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 10; i++ {
		_, modErr := os.Stat(filepath.Join(wd, "go.mod"))
		_, mainErr := os.Stat(filepath.Join(wd, "cmd", "beepsub", "main.go"))
		if modErr == nil && mainErr == nil {
			return wd, nil
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			break
		}
		wd = parent
	}
	return "", errors.New("could not locate the beepsub module root")
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}
