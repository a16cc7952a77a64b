// Package testutil provides small helpers shared by modsmith's tests.
package testutil

import (
	"sort"
	"testing"

	"github.com/modsmith/modsmith/pkg/types"
)

// WriteFile writes content through fs, failing the test on error.
func WriteFile(t *testing.T, fs types.FS, path, content string) {
	t.Helper()
	if err := fs.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

// ReadFile reads path through fs, failing the test on error.
func ReadFile(t *testing.T, fs types.FS, path string) string {
	t.Helper()
	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(data)
}

// AssertSetEqual checks that two string slices contain the same members,
// ignoring order.
func AssertSetEqual(t *testing.T, expected, actual []string) {
	t.Helper()

	e := append([]string(nil), expected...)
	a := append([]string(nil), actual...)
	sort.Strings(e)
	sort.Strings(a)

	if len(e) != len(a) {
		t.Fatalf("set mismatch:\nexpected: %v\nactual:   %v", e, a)
	}
	for i := range e {
		if e[i] != a[i] {
			t.Fatalf("set mismatch:\nexpected: %v\nactual:   %v", e, a)
		}
	}
}
