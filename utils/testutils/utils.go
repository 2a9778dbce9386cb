package testutils

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// AssertEqual fails the test when got and exp differ, printing a diff.
func AssertEqual(t *testing.T, got, exp interface{}, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(exp, got, opts...); diff != "" {
		t.Fatalf("mismatch (-expected +got):\n%s", diff)
	}
}

// AssertSame fails the test unless got and exp are the same pointer.
func AssertSame[T comparable](t *testing.T, got, exp T) {
	t.Helper()
	if got != exp {
		t.Fatalf("expected identical values, got %v and %v", exp, got)
	}
}
