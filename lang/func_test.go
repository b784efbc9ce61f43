package lang

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry(t *testing.T) {
	upper := FuncOf(func(args ...string) (string, error) {
		return strings.ToUpper(strings.Join(args, "")), nil
	})

	r := NewRegistry(map[string]Func{"upper": upper})
	r.Register("echo", FuncOf(echo))

	if diff := cmp.Diff([]string{"echo", "upper"}, r.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}

	fn, ok := r.Lookup("upper")
	if !ok {
		t.Fatal("expected upper to be registered")
	}

	if got, err := fn.Call([]string{"a", "b"}); err != nil || got != "AB" {
		t.Errorf("unexpected result %q (%v)", got, err)
	}

	if _, ok := r.Lookup("Upper"); ok {
		t.Error("expected names to match exactly")
	}

	var nilRegistry *Registry
	if _, ok := nilRegistry.Lookup("upper"); ok || nilRegistry.Names() != nil {
		t.Error("expected a nil registry to be empty")
	}
}
