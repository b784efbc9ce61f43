package lang

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStore_SetRawAndHas(t *testing.T) {
	s := NewStore(nil)

	if s.Has("A") {
		t.Fatal("expected A to be unbound")
	}

	s.SetRaw("A", `${B} "quoted"`)

	raw, ok := s.Raw("A")
	if !ok || raw != `${B} "quoted"` {
		t.Errorf("expected raw value to be stored verbatim, got %q (%v)", raw, ok)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(Bindings{"A": "x"})
	s.Clear("A")

	if !s.Has("A") {
		t.Fatal("expected Clear to keep the binding")
	}

	if raw, _ := s.Raw("A"); raw != "" {
		t.Errorf("expected empty value, got %q", raw)
	}
}

func TestStore_Unset(t *testing.T) {
	s := NewStore(Bindings{"A": "x"})
	s.Push()
	s.Unset("A")

	if s.Has("A") {
		t.Fatal("expected A to be unbound in the inner scope")
	}

	if err := s.Pop(); err != nil {
		t.Fatalf("Pop: %v", err)
	}

	if raw, ok := s.Raw("A"); !ok || raw != "x" {
		t.Errorf("expected outer binding to survive, got %q (%v)", raw, ok)
	}
}

func TestStore_Set(t *testing.T) {
	s := NewStore(nil)
	s.Set("CFLAGS", "-O2", `-DNAME="a b"`, `c:\dir`)

	raw, _ := s.Raw("CFLAGS")
	if want := `-O2 "-DNAME=\"a b\"" c:\\dir`; raw != want {
		t.Errorf("expected raw %q, got %q", want, raw)
	}

	got, err := s.Get(t.Context(), "CFLAGS")
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"-O2", `-DNAME="a b"`, `c:\dir`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_SetEmptyTerms(t *testing.T) {
	s := NewStore(nil)
	s.Set("X", "a", "", "b")

	if raw, _ := s.Raw("X"); raw != `a "" b` {
		t.Errorf("unexpected raw value %q", raw)
	}

	got, err := s.Get(t.Context(), "X")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"a", "", "b"}, got); diff != "" {
		t.Errorf("Get mismatch (-want +got):\n%s", diff)
	}

	s.Append("X", "")

	got, err = s.Get(t.Context(), "X")
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"a", "", "b", ""}, got); diff != "" {
		t.Errorf("Get after Append mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_Append(t *testing.T) {
	s := NewStore(Bindings{"EMPTY": ""})

	s.Append("EMPTY", "a")
	s.Append("EMPTY", "b c")
	s.Append("NEW", "x")

	if raw, _ := s.Raw("EMPTY"); raw != `a "b c"` {
		t.Errorf("unexpected raw value %q", raw)
	}

	if raw, _ := s.Raw("NEW"); raw != "x" {
		t.Errorf("expected Append to create the binding, got %q", raw)
	}
}

func TestStore_UpdateMany(t *testing.T) {
	s := NewStore(nil)

	err := s.UpdateMany(map[string]any{
		"RAW":   "${B} c",
		"TERMS": []any{"x", "y z"},
		"LIST":  []string{"p"},
		"NUM":   uint64(3),
		"FLAG":  true,
		"NONE":  nil,
	})
	if err != nil {
		t.Fatal(err)
	}

	want := Bindings{
		"RAW":   "${B} c",
		"TERMS": `x "y z"`,
		"LIST":  "p",
		"NUM":   "3",
		"FLAG":  "1",
		"NONE":  "",
	}

	got, err := s.Table(t.Context(), false)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("bindings mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_UpdateMany_InvalidType(t *testing.T) {
	s := NewStore(nil)

	err := s.UpdateMany(map[string]any{
		"GOOD": "ok",
		"BAD":  map[string]any{"nested": 1},
	})
	if !errors.Is(err, ErrInvalidValueType) {
		t.Fatalf("expected ErrInvalidValueType, got %v", err)
	}

	if s.Has("GOOD") {
		t.Error("expected no assignment after a rejected update")
	}
}

func TestStore_GetRaw(t *testing.T) {
	s := NewStore(Bindings{"A": "${B}", "B": "value"})

	v, err := s.GetRaw(t.Context(), "A")
	if err != nil {
		t.Fatal(err)
	}

	if v != "value" {
		t.Errorf("expected 'value', got %q", v)
	}

	if _, err := s.GetRaw(t.Context(), "MISSING"); !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("expected ErrUndefinedVariable, got %v", err)
	}
}

func TestStore_GetOne(t *testing.T) {
	s := NewStore(Bindings{"DIR": `"${BASE}/my dir"`, "BASE": "/opt"})

	v, err := s.GetOne(t.Context(), "DIR")
	if err != nil {
		t.Fatal(err)
	}

	if v != "/opt/my dir" {
		t.Errorf("expected '/opt/my dir', got %q", v)
	}
}

func TestStore_GetBool(t *testing.T) {
	s := NewStore(Bindings{"ON": "1", "OFF": "${ZERO}", "ZERO": "0", "BAD": "yes"})

	tests := []struct {
		name    string
		want    bool
		wantErr error
	}{
		{"ON", true, nil},
		{"OFF", false, nil},
		{"BAD", false, ErrNotBoolean},
		{"MISSING", false, ErrUndefinedVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.GetBool(t.Context(), tt.name)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestStore_GetBoolParseError(t *testing.T) {
	s := NewStore(Bindings{"BAD": "${WORD}", "WORD": "yes"})

	_, err := s.GetBool(t.Context(), "BAD")

	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}

	if !errors.Is(perr, ErrNotBoolean) {
		t.Errorf("expected ErrNotBoolean reason, got %v", perr.Reason)
	}

	if perr.Span.Source != "yes" || perr.Span.Start != 0 || perr.Span.End != 2 {
		t.Errorf("unexpected span %+v", perr.Span)
	}
}

func TestStore_SetBool(t *testing.T) {
	s := NewStore(nil)

	s.SetBool("T", true)
	s.SetBool("F", false)

	for name, want := range map[string]bool{"T": true, "F": false} {
		got, err := s.GetBool(t.Context(), name)
		if err != nil {
			t.Fatal(err)
		}

		if got != want {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
}

func TestStore_PushPop(t *testing.T) {
	s := NewStore(Bindings{"x": "0"})

	s.Push()
	s.Set("x", "1")
	s.Set("y", "new")

	if s.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", s.Depth())
	}

	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}

	if raw, _ := s.Raw("x"); raw != "0" {
		t.Errorf("expected x to be restored to '0', got %q", raw)
	}

	if s.Has("y") {
		t.Error("expected y to be discarded by Pop")
	}
}

func TestStore_PushIsolatesSnapshot(t *testing.T) {
	s := NewStore(Bindings{"x": "outer"})

	s.Push()
	s.Push()
	s.SetRaw("x", "inner")

	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}

	if raw, _ := s.Raw("x"); raw != "outer" {
		t.Errorf("expected 'outer' after first pop, got %q", raw)
	}

	s.SetRaw("x", "middle")

	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}

	if raw, _ := s.Raw("x"); raw != "outer" {
		t.Errorf("expected 'outer' after second pop, got %q", raw)
	}
}

func TestStore_PopUnderflow(t *testing.T) {
	s := NewStore(nil)

	if err := s.Pop(); !errors.Is(err, ErrScopeUnderflow) {
		t.Errorf("expected ErrScopeUnderflow, got %v", err)
	}
}

func TestStore_Reset(t *testing.T) {
	defaults := Bindings{"A": "default"}
	s := NewStore(defaults)

	// the store owns a copy of the defaults
	defaults["A"] = "mutated"

	s.Push()
	s.SetRaw("A", "changed")
	s.SetRaw("B", "added")
	s.Reset()

	if s.Depth() != 0 {
		t.Errorf("expected Reset to discard scopes, depth %d", s.Depth())
	}

	if raw, _ := s.Raw("A"); raw != "default" {
		t.Errorf("expected 'default', got %q", raw)
	}

	if s.Has("B") {
		t.Error("expected B to be discarded by Reset")
	}
}

func TestStore_Scoped(t *testing.T) {
	s := NewStore(Bindings{"MODE": "release"})
	errStop := errors.New("stop")

	err := s.Scoped(func(s *Store) error {
		s.SetRaw("MODE", "debug")

		v, err := s.GetRaw(t.Context(), "MODE")
		if err != nil {
			return err
		}

		if v != "debug" {
			t.Errorf("expected 'debug' inside scope, got %q", v)
		}

		return errStop
	})
	if !errors.Is(err, errStop) {
		t.Errorf("expected the callback error, got %v", err)
	}

	if raw, _ := s.Raw("MODE"); raw != "release" {
		t.Errorf("expected 'release' after scope, got %q", raw)
	}
}

func TestStore_NamesAndDump(t *testing.T) {
	s := NewStore(Bindings{"B": "${A}", "A": "x"})

	if diff := cmp.Diff([]string{"A", "B"}, s.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	if err := s.Dump(&buf); err != nil {
		t.Fatal(err)
	}

	if want := "A == x\nB == ${A}\n"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
