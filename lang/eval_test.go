package lang

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/denv/log"
)

func testBindings() Bindings {
	return Bindings{
		"ZERO":     "0",
		"ONE":      "1",
		"TWO":      "2",
		"EMPTY":    "",
		"WORD":     "hello",
		"ARCH":     "X64",
		"FOO_X64":  "found",
		"A":        "${B}",
		"B":        "x",
		"SPACED":   "  padded  ",
		"PAIR":     "a b",
		"INDIRECT": "ARCH",
		"NESTED":   "${FOO_%ARCH%}",
	}
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	return NewStore(testBindings(), opts...)
}

func echo(args ...string) (string, error) { return strings.Join(args, ","), nil }

func TestEvaluate_LiteralIdentity(t *testing.T) {
	s := newTestStore(t)

	for _, in := range []string{
		"",
		"plain text",
		"a } b",
		"100% sure",
		"what? yes : no",
		"$ {A}",
		"$A",
		"trailing $",
	} {
		got, err := s.Evaluate(t.Context(), in)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", in, err)
		}

		if got != in {
			t.Errorf("Evaluate(%q) = %q, want identity", in, got)
		}
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"variable", "${WORD}", "hello"},
		{"raw value untrimmed", "[${SPACED}]", "[  padded  ]"},
		{"indirection", "${A}", "x"},
		{"surrounding text", "pre ${A} mid ${WORD} post", "pre x mid hello post"},
		{"adjacent blocks", "${B}${B}", "xx"},
		{"padded name", "${ WORD }", "hello"},
		{"empty value", "<${EMPTY}>", "<>"},
		{"name composition", "${FOO_%ARCH%}", "found"},
		{"composition in binding", "${NESTED}", "found"},

		{"ternary true", "${ONE ? yes : no}", "yes"},
		{"ternary false", "${ZERO ? yes : no}", "no"},
		{"ternary without else", "${ZERO ? yes}", ""},
		{"ternary trims branches", "[${ONE ?   spaced out   : no}]", "[spaced out]"},
		{"ternary nested block", "${ONE ? -m${B} : none}", "-mx"},
		{"ternary nested ternary", "${ONE ? ${ZERO ? a : b} : c}", "b"},
		{"separator needs spaces", "${ONE ? a:b}", "a:b"},

		{"equality true", "${ARCH == X64 ? match : other}", "match"},
		{"equality compact", "${ARCH==X64 ? match : other}", "match"},
		{"equality false", "${ARCH == ARM ? match : other}", "other"},
		{"literal equality", "${ONE==1 ? yes : no}", "yes"},
		{"negated equality", "${!ARCH == ARM ? yes : no}", "yes"},
		{"equality literal with blanks", "${PAIR == a b ? yes : no}", "yes"},
		{"equality literal trimmed", "${PAIR ==   a b   ? yes : no}", "yes"},
		{"equality literal before and", "${PAIR == a b && ONE ? yes : no}", "yes"},
		{"equality partial literal", "${PAIR == a ? yes : no}", "no"},
		{"equality value untrimmed", "${SPACED == padded ? yes : no}", "no"},

		{"length empty", "${#EMPTY ? y : n}", "n"},
		{"length non-boolean", "${#WORD ? y : n}", "y"},
		{"negated length", "${!#EMPTY ? y : n}", "y"},
		{"negation", "${!ZERO ? y : n}", "y"},
		{"negation with space", "${! ONE ? y : n}", "n"},

		{"and", "${ONE && ONE ? y : n}", "y"},
		{"and false", "${ONE && ZERO ? y : n}", "n"},
		{"or", "${ZERO || ONE ? y : n}", "y"},
		{"or false", "${ZERO || ZERO ? y : n}", "n"},
		{"chain", "${ONE && #WORD && ARCH == X64 ? y : n}", "y"},
		{"right associative", "${ZERO && ZERO || ONE ? y : n}", "n"},
		{"right associative or", "${ONE || ZERO && ZERO ? y : n}", "y"},

		{"call", "${@echo}", ""},
		{"call args", "${@echo:a:b c:}", "a,b c,"},
		{"call args are raw", "${@echo:%ARCH%}", "%ARCH%"},
		{"call result evaluated", "${@ref:WORD}", "hello"},
		{"call in name", "${FOO_%@echo:X64%}", "found"},
		{"call in branch", "${ONE ? ${@echo:a} : b}", "a"},
	}

	s := newTestStore(t)
	s.Funcs().Register("echo", FuncOf(echo))
	s.Funcs().Register("ref", FuncOf(func(args ...string) (string, error) {
		return "${" + args[0] + "}", nil
	}))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Evaluate(t.Context(), tt.in)
			if err != nil {
				t.Fatalf("Evaluate(%q): %v", tt.in, err)
			}

			if got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEvaluate_BoundNamesWithoutBlocks(t *testing.T) {
	s := newTestStore(t)

	for _, name := range s.Names() {
		raw, _ := s.Raw(name)
		if strings.Contains(raw, "${") || strings.TrimSpace(name) != name {
			continue
		}

		got, err := s.Evaluate(t.Context(), "${"+name+"}")
		if err != nil {
			t.Fatalf("Evaluate(${%s}): %v", name, err)
		}

		if got != raw {
			t.Errorf("Evaluate(${%s}) = %q, want %q", name, got, raw)
		}
	}
}

func TestEvaluate_ParseErrors(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		reason    error
		start     int
		end       int
		wantInMsg string
	}{
		{"undefined", "x ${MISSING} y", ErrUndefinedVariable, 2, 11, "MISSING"},
		{"undefined composed", "${FOO_%WORD%}", ErrUndefinedVariable, 0, 12, "FOO_hello"},
		{"unterminated block", "${A", ErrUnterminatedBlock, 0, 3, "${"},
		{"unterminated ternary", "${ONE ? ${B} : c", ErrUnterminatedBlock, 0, 16, "${"},
		{"unterminated name", "${FOO_%ARCH}", ErrUnterminatedName, 6, 12, "%"},
		{"not boolean", "${TWO ? a : b}", ErrNotBoolean, 2, 5, "TWO"},
		{"not boolean word", "${ONE && WORD ? a}", ErrNotBoolean, 9, 13, "hello"},
		{"length with equality", "${#WORD==hello ? a}", ErrLengthEquality, 2, 8, "#"},
		{"single equals", "${WORD=hello ? a}", ErrUnexpectedToken, 6, 6, "=="},
		{"single ampersand", "${ONE & ONE ? a}", ErrUnexpectedToken, 6, 6, "&&"},
		{"undefined in condition", "${NOPE ? a}", ErrUndefinedVariable, 2, 6, "NOPE"},
		{"undefined in untaken branch", "${ZERO ? ${MISSING} : ok}", ErrUndefinedVariable, 9, 18, "MISSING"},
		{"undefined in untaken else", "${ONE ? ok : ${MISSING}}", ErrUndefinedVariable, 13, 22, "MISSING"},
		{"not boolean in untaken branch", "${ZERO ? ${TWO ? a : b} : ok}", ErrNotBoolean, 11, 14, "TWO"},
	}

	s := newTestStore(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Evaluate(t.Context(), tt.in)

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}

			if !errors.Is(err, tt.reason) {
				t.Errorf("expected reason %v, got %v", tt.reason, pe.Reason)
			}

			if pe.Source != tt.in {
				t.Errorf("expected source %q, got %q", tt.in, pe.Source)
			}

			if pe.Start != tt.start || pe.End != tt.end {
				t.Errorf("expected span [%d,%d], got [%d,%d]",
					tt.start, tt.end, pe.Start, pe.End)
			}

			if !strings.Contains(pe.Error(), tt.wantInMsg) {
				t.Errorf("expected %q in message:\n%s", tt.wantInMsg, pe.Error())
			}
		})
	}
}

func TestEvaluate_UndefinedSnippet(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Evaluate(t.Context(), "x ${MISSING} y")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}

	want := "  x ${MISSING} y\n    ^^^^^^^^^^"
	if got := pe.Snippet(); got != want {
		t.Errorf("snippet mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestEvaluate_UndefinedSuggestions(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Evaluate(t.Context(), "${FOO}")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}

	if diff := cmp.Diff([]string{"FOO_X64"}, pe.Suggestions); diff != "" {
		t.Errorf("suggestions mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(pe.Error(), "did you mean FOO_X64?") {
		t.Errorf("expected suggestion in message: %s", pe.Error())
	}
}

func TestEvaluate_UnknownFunction(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Evaluate(t.Context(), "a ${@nope:x} b")

	var he *HostLookupError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HostLookupError, got %T: %v", err, err)
	}

	if !errors.Is(err, ErrUnknownFunction) {
		t.Error("expected HostLookupError to match ErrUnknownFunction")
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		t.Error("a host lookup failure must not be a ParseError")
	}

	if he.Name != "nope" || he.Start != 2 || he.End != 11 {
		t.Errorf("unexpected error fields %+v", he)
	}
}

func TestEvaluate_UnknownFunctionInUntakenBranch(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Evaluate(t.Context(), "${ONE ? ok : ${@nope}}")

	var he *HostLookupError
	if !errors.As(err, &he) {
		t.Fatalf("expected *HostLookupError, got %T: %v", err, err)
	}

	if he.Name != "nope" {
		t.Errorf("expected function name nope, got %q", he.Name)
	}
}

func TestEvaluate_LazyBranches(t *testing.T) {
	var calls int

	s := newTestStore(t, WithLazyBranches(true))
	s.Funcs().Register("count", FuncOf(func(...string) (string, error) {
		calls++

		return "n", nil
	}))

	tests := []struct {
		in   string
		want string
	}{
		{"${ZERO ? ${MISSING} : ok}", "ok"},
		{"${ONE ? ok : ${@nope}}", "ok"},
		{"${ZERO ? ${TWO ? a : b} : ok}", "ok"},
		{"${ONE ? ok : ${@count}}", "ok"},
		{"${ZERO ? ok : ${@count}}", "n"},
	}

	for _, tt := range tests {
		got, err := s.Evaluate(t.Context(), tt.in)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", tt.in, err)
		}

		if got != tt.want {
			t.Errorf("Evaluate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if calls != 1 {
		t.Errorf("expected the untaken call to be skipped, got %d calls", calls)
	}

	if _, err := s.Evaluate(t.Context(), "${ONE ? ${MISSING} : ok}"); !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("expected the taken branch to be evaluated, got %v", err)
	}
}

func TestEvaluate_FunctionFailure(t *testing.T) {
	errBoom := errors.New("boom")

	s := newTestStore(t)
	s.Funcs().Register("fail", FuncOf(func(...string) (string, error) {
		return "", errBoom
	}))

	_, err := s.Evaluate(t.Context(), "${@fail:a}")
	if !errors.Is(err, ErrFunctionFailed) {
		t.Errorf("expected ErrFunctionFailed, got %v", err)
	}

	if !errors.Is(err, errBoom) {
		t.Errorf("expected the function's error to be wrapped, got %v", err)
	}
}

func TestEvaluate_CyclicReference(t *testing.T) {
	s := NewStore(Bindings{
		"SELF": "${SELF}",
		"A":    "a ${B}",
		"B":    "b ${C}",
		"C":    "${A}",
	})

	tests := []struct {
		in    string
		chain []string
	}{
		{"${SELF}", []string{"SELF", "SELF"}},
		{"${A}", []string{"A", "B", "C", "A"}},
		{"${B}", []string{"B", "C", "A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := s.Evaluate(t.Context(), tt.in)

			var ce *CyclicReferenceError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CyclicReferenceError, got %T: %v", err, err)
			}

			if !errors.Is(err, ErrCyclicReference) {
				t.Error("expected error to match ErrCyclicReference")
			}

			if diff := cmp.Diff(tt.chain, ce.Chain); diff != "" {
				t.Errorf("chain mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := s.GetRaw(t.Context(), "SELF"); !errors.Is(err, ErrCyclicReference) {
		t.Errorf("expected GetRaw to detect the cycle, got %v", err)
	}
}

func TestEvaluate_RepeatedReferenceIsNotACycle(t *testing.T) {
	s := NewStore(Bindings{"A": "${B} ${B}", "B": "${C}", "C": "c"})

	got, err := s.Evaluate(t.Context(), "${A} ${A}")
	if err != nil {
		t.Fatal(err)
	}

	if got != "c c c c" {
		t.Errorf("expected 'c c c c', got %q", got)
	}
}

func TestEvaluate_MaxDepth(t *testing.T) {
	s := NewStore(Bindings{
		"D1": "${D2}",
		"D2": "${D3}",
		"D3": "${D4}",
		"D4": "deep",
	}, WithMaxDepth(3))

	if _, err := s.Evaluate(t.Context(), "${D1}"); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("expected ErrMaxDepthExceeded, got %v", err)
	}

	if v, err := s.Evaluate(t.Context(), "${D3}"); err != nil || v != "deep" {
		t.Errorf("expected 'deep' within the limit, got %q (%v)", v, err)
	}
}

func TestEvaluate_RecursiveFunction(t *testing.T) {
	s := newTestStore(t)
	s.Funcs().Register("loop", FuncOf(func(...string) (string, error) {
		return "${@loop}", nil
	}))

	if _, err := s.Evaluate(t.Context(), "${@loop}"); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Errorf("expected ErrMaxDepthExceeded, got %v", err)
	}
}

func TestEvaluate_MixedOperatorsWarning(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithLevel(log.LevelWarn),
		log.WithPretty(false),
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
	)

	s := newTestStore(t, WithLogger(logger))

	if _, err := s.Evaluate(t.Context(), "${ONE && ONE ? a}"); err != nil {
		t.Fatal(err)
	}

	if buf.Len() != 0 {
		t.Errorf("expected no warning for a single operator, got %s", buf.String())
	}

	if _, err := s.Evaluate(t.Context(), "${ZERO && ZERO || ONE ? a : b}"); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "mixed && and ||") {
		t.Errorf("expected a mixed operator warning, got %q", buf.String())
	}
}

func TestEvaluate_Scoping(t *testing.T) {
	s := newTestStore(t)

	before, err := s.Evaluate(t.Context(), "${ONE}")
	if err != nil {
		t.Fatal(err)
	}

	s.Push()
	s.Set("ONE", "changed")

	if v, _ := s.Evaluate(t.Context(), "${ONE}"); v != "changed" {
		t.Errorf("expected 'changed' inside scope, got %q", v)
	}

	if err := s.Pop(); err != nil {
		t.Fatal(err)
	}

	after, err := s.Evaluate(t.Context(), "${ONE}")
	if err != nil {
		t.Fatal(err)
	}

	if after != before {
		t.Errorf("expected %q after pop, got %q", before, after)
	}
}

func TestEvaluate_CanceledContext(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if _, err := s.Evaluate(ctx, "${A}"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
