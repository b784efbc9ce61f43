package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/google/go-cmp/cmp"
)

type resolverCLI struct {
	LogLevel  string   `default:"info"`
	LogCaller bool     `default:"false"`
	MaxDepth  int      `default:"100"`
	File      []string `short:"f"`
}

func parseWithConfig(t *testing.T, content string, args ...string) resolverCLI {
	t.Helper()

	path := filepath.Join(t.TempDir(), baseConfig+configExt)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	var cli resolverCLI

	parser, err := kong.New(&cli,
		kong.Exit(func(code int) { t.Fatalf("unexpected exit(%d)", code) }),
		kong.Configuration(resolve(t.Context(), baseConfig), path),
	)
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}

	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse(%q): %v", args, err)
	}

	return cli
}

func TestResolveNestedMapping(t *testing.T) {
	cli := parseWithConfig(t, strings.Join([]string{
		"config:",
		"  log-level: debug",
		"  log_caller: true",
		"  max-depth: 50",
		"  file: [a.yaml, b.yaml]",
	}, "\n"))

	want := resolverCLI{
		LogLevel:  "debug",
		LogCaller: true,
		MaxDepth:  50,
		File:      []string{"a.yaml", "b.yaml"},
	}
	if diff := cmp.Diff(want, cli); diff != "" {
		t.Errorf("resolved flags mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveTopLevel(t *testing.T) {
	cli := parseWithConfig(t, "log_level: warn\nmax_depth: 7\n")

	if cli.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want %q", cli.LogLevel, "warn")
	}

	if cli.MaxDepth != 7 {
		t.Errorf("MaxDepth = %d, want 7", cli.MaxDepth)
	}
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	cli := parseWithConfig(t, "config:\n  log-level: debug\n", "--log-level=error")

	if cli.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want %q", cli.LogLevel, "error")
	}
}

func TestResolveInvalidDocument(t *testing.T) {
	cli := parseWithConfig(t, "config: [unterminated\n")

	if cli.LogLevel != "info" || cli.MaxDepth != 100 {
		t.Errorf("expected defaults, got %+v", cli)
	}
}

func TestConfigResolveMissing(t *testing.T) {
	r := config{"other": 1}

	v, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "log-level"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if v != nil {
		t.Errorf("Resolve = %v, want nil", v)
	}
}

func TestFlagValue(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{uint64(3), "3"},
		{int64(-2), "-2"},
		{1.5, "1.5"},
		{"text", "text"},
		{true, true},
		{[]any{uint64(1), "x"}, []any{"1", "x"}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, flagValue(tt.in)); diff != "" {
			t.Errorf("flagValue(%#v) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}
