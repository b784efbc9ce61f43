package lang

// This file defines the host functions registered by [WithBuiltins].
// Every function receives the raw colon-separated arguments of its call
// site and returns text that is evaluated again. Predicates return "1" or
// "0" so their results can be bound and used in boolean positions.
//
// Builtins never replace a function of the same name that was already
// registered by the caller.

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
)

// MaxBaseDirDepth limits how many parent directories basedir examines.
const MaxBaseDirDepth = 16

var errArgCount = errors.New("wrong number of arguments")

// WithBuiltins registers the host builtins in the store's registry once all
// other options have been applied.
func WithBuiltins() Option {
	return func(s *Store) {
		s.builtins = true
	}
}

// BuiltinNames lists the functions registered by [WithBuiltins].
func BuiltinNames() []string {
	return slices.Sorted(maps.Keys(builtins(nil)))
}

func registerBuiltins(s *Store) {
	for name, fn := range builtins(s) {
		if _, ok := s.funcs.Lookup(name); !ok {
			s.funcs.Register(name, fn)
		}
	}
}

func builtins(s *Store) map[string]Func {
	return map[string]Func{
		// System information.
		"os":       constant(func() string { return getTarget().OS }),
		"arch":     constant(func() string { return getTarget().Arch }),
		"goos":     constant(func() string { return getPlatform().OS }),
		"goarch":   constant(func() string { return getPlatform().Arch }),
		"hostname": constant(getHostname),
		"user":     constant(getUsername),
		"shell":    constant(getShell),
		"cwd":      constant(getCwd),
		"env":      FuncOf(envLookup),
		"basedir":  FuncOf(baseDir),

		// Path manipulation.
		"abs":  unary(pathAbs),
		"join": FuncOf(func(args ...string) (string, error) { return pathCat(args...), nil }),
		"rel":  binary(pathRel),

		// Filesystem predicates.
		"exists":    predicate(fileExists),
		"isdir":     predicate(fileIsDir),
		"isfile":    predicate(fileIsRegular),
		"issymlink": predicate(fileIsSymlink),

		// PATH-like list manipulation.
		"prefix": FuncOf(func(args ...string) (string, error) {
			return mungPrefix(s, nil, args...)
		}),
		"prefixif": FuncOf(func(args ...string) (string, error) {
			return mungPrefix(s, fileExists, args...)
		}),

		// expr-lang expressions over the store.
		"expr": FuncOf(func(args ...string) (string, error) {
			return evalExpr(s, strings.Join(args, ":"))
		}),
	}
}

func constant(fn func() string) Func {
	return FuncOf(func(args ...string) (string, error) {
		if len(args) != 0 {
			return "", errArgCount
		}

		return fn(), nil
	})
}

func unary(fn func(string) string) Func {
	return FuncOf(func(args ...string) (string, error) {
		if len(args) != 1 {
			return "", errArgCount
		}

		return fn(args[0]), nil
	})
}

func binary(fn func(string, string) string) Func {
	return FuncOf(func(args ...string) (string, error) {
		if len(args) != 2 {
			return "", errArgCount
		}

		return fn(args[0], args[1]), nil
	})
}

func predicate(fn func(string) bool) Func {
	return unary(func(path string) string { return boolString(fn(path)) })
}

// ---------------------------------------------------------------------------
// System information helpers
// ---------------------------------------------------------------------------

// target contains string identifiers for a target operating system and
// instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm":
		arm, ok := os.LookupEnv("GOARM")
		if ok {
			arm, _, _ = strings.Cut(arm, ",")
			switch strings.TrimSpace(arm) {
			case "5", "6", "7":
				t.Arch = "armv" + arm
			}
		}
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions, preferring
// GOHOSTOS/GOHOSTARCH and then GOOS/GOARCH from the process environment.
func getPlatform() target {
	var (
		o, a string
		ok   bool
	)

	if o, ok = os.LookupEnv("GOHOSTOS"); !ok {
		if o, ok = os.LookupEnv("GOOS"); !ok {
			o = runtime.GOOS
		}
	}

	if a, ok = os.LookupEnv("GOHOSTARCH"); !ok {
		if a, ok = os.LookupEnv("GOARCH"); !ok {
			a = runtime.GOARCH
		}
	}

	return target{OS: o, Arch: a}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}

	return u.Username
}

func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	name := getUsername()
	if name == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == name {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

// envLookup returns the process environment variable named by the first
// argument, or the optional second argument if it is unset.
func envLookup(args ...string) (string, error) {
	switch len(args) {
	case 1:
		return os.Getenv(args[0]), nil
	case 2:
		if v, ok := os.LookupEnv(args[0]); ok {
			return v, nil
		}

		return args[1], nil
	}

	return "", errArgCount
}

// baseDir walks up from the executable's directory, then from the working
// directory, looking for a directory with the given base name. It examines
// at most [MaxBaseDirDepth] parents from each start and returns the empty
// string if none matches.
func baseDir(args ...string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", errArgCount
	}

	var starts []string

	if exe, err := os.Executable(); err == nil {
		if exe, err = filepath.EvalSymlinks(exe); err == nil {
			starts = append(starts, filepath.Dir(exe))
		}
	}

	starts = append(starts, getCwd())

	for _, dir := range starts {
		if found, ok := findBaseDir(dir, args[0]); ok {
			return found, nil
		}
	}

	return "", nil
}

func findBaseDir(dir, name string) (string, bool) {
	for range MaxBaseDirDepth + 1 {
		if filepath.Base(dir) == name {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return "", false
}

// ---------------------------------------------------------------------------
// Filesystem and path helpers
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeSymlink != 0
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// ---------------------------------------------------------------------------
// PATH-like string manipulation (mung)
// ---------------------------------------------------------------------------

// listValue returns the PATH-like list named by name: the evaluated store
// variable if it is bound, otherwise the process environment variable.
func listValue(s *Store, name string) (string, error) {
	if s != nil && s.Has(name) {
		return s.resolve(name)
	}

	return os.Getenv(name), nil
}

// mungPrefix prepends items to the list named by the first argument,
// removing duplicates. Lists use the OS path list separator. If keep is not
// nil, only items it accepts are retained.
func mungPrefix(s *Store, keep func(string) bool, args ...string) (string, error) {
	if len(args) < 1 {
		return "", errArgCount
	}

	list, err := listValue(s, args[0])
	if err != nil {
		return "", err
	}

	if keep == nil {
		return mung.Make(
			mung.WithSubjectItems(list),
			mung.WithDelim(string(os.PathListSeparator)),
			mung.WithPrefixItems(args[1:]...),
		).String(), nil
	}

	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(args[1:]...),
		mung.WithFilter(keep),
	).String(), nil
}

// ---------------------------------------------------------------------------
// expr-lang expressions
// ---------------------------------------------------------------------------

// evalExpr runs an expr-lang expression. The environment exposes the
// store through value, bound and enabled, the process environment through env,
// and the host target through os and arch. A boolean result is rendered as
// "1" or "0".
func evalExpr(s *Store, source string) (string, error) {
	if s == nil {
		return "", ErrInvalidValueType.With(slog.String("source", source))
	}

	env := map[string]any{
		"value": func(name string) (string, error) { return s.resolve(name) },
		"bound": s.Has,
		"enabled": func(name string) (bool, error) {
			v, err := s.resolve(name)
			if err != nil {
				return false, err
			}

			switch v {
			case "0":
				return false, nil
			case "1":
				return true, nil
			}

			return false, ErrNotBoolean.With(
				slog.String("name", name),
				slog.String("value", v),
			)
		},
		"env":  os.Getenv,
		"os":   getTarget().OS,
		"arch": getTarget().Arch,
	}

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return "", err
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return "", err
	}

	switch v := out.(type) {
	case nil:
		return "", nil
	case bool:
		return boolString(v), nil
	case string:
		return v, nil
	default:
		return fmt.Sprint(v), nil
	}
}
