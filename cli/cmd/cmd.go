package cmd

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/denv/lang"
	"github.com/ardnew/denv/log"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// writers returns the output streams of the running kong application, or the
// process streams when there is none.
func writers(ctx context.Context) (stdout, stderr io.Writer) {
	if ktx := kongContextFrom(ctx); ktx != nil && ktx.Kong != nil {
		return ktx.Stdout, ktx.Stderr
	}

	return os.Stdout, os.Stderr
}

// kongVar returns the kong variable named key, if defined.
func kongVar(ctx context.Context, key string) (string, bool) {
	ktx := kongContextFrom(ctx)
	if ktx == nil || ktx.Model == nil {
		return "", false
	}

	v, ok := ktx.Model.Vars()[key]

	return v, ok
}

// Env holds the flags that select the variables available to every command.
type Env struct {
	File     []string          `help:"Variable table file(s) (YAML) or '-' for stdin" placeholder:"PATH"       short:"f"`
	Set      map[string]string `help:"Bind NAME to VALUE verbatim after loading"      placeholder:"NAME=VALUE" short:"D" mapsep:"none"`
	MaxDepth int               `default:"${maxDepth}"                                  help:"Maximum nested evaluation depth"`
}

// Vars returns the kong variables referenced by the [Env] flags.
func (Env) Vars() kong.Vars {
	return kong.Vars{"maxDepth": strconv.Itoa(lang.DefaultMaxDepth)}
}

type envKey struct{}

// WithEnv returns a new context.Context containing env.
func WithEnv(ctx context.Context, env Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

func envFrom(ctx context.Context) Env {
	env, ok := ctx.Value(envKey{}).(Env)
	if !ok {
		env.MaxDepth = lang.DefaultMaxDepth
	}

	return env
}

// newStore builds the variable store described by the [Env] in ctx.
func newStore(ctx context.Context) (*lang.Store, error) {
	env := envFrom(ctx)

	store := lang.NewStore(nil,
		lang.WithBuiltins(),
		lang.WithMaxDepth(env.MaxDepth),
		lang.WithLogger(log.Default()),
	)

	tables, err := openTables(env.File)
	if err != nil {
		return nil, err
	}

	defer tables.Close()

	for _, t := range tables {
		if err := store.Load(ctx, t); err != nil {
			return nil, ErrLoadTable.With(slog.String("file", t.name)).Wrap(err)
		}

		log.DebugContext(ctx, "table loaded", slog.String("file", t.name))
	}

	for _, name := range slices.Sorted(maps.Keys(env.Set)) {
		store.SetRaw(name, env.Set[name])
	}

	return store, nil
}

// table is an open variable table source.
type table struct {
	io.Reader

	name   string
	closer io.Closer
}

type tableList []table

// Close closes every table opened from a regular file.
func (l tableList) Close() {
	for _, t := range l {
		if t.closer != nil {
			_ = t.closer.Close()
		}
	}
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// openTables opens the table files named by paths in order. A file named more
// than once, through any path or symlink, is loaded only at its first
// position. All occurrences of "-" collapse into a single stdin table that
// is loaded last, after every regular file.
func openTables(paths []string) (tables tableList, err error) {
	defer func() {
		if err != nil {
			tables.Close()
			tables = nil
		}
	}()

	seen := make(map[fileKey]struct{})

	var (
		stdinKey fileKey
		hasStdin bool
	)

	if info, err := os.Stdin.Stat(); err == nil {
		stdinKey, hasStdin = makeFileKey(info)
	}

	for _, path := range paths {
		if path == stdinSource {
			seen[stdinKey] = struct{}{}

			continue
		}

		file, key, err := openUniqueFile(path, seen)
		if err != nil {
			return tables, ErrLoadTable.With(slog.String("file", path)).Wrap(err)
		}

		// Stdin named through its device path joins the "-" table.
		if file == nil || (hasStdin && key == stdinKey) {
			if file != nil {
				_ = file.Close()
			}

			continue
		}

		tables = append(tables, table{Reader: file, name: path, closer: file})
	}

	if _, ok := seen[stdinKey]; ok {
		tables = append(tables, table{Reader: os.Stdin, name: stdinSource})
	}

	return tables, nil
}

// openUniqueFile opens the file at path unless a file with the same device
// and inode was already seen. It returns a nil file for duplicates.
func openUniqueFile(
	path string,
	seen map[fileKey]struct{},
) (*os.File, fileKey, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, fileKey{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fileKey{}, err
	}

	key, ok := makeFileKey(info)
	if ok {
		if _, exists := seen[key]; exists {
			return nil, key, nil
		}

		seen[key] = struct{}{}
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, key, err
	}

	return file, key, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
