package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/denv/lang"
	"github.com/ardnew/denv/log"
)

const defaultEditor = "vi"

// editTableCommand implements [tea.ExecCommand] for the edit-load-retry loop
// over the current scope's bindings. It writes them as YAML to a temp file,
// opens the user's editor, and loads the result. On a load error the user is
// prompted to re-edit; declining exits the program.
type editTableCommand struct {
	store   *lang.Store
	ctxFunc func() context.Context
	table   map[string]any
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editTableCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editTableCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editTableCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An emptied file cancels the edit and leaves
// table nil. If the user declines to re-edit, it returns [ErrEditDeclined].
func (c *editTableCommand) Run() error {
	ctx := c.ctxFunc()

	var buf bytes.Buffer
	if err := c.store.FormatYAML(ctx, &buf, false, 2); err != nil {
		return fmt.Errorf("format table: %w", err)
	}

	f, err := os.CreateTemp(os.TempDir(), "denv-repl-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	content := buf.Bytes()

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}

		table, loadErr := loadTable(ctx, data)
		c.logger.TraceContext(ctx, "editor load attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", loadErr == nil),
		)

		if loadErr == nil {
			c.table = table

			return nil
		}

		fmt.Fprintf(c.stderr, "\nLoad error: %s\n", loadErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = data
	}
}

// loadTable decodes an edited table and checks that every value can be bound.
func loadTable(ctx context.Context, data []byte) (map[string]any, error) {
	table, err := lang.LoadYAML(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if err := lang.NewStore(nil).UpdateMany(table); err != nil {
		return nil, err
	}

	if table == nil {
		table = map[string]any{}
	}

	return table, nil
}

// applyTable makes table the exact content of the store's current scope.
func applyTable(store *lang.Store, table map[string]any) error {
	if err := lang.NewStore(nil).UpdateMany(table); err != nil {
		return err
	}

	for _, name := range store.Names() {
		if _, ok := table[name]; !ok {
			store.Unset(name)
		}
	}

	return store.UpdateMany(table)
}

// runEditor launches the user's editor on the given file path and returns
// the edited content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) ([]byte, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
