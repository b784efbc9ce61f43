package cmd

import (
	"context"
	"fmt"
	"log/slog"
)

// Dump prints every binding in the variable store.
type Dump struct {
	Eval   bool   `help:"Evaluate each value before printing"         short:"e"`
	Format string `default:"text" enum:"text,json,yaml"               help:"Output format (${enum})"           short:"o"`
	Indent int    `default:"2"                                         help:"Indent width for json and yaml, 0 for compact" short:"i"`
}

// Run executes the dump command.
func (d *Dump) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	store, err := newStore(ctx)
	if err != nil {
		return err
	}

	stdout, stderr := writers(ctx)

	switch d.Format {
	case "json":
		err = store.FormatJSON(ctx, stdout, d.Eval, d.Indent)
	case "yaml":
		err = store.FormatYAML(ctx, stdout, d.Eval, d.Indent)
	default:
		err = store.Format(ctx, stdout, d.Eval)
	}

	if err != nil {
		if d.Eval {
			fmt.Fprint(stderr, Diagnostic(err))
		}

		return ErrDump.With(slog.String("format", d.Format)).Wrap(err)
	}

	return nil
}
