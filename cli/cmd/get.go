package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Get prints the evaluated value of a single variable.
type Get struct {
	Name string `arg:"" help:"Variable name" name:"name"`

	Split bool `help:"Print each shell word of the value on its own line" xor:"mode"`
	One   bool `help:"Remove shell quoting from the value"                 xor:"mode"`
	Bool  bool `help:"Interpret the value as a boolean (0 or 1)"          xor:"mode"`
}

// Run executes the get command.
func (g *Get) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	store, err := newStore(ctx)
	if err != nil {
		return err
	}

	stdout, stderr := writers(ctx)

	var lines []string

	switch {
	case g.Split:
		lines, err = store.Get(ctx, g.Name)

	case g.One:
		var v string

		v, err = store.GetOne(ctx, g.Name)
		lines = []string{v}

	case g.Bool:
		var b bool

		b, err = store.GetBool(ctx, g.Name)
		lines = []string{strconv.FormatBool(b)}

	default:
		var v string

		v, err = store.GetRaw(ctx, g.Name)
		lines = []string{v}
	}

	if err != nil {
		fmt.Fprint(stderr, Diagnostic(err))

		return ErrEvaluate.With(slog.String("name", g.Name)).Wrap(err)
	}

	for _, line := range lines {
		fmt.Fprintln(stdout, line)
	}

	return nil
}
