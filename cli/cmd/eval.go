package cmd

import (
	"context"
	"fmt"
	"log/slog"
)

// Eval evaluates expression strings against the variable store.
type Eval struct {
	Expr []string `arg:"" help:"Expression(s) to evaluate, e.g. '$${CC} -o $${OUT}'" name:"expr"`
}

// Run executes the eval command. Each result is printed on its own line.
// Evaluation stops at the first failure, whose diagnostic is printed to
// stderr.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	store, err := newStore(ctx)
	if err != nil {
		return err
	}

	stdout, stderr := writers(ctx)

	for _, expr := range e.Expr {
		result, err := store.Evaluate(ctx, expr)
		if err != nil {
			fmt.Fprint(stderr, Diagnostic(err))

			return ErrEvaluate.With(slog.String("expr", expr)).Wrap(err)
		}

		fmt.Fprintln(stdout, result)
	}

	return nil
}
