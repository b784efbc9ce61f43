package cmd

import (
	"context"

	"github.com/ardnew/denv/cli/cmd/repl"
	"github.com/ardnew/denv/log"
)

// Repl starts an interactive evaluation session.
type Repl struct {
	NoHistory bool `help:"Do not read or write the history file"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	store, err := newStore(ctx)
	if err != nil {
		return err
	}

	cacheDir, ok := kongVar(ctx, CacheIdentifier)
	if !ok || r.NoHistory {
		cacheDir = ""
	}

	err = repl.Run(ctx, store, cacheDir, log.Default())
	if err != nil {
		return ErrRepl.Wrap(err)
	}

	return nil
}
