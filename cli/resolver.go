package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/denv/log"
)

// resolve returns a [kong.ConfigurationLoader] that reads flag values from a
// YAML document.
//
// Flag values are read from the mapping under key name if the document has
// one, otherwise from the top-level mapping:
//
//	config:
//	  log-level: debug
//	  log_pretty: false
//	  max-depth: 50
//	  file: [base.yaml, local.yaml]
//
// Keys may spell flag names with hyphens or underscores. Command-line flags
// override values from the file. A document that cannot be parsed is logged
// and ignored so that a broken config file never blocks the CLI.
func resolve(
	ctx context.Context,
	name string,
) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}

		var doc map[string]any

		err = yaml.UnmarshalContext(ctx, data, &doc)
		if err != nil {
			log.WarnContext(ctx, "ignoring invalid configuration",
				slog.Any("error", err))

			return config{}, nil
		}

		if sub, ok := doc[name].(map[string]any); ok {
			doc = sub
		}

		return config(doc), nil
	}
}

// config implements [kong.Resolver] over a decoded YAML mapping.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	for _, key := range []string{
		flag.Name,
		strings.ReplaceAll(flag.Name, "-", "_"),
	} {
		if value, ok := r[key]; ok {
			return flagValue(value), nil
		}
	}

	return nil, nil
}

// flagValue converts a decoded YAML value into a form kong can map onto a
// flag. Kong parses numbers from strings, and sequences element-wise.
func flagValue(v any) any {
	switch v := v.(type) {
	case uint64, int64, int, float64:
		return fmt.Sprint(v)

	case []any:
		elems := make([]any, len(v))
		for i, e := range v {
			elems[i] = flagValue(e)
		}

		return elems

	default:
		return v
	}
}
