package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// LoadYAML reads a variable table from a YAML mapping. Each value is either
// a scalar, bound verbatim, or a sequence of terms; see [Store.UpdateMany].
func LoadYAML(ctx context.Context, r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrLoad.Wrap(err)
	}

	var table map[string]any
	if err := yaml.UnmarshalContext(ctx, data, &table); err != nil {
		return nil, ErrLoad.Wrap(err)
	}

	return table, nil
}

// Load reads a YAML variable table and applies it to the current scope.
func (s *Store) Load(ctx context.Context, r io.Reader) error {
	table, err := LoadYAML(ctx, r)
	if err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "load table", slog.Int("count", len(table)))

	return s.UpdateMany(table)
}

// Table returns a copy of the current bindings. If evaluated is true, each
// value is evaluated first and the first failure is returned.
func (s *Store) Table(ctx context.Context, evaluated bool) (Bindings, error) {
	table := make(Bindings, len(s.data))

	for name, raw := range s.data {
		if !evaluated {
			table[name] = raw

			continue
		}

		v, err := s.GetRaw(ctx, name)
		if err != nil {
			return nil, err
		}

		table[name] = v
	}

	return table, nil
}

// Format writes the bindings as "name == value" lines sorted by name.
func (s *Store) Format(ctx context.Context, w io.Writer, evaluated bool) error {
	if !evaluated {
		return s.Dump(w)
	}

	table, err := s.Table(ctx, evaluated)
	if err != nil {
		return err
	}

	var b strings.Builder

	for _, name := range slices.Sorted(maps.Keys(table)) {
		fmt.Fprintf(&b, "%s == %s\n", name, table[name])
	}

	_, err = io.WriteString(w, b.String())

	return err
}

// FormatJSON writes the bindings as a JSON object.
func (s *Store) FormatJSON(
	ctx context.Context,
	w io.Writer,
	evaluated bool,
	indent int,
) error {
	table, err := s.Table(ctx, evaluated)
	if err != nil {
		return err
	}

	var jsonData []byte

	if indent > 0 {
		jsonData, err = json.MarshalIndent(table, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(table)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the bindings as a YAML mapping. A zero indent selects
// flow style.
func (s *Store) FormatYAML(
	ctx context.Context,
	w io.Writer,
	evaluated bool,
	indent int,
) error {
	table, err := s.Table(ctx, evaluated)
	if err != nil {
		return err
	}

	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, map[string]string(table), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}
