package lang

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/edwingeng/deque"

	"github.com/ardnew/denv/lang/shell"
	"github.com/ardnew/denv/log"
)

// DefaultMaxDepth is the default limit on nested evaluations (variable
// lookups and call results) within a single [Store.Evaluate].
// Users may modify this before creating a store to change the default.
var DefaultMaxDepth = 100

// Bindings maps variable names to raw, unevaluated values.
type Bindings map[string]string

// Store holds the current variable bindings and a stack of saved scopes.
//
// All reads evaluate the raw value, so indirection through other variables
// and function calls is always resolved. A Store is not safe for concurrent
// use.
type Store struct {
	defaults Bindings
	data     Bindings
	stack    deque.Deque // saved Bindings snapshots, top at the back

	funcs    *Registry
	builtins bool
	lazy     bool
	logger   log.Logger
	maxDepth int

	active *evaluator // evaluation calling a host function, if any
}

// Option configures a [Store].
type Option func(*Store)

// WithFuncs sets the registry used to resolve call blocks.
func WithFuncs(funcs *Registry) Option {
	return func(s *Store) {
		s.funcs = funcs
	}
}

// WithMaxDepth sets the maximum evaluation depth.
func WithMaxDepth(depth int) Option {
	return func(s *Store) {
		s.maxDepth = depth
	}
}

// WithLazyBranches skips evaluation of the ternary branch that is not
// selected, so undefined names and host calls inside it are never resolved.
// By default both branches are evaluated and any error in either is
// reported.
func WithLazyBranches(enable bool) Option {
	return func(s *Store) {
		s.lazy = enable
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore returns a store seeded with a copy of defaults.
func NewStore(defaults Bindings, opts ...Option) *Store {
	s := &Store{
		defaults: maps.Clone(defaults),
		stack:    deque.NewDeque(),
		funcs:    NewRegistry(nil),
		maxDepth: DefaultMaxDepth,
	}

	if s.defaults == nil {
		s.defaults = Bindings{}
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.funcs == nil {
		s.funcs = NewRegistry(nil)
	}

	if s.builtins {
		registerBuiltins(s)
	}

	s.data = maps.Clone(s.defaults)

	return s
}

// Funcs returns the store's function registry.
func (s *Store) Funcs() *Registry { return s.funcs }

// Reset restores the default bindings and discards every saved scope.
func (s *Store) Reset() {
	s.data = maps.Clone(s.defaults)
	s.stack = deque.NewDeque()
}

// Has reports whether name is bound.
func (s *Store) Has(name string) bool {
	_, ok := s.data[name]

	return ok
}

// Raw returns the unevaluated value bound to name.
func (s *Store) Raw(name string) (string, bool) {
	v, ok := s.data[name]

	return v, ok
}

// Names returns the bound names in sorted order.
func (s *Store) Names() []string { return slices.Sorted(maps.Keys(s.data)) }

// SetRaw binds name to value verbatim.
func (s *Store) SetRaw(name, value string) {
	s.data[name] = value
}

// Clear binds name to the empty string. The name remains bound.
func (s *Store) Clear(name string) {
	s.data[name] = ""
}

// Unset removes name from the current scope. Outer scopes saved by
// [Store.Push] are unaffected.
func (s *Store) Unset(name string) { delete(s.data, name) }

// Set binds name to the shell-escaped values joined by single spaces.
func (s *Store) Set(name string, values ...string) {
	s.data[name] = shell.Join(values)
}

// Append adds the shell-escaped values to the end of name's raw value,
// separated from any existing content by a single space.
func (s *Store) Append(name string, values ...string) {
	v := shell.Join(values)
	if cur := s.data[name]; cur != "" {
		v = cur + " " + v
	}

	s.data[name] = v
}

// SetBool binds name to "1" or "0".
func (s *Store) SetBool(name string, flag bool) {
	s.Set(name, boolString(flag))
}

// UpdateMany applies each assignment in m. A string value is bound verbatim
// as with [Store.SetRaw]; a list of terms is bound as with [Store.Set].
// Numbers are bound verbatim in their decimal form, booleans as "1" or "0"
// and nil as the empty string. Values of any other type are rejected and no assignment is made.
func (s *Store) UpdateMany(m map[string]any) error {
	var (
		raw   = make(Bindings, len(m))
		terms = make(map[string][]string)
	)

	for name, value := range m {
		switch v := value.(type) {
		case nil:
			raw[name] = ""
		case string:
			raw[name] = v
		case bool:
			raw[name] = boolString(v)
		case int, int64, uint64, float64:
			raw[name] = fmt.Sprint(v)
		case []string:
			terms[name] = v
		case []any:
			list := make([]string, len(v))
			for i, item := range v {
				list[i] = fmt.Sprint(item)
			}

			terms[name] = list
		default:
			return ErrInvalidValueType.With(
				slog.String("name", name),
				slog.String("type", fmt.Sprintf("%T", value)),
			)
		}
	}

	maps.Copy(s.data, raw)

	for name, list := range terms {
		s.Set(name, list...)
	}

	return nil
}

func boolString(flag bool) string {
	if flag {
		return "1"
	}

	return "0"
}

// Push saves a snapshot of the current bindings. Changes made until the
// matching [Store.Pop] are discarded by it.
func (s *Store) Push() {
	s.stack.PushBack(s.data)
	s.data = maps.Clone(s.data)

	s.logger.Trace("scope push", slog.Int("depth", s.stack.Len()))
}

// Pop restores the bindings saved by the most recent [Store.Push].
// It returns [ErrScopeUnderflow] if no scope was pushed.
func (s *Store) Pop() error {
	if s.stack.Empty() {
		return ErrScopeUnderflow
	}

	s.data, _ = s.stack.PopBack().(Bindings)

	s.logger.Trace("scope pop", slog.Int("depth", s.stack.Len()))

	return nil
}

// Depth returns the number of saved scopes.
func (s *Store) Depth() int { return s.stack.Len() }

// Scoped runs fn inside a new scope, discarding its changes afterwards.
func (s *Store) Scoped(fn func(*Store) error) error {
	s.Push()

	err := fn(s)
	if perr := s.Pop(); err == nil {
		err = perr
	}

	return err
}

// GetRaw returns the evaluated value of name.
// It fails with [ErrUndefinedVariable] if name is not bound.
func (s *Store) GetRaw(ctx context.Context, name string) (string, error) {
	raw, ok := s.data[name]
	if !ok {
		return "", ErrUndefinedVariable.With(slog.String("name", name))
	}

	e := s.evaluator(ctx)
	e.chain = append(e.chain, name)

	return e.eval(raw)
}

// resolve evaluates name as part of the evaluation that is calling a host
// function, so nested reads share its cycle detection and depth limit.
func (s *Store) resolve(name string) (string, error) {
	if e := s.active; e != nil {
		return e.lookup(name, Span{Source: name, End: max(len(name)-1, 0)})
	}

	return s.GetRaw(context.Background(), name)
}

// Get returns the evaluated value of name split into shell words.
func (s *Store) Get(ctx context.Context, name string) ([]string, error) {
	v, err := s.GetRaw(ctx, name)
	if err != nil {
		return nil, err
	}

	words, err := shell.Split(v)
	if err != nil {
		return nil, WrapError(err).With(slog.String("name", name))
	}

	return words, nil
}

// GetOne returns the evaluated value of name with shell quoting removed.
func (s *Store) GetOne(ctx context.Context, name string) (string, error) {
	v, err := s.GetRaw(ctx, name)
	if err != nil {
		return "", err
	}

	one, err := shell.Unescape(v)
	if err != nil {
		return "", WrapError(err).With(slog.String("name", name))
	}

	return one, nil
}

// GetBool returns the evaluated value of name, which must be "0" or "1".
func (s *Store) GetBool(ctx context.Context, name string) (bool, error) {
	v, err := s.GetOne(ctx, name)
	if err != nil {
		return false, err
	}

	switch v {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}

	return false, &ParseError{
		Span: Span{Source: v, Start: 0, End: len(v) - 1},
		Reason: ErrNotBoolean.With(
			slog.String("name", name),
			slog.String("value", v),
		),
		Detail: name + " evaluated to " + strconv.Quote(v),
	}
}

// Evaluate replaces every ${...} block in str with its computed value.
func (s *Store) Evaluate(ctx context.Context, str string) (string, error) {
	s.logger.TraceContext(ctx, "evaluate", slog.String("source", str))

	return s.evaluator(ctx).eval(str)
}

// Eval is shorthand for [Store.Evaluate].
func (s *Store) Eval(ctx context.Context, str string) (string, error) {
	return s.Evaluate(ctx, str)
}

// Dump writes one "name == raw" line per binding, sorted by name.
func (s *Store) Dump(w io.Writer) error {
	var b strings.Builder

	for _, name := range s.Names() {
		b.WriteString(name)
		b.WriteString(" == ")
		b.WriteString(s.data[name])
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())

	return err
}
