package lang

import (
	"maps"
	"slices"
)

// Func is a host function invoked by a call block such as ${@name:a:b}.
//
// Arguments are the raw colon-separated text of the call site; they are not
// evaluated first. The returned string is evaluated again before it is
// substituted, so a function may return text containing further blocks.
type Func interface {
	Call(args []string) (string, error)
}

// FuncOf adapts an ordinary function to the [Func] interface.
type FuncOf func(args ...string) (string, error)

// Call implements [Func].
func (f FuncOf) Call(args []string) (string, error) { return f(args...) }

// Registry maps function names to host functions.
// Names are matched exactly.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry returns a registry containing the given functions.
func NewRegistry(funcs map[string]Func) *Registry {
	r := &Registry{funcs: make(map[string]Func, len(funcs))}
	maps.Copy(r.funcs, funcs)

	return r
}

// Register adds or replaces the function bound to name.
func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

// Lookup returns the function bound to name.
func (r *Registry) Lookup(name string) (Func, bool) {
	if r == nil {
		return nil, false
	}

	fn, ok := r.funcs[name]

	return fn, ok
}

// Names returns the registered function names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(r.funcs))
}
