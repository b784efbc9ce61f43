package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrUndefinedVariable = NewError("undefined variable")
	ErrUnterminatedBlock = NewError("unterminated ${")
	ErrUnterminatedName  = NewError("unterminated %")
	ErrUnexpectedToken   = NewError("unexpected token")
	ErrNotBoolean        = NewError("value is not a boolean")
	ErrLengthEquality    = NewError("cannot combine == and #")
	ErrUnknownFunction   = NewError("unknown function")
	ErrFunctionFailed    = NewError("function call failed")
	ErrCyclicReference   = NewError("cyclic variable reference")
	ErrMaxDepthExceeded  = NewError("maximum evaluation depth exceeded")
	ErrScopeUnderflow    = NewError("scope stack is empty")
	ErrIncomplete        = NewError("evaluation stopped before end of input")
	ErrInvalidValueType  = NewError("invalid value type")
	ErrLoad              = NewError("failed to load variable table")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
//
// Errors derived from a sentinel with [Error.With] or [Error.Wrap] still
// match that sentinel with errors.Is.
type Error struct {
	kind  *Error
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	e := &Error{err: err}
	e.kind = e

	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	// "<msg>: <err>", "<msg>", "<err>", or "" depending on which are set.
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.kind != nil && t.kind == e.kind
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Attrs returns the structured attributes attached to the error.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		kind:  e.kind,
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		kind:  e.kind,
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// Span identifies an inclusive byte range of the string being evaluated.
type Span struct {
	Source     string
	Start, End int
}

// Snippet renders the two-line caret diagnostic for the span:
//
//	${UNDEFINED}
//	^^^^^^^^^^^^
//
// The caret line may extend one column past the end of the source when the
// error is an unexpected end of input.
func (s Span) Snippet() string {
	start := max(s.Start, 0)
	end := max(s.End, start)

	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(s.Source)
	b.WriteString("\n  ")
	b.WriteString(strings.Repeat(" ", start))
	b.WriteString(strings.Repeat("^", end-start+1))

	return b.String()
}

func (s Span) attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("source", s.Source),
		slog.Int("start", s.Start),
		slog.Int("end", s.End),
	}
}

// ParseError reports malformed input: an unterminated block, an undefined
// variable, a non-boolean operand or invalid operator syntax.
//
// Reason is one of the sentinel errors (possibly refined with attributes),
// so callers can test the cause with errors.Is.
type ParseError struct {
	Span

	Reason error
	Detail string

	// Suggestions lists bound names close to an undefined one.
	Suggestions []string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var b strings.Builder

	b.WriteString("parse error: ")
	b.WriteString(e.Reason.Error())

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if len(e.Suggestions) > 0 {
		b.WriteString(" (did you mean ")
		b.WriteString(strings.Join(e.Suggestions, ", "))
		b.WriteString("?)")
	}

	b.WriteByte('\n')
	b.WriteString(e.Snippet())

	return b.String()
}

// Unwrap returns the reason.
func (e *ParseError) Unwrap() error { return e.Reason }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	attrs := append(e.attrs(), slog.Any("reason", e.Reason))
	if e.Detail != "" {
		attrs = append(attrs, slog.String("detail", e.Detail))
	}

	if len(e.Suggestions) > 0 {
		attrs = append(attrs, slog.Any("suggestions", e.Suggestions))
	}

	return slog.GroupValue(attrs...)
}

// HostLookupError reports a call to a function that is not registered.
// It is a host configuration problem rather than a grammar violation.
type HostLookupError struct {
	Span

	Name string
}

// Error implements the error interface.
func (e *HostLookupError) Error() string {
	return fmt.Sprintf("%s %q\n%s", ErrUnknownFunction.msg, e.Name, e.Snippet())
}

// Unwrap returns [ErrUnknownFunction].
func (e *HostLookupError) Unwrap() error { return ErrUnknownFunction }

// LogValue implements slog.LogValuer.
func (e *HostLookupError) LogValue() slog.Value {
	return slog.GroupValue(append(e.attrs(), slog.String("function", e.Name))...)
}

// CyclicReferenceError reports a variable whose evaluation depends on itself.
// Chain lists the variables being resolved, ending with the repeated name.
type CyclicReferenceError struct {
	Span

	Chain []string
}

// Error implements the error interface.
func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("%s: %s\n%s",
		ErrCyclicReference.msg, strings.Join(e.Chain, " -> "), e.Snippet())
}

// Unwrap returns [ErrCyclicReference].
func (e *CyclicReferenceError) Unwrap() error { return ErrCyclicReference }

// LogValue implements slog.LogValuer.
func (e *CyclicReferenceError) LogValue() slog.Value {
	return slog.GroupValue(append(e.attrs(), slog.Any("chain", e.Chain))...)
}
