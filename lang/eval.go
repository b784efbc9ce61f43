package lang

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// evaluator carries the state of one top-level evaluation through the
// recursive productions. Each production receives the source string, a
// start offset and the terminators inherited from its caller, and returns
// its result with the offset where it stopped.
type evaluator struct {
	ctx   context.Context
	store *Store

	chain []string // variables being resolved, outermost first
	depth int      // nested evaluations in progress
	skip  int      // >0 while skipping an untaken branch of a lazy store
}

type boolOps uint8

const (
	opAnd boolOps = 1 << iota
	opOr
)

var (
	closeBlock = []string{"}"}
	closeName  = []string{"%"}
)

func (s *Store) evaluator(ctx context.Context) *evaluator {
	if ctx == nil {
		ctx = context.Background()
	}

	return &evaluator{ctx: ctx, store: s}
}

func skipSpace(src string, pos int) int {
	for pos < len(src) && (src[pos] == ' ' || src[pos] == '\t') {
		pos++
	}

	return pos
}

func (e *evaluator) fail(src string, start, end int, reason error, detail string) *ParseError {
	return &ParseError{
		Span:   Span{Source: src, Start: start, End: end},
		Reason: reason,
		Detail: detail,
	}
}

// eval evaluates src in full.
func (e *evaluator) eval(src string) (string, error) {
	if err := e.ctx.Err(); err != nil {
		return "", err
	}

	e.depth++
	defer func() { e.depth-- }()

	if e.store.maxDepth > 0 && e.depth > e.store.maxDepth {
		return "", ErrMaxDepthExceeded.With(
			slog.Int("max_depth", e.store.maxDepth),
			slog.String("source", src),
			slog.Any("chain", slices.Clone(e.chain)),
		)
	}

	out, pos, err := e.expr(src, 0, nil)
	if err != nil {
		return "", err
	}

	if pos != len(src) {
		return "", ErrIncomplete.With(
			slog.String("source", src),
			slog.Int("offset", pos),
		)
	}

	return out, nil
}

// expr copies literal text up to the next terminator, substituting each
// ${...} block found along the way.
func (e *evaluator) expr(src string, pos int, terms []string) (string, int, error) {
	var out strings.Builder

	markers := terminators(terms, "${")

	for {
		m, i := FindFirst(src, pos, markers...)
		out.WriteString(src[pos:i])

		if m != "${" {
			return out.String(), i, nil
		}

		v, j, err := e.bracket(src, i, i+2, closeBlock)
		if err != nil {
			return "", j, err
		}

		if j >= len(src) || src[j] != '}' {
			return "", j, e.fail(src, i, j, ErrUnterminatedBlock, "")
		}

		out.WriteString(v)

		pos = j + 1
	}
}

// bracket evaluates the content of a ${...} or %...% block starting at pos.
// The block itself opens at offset open.
func (e *evaluator) bracket(src string, open, pos int, terms []string) (string, int, error) {
	pos = skipSpace(src, pos)

	if pos < len(src) && src[pos] == '@' {
		return e.call(src, open, pos, terms)
	}

	if m, _ := FindFirst(src, pos, terminators(terms, "?")...); m == "?" {
		return e.ternary(src, pos, terms)
	}

	name, j, err := e.varname(src, pos, terms)
	if err != nil || j >= len(src) {
		// the caller reports the missing terminator
		return "", j, err
	}

	v, err := e.lookup(name, Span{Source: src, Start: open, End: j})

	return v, j, err
}

// varname assembles a variable name from literal text and %...% blocks.
func (e *evaluator) varname(src string, pos int, terms []string) (string, int, error) {
	var name strings.Builder

	markers := terminators(terms, "%")

	for {
		m, i := FindFirst(src, pos, markers...)
		name.WriteString(src[pos:i])

		if m == "" || slices.Contains(terms, m) {
			return strings.TrimSpace(name.String()), i, nil
		}

		part, j, err := e.bracket(src, i, i+1, closeName)
		if err != nil {
			return "", j, err
		}

		if j >= len(src) || src[j] != '%' {
			return "", j, e.fail(src, i, j, ErrUnterminatedName, "")
		}

		name.WriteString(part)

		pos = j + 1
	}
}

// lookup evaluates the raw value of the variable referenced at span.
func (e *evaluator) lookup(name string, span Span) (string, error) {
	if e.skip > 0 {
		return "", nil
	}

	raw, ok := e.store.data[name]
	if !ok {
		return "", &ParseError{
			Span:        span,
			Reason:      ErrUndefinedVariable.With(slog.String("name", name)),
			Detail:      strconv.Quote(name),
			Suggestions: suggest(name, e.store.Names()),
		}
	}

	if slices.Contains(e.chain, name) {
		return "", &CyclicReferenceError{
			Span:  span,
			Chain: append(slices.Clone(e.chain), name),
		}
	}

	e.chain = append(e.chain, name)
	defer func() { e.chain = e.chain[:len(e.chain)-1] }()

	e.store.logger.TraceContext(e.ctx, "lookup",
		slog.String("name", name),
		slog.Int("depth", e.depth),
	)

	return e.eval(raw)
}

// call invokes the host function named at pos and evaluates its result.
// Arguments are the raw colon-separated text up to the next terminator.
func (e *evaluator) call(src string, open, pos int, terms []string) (string, int, error) {
	m, i := FindFirst(src, pos, terminators(terms, ":")...)
	name := strings.TrimSpace(src[pos+1 : i])

	var args []string

	if m == ":" && !slices.Contains(terms, m) {
		_, j := FindFirst(src, i+1, terms...)
		args = strings.Split(src[i+1:j], ":")
		i = j
	}

	if i >= len(src) || e.skip > 0 {
		return "", i, nil
	}

	fn, ok := e.store.funcs.Lookup(name)
	if !ok {
		return "", i, &HostLookupError{
			Span: Span{Source: src, Start: open, End: i},
			Name: name,
		}
	}

	e.store.logger.TraceContext(e.ctx, "call",
		slog.String("function", name),
		slog.Any("args", args),
	)

	prev := e.store.active
	e.store.active = e
	out, err := fn.Call(args)
	e.store.active = prev

	if err != nil {
		return "", i, ErrFunctionFailed.With(
			slog.String("function", name),
			slog.Any("args", args),
		).Wrap(err)
	}

	v, err := e.eval(out)

	return v, i, err
}

// ternary evaluates "cond ? then : else". The separator must be exactly
// " : " and the else branch may be omitted. Both branches are evaluated
// unless the store was created with [WithLazyBranches].
func (e *evaluator) ternary(src string, pos int, terms []string) (string, int, error) {
	cond, i, err := e.condition(src, pos, terminators(terms, "?"))
	if err != nil {
		return "", i, err
	}

	if i >= len(src) || src[i] != '?' {
		return "", i, e.fail(src, pos, i,
			ErrUnexpectedToken.With(slog.String("expected", "?")), "expected ?")
	}

	onTrue, j, err := e.branch(cond, src, i+1, terminators(terms, " : "))
	if err != nil {
		return "", j, err
	}

	var onFalse string

	if strings.HasPrefix(src[j:], " : ") {
		onFalse, j, err = e.branch(!cond, src, j+3, terms)
		if err != nil {
			return "", j, err
		}
	}

	if cond {
		return strings.TrimSpace(onTrue), j, nil
	}

	return strings.TrimSpace(onFalse), j, nil
}

func (e *evaluator) branch(taken bool, src string, pos int, terms []string) (string, int, error) {
	if !taken && e.store.lazy {
		e.skip++
		defer func() { e.skip-- }()
	}

	return e.expr(src, pos, terms)
}

// condition evaluates a boolean expression, warning when it mixes && and ||
// since the chain groups to the right: a && b || c is a && (b || c).
func (e *evaluator) condition(src string, pos int, terms []string) (bool, int, error) {
	var ops boolOps

	v, i, err := e.boolExpr(src, pos, terms, &ops)
	if err == nil && ops == opAnd|opOr && e.skip == 0 {
		e.store.logger.WarnContext(e.ctx, "mixed && and || group to the right",
			slog.String("expression", strings.TrimSpace(src[pos:i])),
		)
	}

	return v, i, err
}

func (e *evaluator) boolExpr(
	src string,
	pos int,
	terms []string,
	ops *boolOps,
) (bool, int, error) {
	lhs, i, err := e.boolVal(src, pos, terminators(terms, "&", "|"))
	if err != nil || i >= len(src) {
		return lhs, i, err
	}

	c := src[i]
	if c != '&' && c != '|' {
		return lhs, i, nil
	}

	if i+1 >= len(src) || src[i+1] != c {
		op := string([]byte{c, c})

		return false, i, e.fail(src, i, i,
			ErrUnexpectedToken.With(slog.String("expected", op)), "expected "+op)
	}

	if c == '&' {
		*ops |= opAnd
	} else {
		*ops |= opOr
	}

	rhs, j, err := e.boolExpr(src, i+2, terms, ops)
	if err != nil {
		return false, j, err
	}

	if c == '&' {
		return lhs && rhs, j, nil
	}

	return lhs || rhs, j, nil
}

// boolVal evaluates [!][#]name [== literal].
func (e *evaluator) boolVal(src string, pos int, terms []string) (bool, int, error) {
	pos = skipSpace(src, pos)

	var negate, length bool

	if pos < len(src) && src[pos] == '!' {
		negate = true
		pos = skipSpace(src, pos+1)
	}

	if pos < len(src) && src[pos] == '#' {
		length = true
		pos++
	}

	start := pos

	name, i, err := e.varname(src, pos, terminators(terms, "="))
	if err != nil || i >= len(src) {
		return false, i, err
	}

	operand := Span{Source: src, Start: start, End: max(start, i-1)}

	val, err := e.lookup(name, operand)
	if err != nil {
		return false, i, err
	}

	var result bool

	switch {
	case src[i] == '=':
		if !strings.HasPrefix(src[i:], "==") {
			return false, i, e.fail(src, i, i,
				ErrUnexpectedToken.With(slog.String("expected", "==")), "expected ==")
		}

		if length {
			return false, i, e.fail(src, start-1, i+1, ErrLengthEquality, "")
		}

		_, k := FindFirst(src, i+2, terms...)
		literal := strings.TrimSpace(src[i+2 : k])
		i = k

		result = val == literal

	case e.skip > 0:
		return false, i, nil

	case length:
		result = val != ""

	default:
		switch val {
		case "0":
		case "1":
			result = true
		default:
			return false, i, e.fail(src, operand.Start, operand.End,
				ErrNotBoolean.With(
					slog.String("name", name),
					slog.String("value", val),
				),
				name+" evaluated to "+strconv.Quote(val))
		}
	}

	if negate {
		result = !result
	}

	return result, i, nil
}
