// Package lang evaluates strings containing ${...} blocks against a table of
// named variables. It is the template language of the driver's variable
// environment: tool paths, flags and feature toggles are computed from
// bindings whose values refer to other bindings, test conditions, or call
// host functions.
//
// # Philosophy
//
// There is no tokenizer. Every production scans forward with [FindFirst]
// for the leftmost of a set of terminators inherited from its caller, so a
// block ends wherever its enclosing production says it does.
//
// # Grammar
//
// Informal EBNF:
//
//	expr     → text ( "${" bracket "}" expr )?
//	bracket  → "@" call | cond "?" expr ( " : " expr )? | name
//	name     → text ( "%" bracket "%" name )?
//	cond     → value ( ( "&&" | "||" ) cond )?
//	value    → [ "!" ] [ "#" ] name ( "==" text )?
//	call     → fname ( ":" arg )*
//
// # Example
//
//	ARCH      : X8664
//	CC_X8664  : clang -m64
//	CC        : ${CC_%ARCH%}
//	DEBUG     : 0
//	CFLAGS    : ${DEBUG ? -g -O0 : -O2} ${#EXTRA ? ${EXTRA}}
//	EXTRA     :
//	BASE      : ${@basedir:native_client}
//
// # Semantics
//
//   - A plain ${name} is replaced by the evaluated value of name. An unbound
//     name is a [ParseError] spanning the block.
//   - %...% inside a name is evaluated and spliced into it, so
//     ${CC_%ARCH%} reads CC_X8664.
//   - A bare name in a condition must evaluate to "0" or "1". #name tests
//     for a non-empty value and name==text compares the value with text.
//     ! negates. # and == cannot be combined.
//   - && and || chains group to the right: a && b || c is a && (b || c).
//     A warning is logged when one condition mixes them.
//   - The ternary separator is exactly " : " and the else branch may be
//     omitted. Both branches are trimmed and only the selected one is
//     evaluated.
//   - ${@f:a:b} calls the host function f with the raw arguments "a" and
//     "b" and evaluates the text it returns. Unknown functions fail with a
//     [HostLookupError].
//
// # Scoping
//
// [Store.Push] saves the current bindings and [Store.Pop] restores them, so
// temporary assignments made in between are discarded.
//
// Self-referential bindings fail with a [CyclicReferenceError], and nesting
// deeper than [DefaultMaxDepth] (see [WithMaxDepth]) fails with
// [ErrMaxDepthExceeded].
package lang
