// Package utpl implements an embeddable template engine. Templates are
// literal text with two kinds of embedded code regions:
//   - {% ... %} statement blocks holding any number of statements.
//   - {{ ... }} expression blocks whose value is written to the output.
//
// The code grammar covers int, double, string, bool, and null literals,
// arrays and insertion-ordered objects, first-class functions with lexical
// closures, the usual arithmetic, comparison, bitwise, and logical
// operators, if/else, three-clause and enumeration for loops, and an
// alternate keyword-colon block syntax ({% for (x in xs): %} ... {% endfor %})
// for bodies that are mostly literal text. Delimiters carry optional
// whitespace trim markers ({%- and -%}).
//
// Arithmetic follows total-coercion rules: operand coercion never raises,
// failures resolve to NaN, and int arithmetic promotes to double on
// overflow. Output rendering is deterministic, with a fixed spelling for
// each value kind.
//
// Hosts embed the engine through Engine and Template: compile once, render
// many times with per-render globals and a context for cancellation. Every
// render is bounded by a step quota, a recursion limit, and a memory quota.
// Native Go functions plug in through RegisterBuiltin or, grouped into
// module objects, through Provider.
package utpl
