// Package vdom provides the declarative element descriptions consumed by
// the reconciler.
//
// An Element describes one node of the desired output: a host element
// (Type is a tag name) or a component (Type is a render function). All
// attributes, event handlers and children live in Props; children are stored
// under the "children" key, either as a single value or as a []any list.
// Text-only children (a string or number) are kept inline so that render
// targets can set text content directly instead of creating text nodes.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Ul(Class("list"),
//	    Li(Key("a"), "A"),
//	    Li(Key("b"), "B"),
//	)
//
// Arguments may be attributes, event handlers, child elements, strings or
// numbers (text), slices of these, or nil (ignored, allows conditionals).
//
// # Prop diffing
//
// DiffProps compares the props of two host elements and returns the list of
// changes a render target needs to apply, or nil when nothing changed.
package vdom
