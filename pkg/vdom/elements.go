package vdom

import (
	"fmt"
	"reflect"
)

// voidElements are elements that cannot have children.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// IsVoidElement returns true if the tag is a void element.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// H creates an element of any type. typ is a tag name or a component
// function; args are interpreted as for the tag factories.
func H(typ any, args ...any) *Element {
	el := &Element{Type: typ, Props: make(Props)}
	var children []any
	for _, arg := range args {
		children = applyArg(el, arg, children)
	}
	switch len(children) {
	case 0:
	case 1:
		el.Props[ChildrenProp] = children[0]
	default:
		el.Props[ChildrenProp] = children
	}
	return el
}

// createElement creates a host element with the given tag.
func createElement(tag string, args []any) *Element {
	return H(tag, args...)
}

// applyArg folds one factory argument into the element and returns the
// updated child list.
func applyArg(el *Element, arg any, children []any) []any {
	switch v := arg.(type) {
	case nil:
		// Ignore nil (allows conditional attributes)
	case Attr:
		setAttr(el, v)
	case []Attr:
		for _, a := range v {
			setAttr(el, a)
		}
	case Props:
		for k, pv := range v {
			setAttr(el, Attr{Key: k, Value: pv})
		}
	case EventHandler:
		el.Props[v.Event] = v.Handler
	case *Element:
		if v != nil {
			children = append(children, v)
		}
	case []*Element:
		for _, c := range v {
			if c != nil {
				children = append(children, c)
			}
		}
	case []any:
		// Fragments are flattened into the child list.
		for _, c := range v {
			children = applyArg(el, c, children)
		}
	case string:
		children = append(children, v)
	case fmt.Stringer:
		children = append(children, v.String())
	default:
		if isNumber(v) {
			children = append(children, v)
		}
	}
	return children
}

func setAttr(el *Element, a Attr) {
	if a.Key == "" {
		return
	}
	if a.Key == "key" {
		el.Key = fmt.Sprintf("%v", a.Value)
		return
	}
	if a.Key == ChildrenProp {
		// Explicit children replace the positional ones.
		el.Props[ChildrenProp] = a.Value
		return
	}
	el.Props[a.Key] = a.Value
}

// isNumber reports whether v is a numeric value usable as text.
func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Document structure elements

func Html(args ...any) *Element { return createElement("html", args) }
func Body(args ...any) *Element { return createElement("body", args) }
func Main(args ...any) *Element { return createElement("main", args) }

// Content sectioning

func Header(args ...any) *Element  { return createElement("header", args) }
func Footer(args ...any) *Element  { return createElement("footer", args) }
func Nav(args ...any) *Element     { return createElement("nav", args) }
func Section(args ...any) *Element { return createElement("section", args) }
func Article(args ...any) *Element { return createElement("article", args) }
func H1(args ...any) *Element      { return createElement("h1", args) }
func H2(args ...any) *Element      { return createElement("h2", args) }
func H3(args ...any) *Element      { return createElement("h3", args) }

// Text content

func Div(args ...any) *Element { return createElement("div", args) }
func P(args ...any) *Element   { return createElement("p", args) }
func Ul(args ...any) *Element  { return createElement("ul", args) }
func Ol(args ...any) *Element  { return createElement("ol", args) }
func Li(args ...any) *Element  { return createElement("li", args) }
func Pre(args ...any) *Element { return createElement("pre", args) }

// Inline text

func A(args ...any) *Element      { return createElement("a", args) }
func Span(args ...any) *Element   { return createElement("span", args) }
func Strong(args ...any) *Element { return createElement("strong", args) }
func Em(args ...any) *Element     { return createElement("em", args) }
func Code(args ...any) *Element   { return createElement("code", args) }
func Br(args ...any) *Element     { return createElement("br", args) }

// Embedded content

func Img(args ...any) *Element { return createElement("img", args) }

// Tables

func Table(args ...any) *Element { return createElement("table", args) }
func Tbody(args ...any) *Element { return createElement("tbody", args) }
func Tr(args ...any) *Element    { return createElement("tr", args) }
func Td(args ...any) *Element    { return createElement("td", args) }
func Th(args ...any) *Element    { return createElement("th", args) }

// Forms

func Form(args ...any) *Element     { return createElement("form", args) }
func Button(args ...any) *Element   { return createElement("button", args) }
func Input(args ...any) *Element    { return createElement("input", args) }
func Label(args ...any) *Element    { return createElement("label", args) }
func Select(args ...any) *Element   { return createElement("select", args) }
func Option(args ...any) *Element   { return createElement("option", args) }
func Textarea(args ...any) *Element { return createElement("textarea", args) }
