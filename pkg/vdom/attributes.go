package vdom

import (
	"fmt"
	"sort"
	"strings"
)

// attr creates an Attr with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Prop sets an arbitrary prop. Component elements receive their props this
// way.
func Prop(key string, value any) Attr { return attr(key, value) }

// Key creates a key attribute for reconciliation.
// The key is converted to a string using fmt.Sprintf.
func Key(key any) Attr {
	return attr("key", fmt.Sprintf("%v", key))
}

// RefAttr attaches a ref to a host element. ref is a *reconciler.Ref or a
// func(handle any) callback.
func RefAttr(ref any) Attr { return attr("ref", ref) }

// Children sets the children explicitly.
func Children(children ...any) Attr {
	if len(children) == 1 {
		return attr(ChildrenProp, children[0])
	}
	return attr(ChildrenProp, children)
}

// Identity attributes

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return attr("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// Hidden sets the hidden attribute.
func Hidden() Attr { return attr("hidden", true) }

// TitleAttr sets the title attribute.
func TitleAttr(title string) Attr { return attr("title", title) }

// TabIndex sets the tabindex attribute.
func TabIndex(index int) Attr { return attr("tabindex", index) }

// Href sets the href attribute.
func Href(url string) Attr { return attr("href", url) }

// Form attributes

func Name(name string) Attr        { return attr("name", name) }
func Value(value string) Attr      { return attr("value", value) }
func Type(t string) Attr           { return attr("type", t) }
func Placeholder(text string) Attr { return attr("placeholder", text) }
func Disabled() Attr               { return attr("disabled", true) }
func Checked() Attr                { return attr("checked", true) }
func Selected() Attr               { return attr("selected", true) }
func For(id string) Attr           { return attr("for", id) }
func Src(url string) Attr          { return attr("src", url) }
func Alt(text string) Attr         { return attr("alt", text) }
func Colspan(n int) Attr           { return attr("colspan", n) }

// Autocomplete sets the autocomplete attribute.
func Autocomplete(value string) Attr { return attr("autocomplete", value) }

// ClassIf sets the class only when condition holds.
func ClassIf(condition bool, class string) Attr {
	if condition {
		return attr("class", class)
	}
	return Attr{} // Empty attr, will be ignored
}

// AttrIf returns a only when condition holds.
func AttrIf(condition bool, a Attr) Attr {
	if condition {
		return a
	}
	return Attr{}
}

// Classes joins strings, string slices and map[string]bool sets into one
// class attribute. Map entries are sorted for stable output.
func Classes(classes ...any) Attr {
	var result []string
	for _, c := range classes {
		switch v := c.(type) {
		case string:
			if v != "" {
				result = append(result, v)
			}
		case []string:
			for _, s := range v {
				if s != "" {
					result = append(result, s)
				}
			}
		case map[string]bool:
			var picked []string
			for class, include := range v {
				if include && class != "" {
					picked = append(picked, class)
				}
			}
			sort.Strings(picked)
			result = append(result, picked...)
		}
	}
	return attr("class", strings.Join(result, " "))
}
