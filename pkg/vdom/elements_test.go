package vdom

import "testing"

func TestElementBasic(t *testing.T) {
	el := Div()
	if el.Type != "div" {
		t.Errorf("Type = %v, want div", el.Type)
	}
	if !el.IsHost() {
		t.Error("Div should be a host element")
	}
	if el.Props.Children() != nil {
		t.Errorf("Children = %v, want nil", el.Props.Children())
	}
}

func TestElementWithAttrs(t *testing.T) {
	el := Div(ID("main"), Class("card", "wide"), Key("k1"))
	if el.Props["id"] != "main" {
		t.Errorf("id = %v, want main", el.Props["id"])
	}
	if el.Props["class"] != "card wide" {
		t.Errorf("class = %v, want 'card wide'", el.Props["class"])
	}
	if el.Key != "k1" {
		t.Errorf("Key = %q, want k1", el.Key)
	}
	if _, ok := el.Props["key"]; ok {
		t.Error("key must not be stored as a prop")
	}
}

func TestElementSingleTextChild(t *testing.T) {
	el := Li(Key("a"), "A")
	if el.Props.Children() != "A" {
		t.Errorf("children = %#v, want \"A\"", el.Props.Children())
	}
	if !IsTextOnlyChildren(el.Props) {
		t.Error("expected text-only children")
	}
}

func TestElementNumberChild(t *testing.T) {
	el := Span(42)
	text, ok := TextOf(el.Props.Children())
	if !ok || text != "42" {
		t.Errorf("TextOf = %q, %v; want 42, true", text, ok)
	}
}

func TestElementMultipleChildren(t *testing.T) {
	el := Ul(Li("A"), nil, Li("B"), "tail")
	children, ok := el.Props.Children().([]any)
	if !ok {
		t.Fatalf("children type = %T, want []any", el.Props.Children())
	}
	if len(children) != 3 {
		t.Fatalf("len(children) = %d, want 3", len(children))
	}
	if IsTextOnlyChildren(el.Props) {
		t.Error("mixed children are not text-only")
	}
}

func TestElementSliceChildren(t *testing.T) {
	items := []string{"a", "b", "c"}
	el := Ul(Range(items, func(item string, _ int) *Element {
		return Li(Key(item), item)
	}))
	children := el.Props.Children().([]any)
	if len(children) != 3 {
		t.Fatalf("len(children) = %d, want 3", len(children))
	}
	if children[2].(*Element).Key != "c" {
		t.Errorf("third key = %q, want c", children[2].(*Element).Key)
	}
}

func TestElementFragmentFlattened(t *testing.T) {
	el := Div(Fragment(Span("a"), nil, Span("b")), Span("c"))
	children := el.Props.Children().([]any)
	if len(children) != 3 {
		t.Fatalf("len(children) = %d, want 3", len(children))
	}
	for i, c := range children {
		if _, ok := c.(*Element); !ok {
			t.Errorf("child %d type = %T, want *Element", i, c)
		}
	}
}

func TestElementEventHandler(t *testing.T) {
	called := false
	el := Button(OnClick(func() { called = true }), "go")
	h, ok := el.Props["onclick"].(func())
	if !ok {
		t.Fatalf("onclick type = %T", el.Props["onclick"])
	}
	h()
	if !called {
		t.Error("handler not stored")
	}
}

func counter(props Props) any { return nil }

func TestComponentElement(t *testing.T) {
	el := H(counter, Prop("start", 3), Key("c"))
	if el.IsHost() {
		t.Error("component element reported as host")
	}
	if el.Props["start"] != 3 {
		t.Errorf("start = %v, want 3", el.Props["start"])
	}
	if el.TypeName() != "counter" {
		t.Errorf("TypeName = %q, want counter", el.TypeName())
	}
	if el.String() != `<counter key="c">` {
		t.Errorf("String = %q", el.String())
	}
}

func TestSameType(t *testing.T) {
	other := func(props Props) any { return nil }
	cases := []struct {
		a, b any
		want bool
	}{
		{"div", "div", true},
		{"div", "span", false},
		{"div", counter, false},
		{counter, counter, true},
		{counter, other, false},
		{nil, nil, true},
	}
	for i, c := range cases {
		if got := SameType(c.a, c.b); got != c.want {
			t.Errorf("case %d: SameType = %v, want %v", i, got, c.want)
		}
	}
}

func TestIsVoidElement(t *testing.T) {
	if !IsVoidElement("br") || !IsVoidElement("input") {
		t.Error("br and input are void elements")
	}
	if IsVoidElement("div") {
		t.Error("div is not a void element")
	}
}

func TestHelpers(t *testing.T) {
	a := Div(ID("a"))
	b := Div(ID("b"))
	if If(false, a) != nil || If(true, a) != a {
		t.Error("If")
	}
	if IfElse(false, a, b) != b {
		t.Error("IfElse")
	}
	if Unless(true, a) != nil {
		t.Error("Unless")
	}
	if When(false, func() *Element { t.Fatal("evaluated"); return nil }) != nil {
		t.Error("When")
	}
	if n := len(Repeat(3, func(i int) *Element { return Li(i) })); n != 3 {
		t.Errorf("Repeat produced %d elements", n)
	}
	if n := len(Fragment(a, nil, "x")); n != 2 {
		t.Errorf("Fragment kept %d children, want 2", n)
	}
}

func TestClasses(t *testing.T) {
	got := Classes("a", []string{"b", ""}, map[string]bool{"d": true, "c": true, "x": false})
	if got.Value != "a b c d" {
		t.Errorf("Classes = %q, want 'a b c d'", got.Value)
	}
	if !ClassIf(false, "x").IsEmpty() {
		t.Error("ClassIf(false) should be empty")
	}
}

func TestEventName(t *testing.T) {
	if EventName("onClick") != "click" {
		t.Errorf("EventName(onClick) = %q", EventName("onClick"))
	}
	if EventName("id") != "" {
		t.Error("id is not an event handler")
	}
	if On("KeyDown", nil).Event != "onkeydown" {
		t.Error("On should lower-case the event name")
	}
}
