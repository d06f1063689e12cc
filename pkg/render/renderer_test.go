package render

import (
	"strings"
	"testing"

	"github.com/vango-dev/reconciler/pkg/memdom"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

func text(s string) *memdom.SnapshotNode {
	return &memdom.SnapshotNode{Kind: "text", Text: s}
}

func elem(tag string, attrs map[string]string, children ...*memdom.SnapshotNode) *memdom.SnapshotNode {
	return &memdom.SnapshotNode{Kind: "element", Tag: tag, Attrs: attrs, Children: children}
}

func root(children ...*memdom.SnapshotNode) *memdom.Snapshot {
	return &memdom.Snapshot{Root: &memdom.SnapshotNode{Kind: "root", Children: children}}
}

func TestHTMLNested(t *testing.T) {
	snap := root(elem("ul", map[string]string{"class": "list"},
		elem("li", nil, text("A")),
		elem("li", nil, text("B & C")),
	))
	got := HTML(snap)
	want := `<ul class="list"><li>A</li><li>B &amp; C</li></ul>`
	if got != want {
		t.Errorf("HTML = %q, want %q", got, want)
	}
}

func TestHTMLNilSnapshot(t *testing.T) {
	if got := HTML(nil); got != "" {
		t.Errorf("HTML(nil) = %q, want empty", got)
	}
}

func TestElementText(t *testing.T) {
	node := &memdom.SnapshotNode{Kind: "element", Tag: "p", Text: "<hi>"}
	got, err := NewRenderer(Config{}).RenderToString(node)
	if err != nil {
		t.Fatal(err)
	}
	if got != "<p>&lt;hi&gt;</p>" {
		t.Errorf("got %q", got)
	}
}

func TestVoidAndBooleanAttrs(t *testing.T) {
	snap := root(elem("input", map[string]string{"disabled": "true", "value": `a"b`, "required": "false"}))
	got := HTML(snap)
	want := `<input disabled value="a&quot;b">`
	if got != want {
		t.Errorf("HTML = %q, want %q", got, want)
	}
}

func TestAttributeAliases(t *testing.T) {
	snap := root(elem("label", map[string]string{"className": "x", "htmlFor": "name"}))
	got := HTML(snap)
	if got != `<label class="x" for="name"></label>` {
		t.Errorf("HTML = %q", got)
	}
}

func TestEventMarkersAndNodeIDs(t *testing.T) {
	node := &memdom.SnapshotNode{ID: "n7", Kind: "element", Tag: "button", Events: []string{"onclick"}, Children: []*memdom.SnapshotNode{text("go")}}
	got, err := NewRenderer(Config{NodeIDs: true}).RenderToString(node)
	if err != nil {
		t.Fatal(err)
	}
	want := `<button data-node="n7" data-on-click="true">go</button>`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPretty(t *testing.T) {
	snap := root(elem("div", nil, elem("p", nil, text("x")), elem("span", nil, text("y"))))
	got, err := NewRenderer(Config{Pretty: true}).RenderSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "<div>\n  <p>") {
		t.Errorf("missing indentation:\n%s", got)
	}
	if !strings.HasSuffix(got, "</div>\n") {
		t.Errorf("missing trailing newline:\n%s", got)
	}
}

func TestUnknownKind(t *testing.T) {
	_, err := NewRenderer(Config{}).RenderToString(&memdom.SnapshotNode{Kind: "comment"})
	if err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRenderMemdomContainer(t *testing.T) {
	host := memdom.NewHost()
	c := host.NewContainer()

	ul, _ := host.CreateInstance("ul", vdom.Props{"id": "list"})
	li, _ := host.CreateInstance("li", vdom.Props{vdom.ChildrenProp: "one", "onclick": func() {}})
	if err := host.AppendInitialChild(ul, li); err != nil {
		t.Fatal(err)
	}

	host.PrepareForCommit(c)
	if err := host.AppendChild(c, ul); err != nil {
		t.Fatal(err)
	}
	host.ResetAfterCommit(c)

	got := HTML(c.Snapshot())
	want := `<ul id="list"><li data-on-click="true">one</li></ul>`
	if got != want {
		t.Errorf("HTML = %q, want %q", got, want)
	}
}
