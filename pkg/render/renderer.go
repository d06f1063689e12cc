package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/reconciler/pkg/memdom"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

// Config configures the HTML renderer.
type Config struct {
	// Pretty enables indented output, one block element per line.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// NodeIDs adds a data-node attribute carrying the memdom node id.
	NodeIDs bool
}

// Renderer writes snapshot trees as HTML.
type Renderer struct {
	config Config
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config Config) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// HTML renders a snapshot compactly. A nil snapshot renders as "".
func HTML(snap *memdom.Snapshot) string {
	out, err := NewRenderer(Config{}).RenderSnapshot(snap)
	if err != nil {
		return ""
	}
	return out
}

// RenderSnapshot renders the children of a snapshot's root.
func (r *Renderer) RenderSnapshot(snap *memdom.Snapshot) (string, error) {
	if snap == nil {
		return "", nil
	}
	return r.RenderToString(snap.Root)
}

// RenderToString renders a node to a string.
func (r *Renderer) RenderToString(node *memdom.SnapshotNode) (string, error) {
	var b strings.Builder
	if err := r.RenderToWriter(&b, node); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderToWriter streams a node to w.
func (r *Renderer) RenderToWriter(w io.Writer, node *memdom.SnapshotNode) error {
	return r.renderNode(w, node, 0)
}

func (r *Renderer) renderNode(w io.Writer, node *memdom.SnapshotNode, depth int) error {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case memdom.ElementNode.String():
		return r.renderElement(w, node, depth)
	case memdom.TextNode.String():
		_, err := io.WriteString(w, escapeHTML(node.Text))
		return err
	case memdom.RootNode.String():
		for _, child := range node.Children {
			if err := r.renderNode(w, child, depth); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("render: unknown node kind %q", node.Kind)
	}
}

func (r *Renderer) renderElement(w io.Writer, node *memdom.SnapshotNode, depth int) error {
	tag := node.Tag
	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "<%s", tag); err != nil {
		return err
	}
	if err := r.renderAttributes(w, node); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if vdom.IsVoidElement(tag) {
		if r.config.Pretty {
			io.WriteString(w, "\n")
		}
		return nil
	}

	if node.Text != "" {
		if _, err := io.WriteString(w, escapeHTML(node.Text)); err != nil {
			return err
		}
	}

	block := len(node.Children) > 0 && !isInlineElement(tag)
	if r.config.Pretty && block {
		io.WriteString(w, "\n")
	}
	for _, child := range node.Children {
		if err := r.renderNode(w, child, depth+1); err != nil {
			return err
		}
	}
	if r.config.Pretty && block {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "</%s>", tag); err != nil {
		return err
	}
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}
	return nil
}

// renderAttributes writes attributes in sorted order, then event markers.
func (r *Renderer) renderAttributes(w io.Writer, node *memdom.SnapshotNode) error {
	keys := make([]string, 0, len(node.Attrs))
	for key := range node.Attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := node.Attrs[key]
		name := key
		switch key {
		case "className":
			name = "class"
		case "htmlFor":
			name = "for"
		}

		if isBooleanAttr(name) {
			if value == "true" || value == "" {
				if _, err := fmt.Fprintf(w, " %s", name); err != nil {
					return err
				}
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, name, escapeAttr(value)); err != nil {
			return err
		}
	}

	if r.config.NodeIDs {
		if _, err := fmt.Fprintf(w, ` data-node="%s"`, escapeAttr(node.ID)); err != nil {
			return err
		}
	}

	// Events are sorted in the snapshot.
	for _, prop := range node.Events {
		if _, err := fmt.Fprintf(w, ` data-on-%s="true"`, vdom.EventName(prop)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(r.config.Indent, depth))
}
