// Package render converts markdown bodies into framework-neutral display
// nodes, with per-kind overrides for how individual nodes are presented.
package render

import "strings"

// Kind identifies the type of a display node.
type Kind string

const (
	KindParagraph     Kind = "paragraph"
	KindHeading       Kind = "heading"
	KindText          Kind = "text"
	KindEmphasis      Kind = "emphasis"
	KindStrong        Kind = "strong"
	KindLink          Kind = "link"
	KindImage         Kind = "image"
	KindCodeSpan      Kind = "code_span"
	KindCodeBlock     Kind = "code_block"
	KindList          Kind = "list"
	KindListItem      Kind = "list_item"
	KindBlockquote    Kind = "blockquote"
	KindThematicBreak Kind = "thematic_break"
	KindLineBreak     Kind = "line_break"
	KindHTML          Kind = "html"
	KindStrikethrough Kind = "strikethrough"
	KindTable         Kind = "table"
	KindTableRow      Kind = "table_row"
	KindTableCell     Kind = "table_cell"
	KindTaskCheckBox  Kind = "task_checkbox"
	KindContainer     Kind = "container"
)

// Node is one unit of rendered markup. Text carries literal content for
// text, code and html nodes; Level is the heading level.
type Node struct {
	Kind     Kind              `json:"kind"`
	Text     string            `json:"text,omitempty"`
	Level    int               `json:"level,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// Attr returns the named attribute or "".
func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// PlainText concatenates the text of n and all its descendants.
func (n *Node) PlainText() string {
	var b strings.Builder
	n.writeText(&b)
	return b.String()
}

func (n *Node) writeText(b *strings.Builder) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindText, KindCodeSpan, KindCodeBlock:
		b.WriteString(n.Text)
	case KindImage:
		b.WriteString(n.Attr("alt"))
	}
	for _, c := range n.Children {
		c.writeText(b)
	}
}

// NodeOverride replaces the default presentation of a node. The node passed
// in is fully built, children included; the returned nodes take its place.
// Returning no nodes suppresses it.
type NodeOverride interface {
	Override(n *Node) []*Node
}

// OverrideFunc adapts a function to NodeOverride.
type OverrideFunc func(n *Node) []*Node

// Override calls f(n).
func (f OverrideFunc) Override(n *Node) []*Node { return f(n) }

// Overrides maps node kinds to the override applied to every node of that kind.
type Overrides map[Kind]NodeOverride

// ImageContainerClass is the class of the container CenteredImage wraps
// images in.
const ImageContainerClass = "image-center"

// CenteredImage wraps every image in a centering container and drops images
// that have no source.
var CenteredImage NodeOverride = OverrideFunc(func(n *Node) []*Node {
	if strings.TrimSpace(n.Attr("src")) == "" {
		return nil
	}
	return []*Node{{
		Kind:     KindContainer,
		Attrs:    map[string]string{"class": ImageContainerClass},
		Children: []*Node{n},
	}}
})

// SiteOverrides is the override set the blog renders posts with.
func SiteOverrides() Overrides {
	return Overrides{KindImage: CenteredImage}
}
