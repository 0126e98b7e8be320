package render

import (
	"bufio"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"
)

// HTML serialises nodes into an HTML fragment.
func HTML(nodes []*Node) string {
	var b strings.Builder
	_ = WriteHTML(&b, nodes)
	return b.String()
}

// WriteHTML serialises nodes as HTML to w. Text and attribute values are
// escaped; html nodes are written verbatim.
func WriteHTML(w io.Writer, nodes []*Node) error {
	bw := bufio.NewWriter(w)
	hw := &htmlWriter{w: bw}
	for _, n := range nodes {
		hw.node(n)
	}
	if hw.err != nil {
		return hw.err
	}
	return bw.Flush()
}

type htmlWriter struct {
	w   *bufio.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = h.w.WriteString(s)
}

func (h *htmlWriter) escaped(s string) {
	h.raw(html.EscapeString(s))
}

// open writes a start tag. Attributes are emitted in sorted order so output
// is deterministic.
func (h *htmlWriter) open(tag string, attrs map[string]string) {
	h.raw("<" + tag)
	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.raw(" " + k + `="`)
		h.escaped(attrs[k])
		h.raw(`"`)
	}
	h.raw(">")
}

func (h *htmlWriter) wrap(tag string, attrs map[string]string, n *Node) {
	h.open(tag, attrs)
	h.children(n)
	h.raw("</" + tag + ">")
}

func (h *htmlWriter) children(n *Node) {
	for _, c := range n.Children {
		h.node(c)
	}
}

func blockOnly(n *Node) bool {
	if len(n.Children) == 0 {
		return false
	}
	for _, c := range n.Children {
		if c.Kind != KindContainer {
			return false
		}
	}
	return true
}

func (h *htmlWriter) node(n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindParagraph:
		if blockOnly(n) {
			// <div> may not nest inside <p>.
			for _, c := range n.Children {
				h.node(c)
				h.raw("\n")
			}
			return
		}
		h.wrap("p", nil, n)
		h.raw("\n")
	case KindHeading:
		level := n.Level
		if level < 1 || level > 6 {
			level = 1
		}
		h.wrap("h"+strconv.Itoa(level), map[string]string{"id": n.Attr("id")}, n)
		h.raw("\n")
	case KindText:
		h.escaped(n.Text)
	case KindEmphasis:
		h.wrap("em", nil, n)
	case KindStrong:
		h.wrap("strong", nil, n)
	case KindStrikethrough:
		h.wrap("del", nil, n)
	case KindLink:
		h.wrap("a", map[string]string{"href": n.Attr("href"), "title": n.Attr("title")}, n)
	case KindImage:
		h.open("img", map[string]string{"src": n.Attr("src"), "alt": n.Attr("alt"), "title": n.Attr("title")})
	case KindCodeSpan:
		h.raw("<code>")
		h.escaped(n.Text)
		h.raw("</code>")
	case KindCodeBlock:
		h.raw("<pre>")
		var attrs map[string]string
		if lang := n.Attr("language"); lang != "" {
			attrs = map[string]string{"class": "language-" + lang}
		}
		h.open("code", attrs)
		h.escaped(n.Text)
		h.raw("</code></pre>\n")
	case KindList:
		if n.Attr("ordered") == "true" {
			h.wrap("ol", map[string]string{"start": n.Attr("start")}, n)
		} else {
			h.wrap("ul", nil, n)
		}
		h.raw("\n")
	case KindListItem:
		h.wrap("li", nil, n)
		h.raw("\n")
	case KindBlockquote:
		h.wrap("blockquote", nil, n)
		h.raw("\n")
	case KindThematicBreak:
		h.raw("<hr>\n")
	case KindLineBreak:
		h.raw("<br>\n")
	case KindHTML:
		h.raw(n.Text)
	case KindTable:
		h.table(n)
	case KindTableRow:
		h.row(n)
	case KindTableCell:
		h.wrap("td", map[string]string{"align": n.Attr("align")}, n)
	case KindTaskCheckBox:
		if n.Attr("checked") == "true" {
			h.raw(`<input checked="" disabled="" type="checkbox"> `)
		} else {
			h.raw(`<input disabled="" type="checkbox"> `)
		}
	case KindContainer:
		h.wrap("div", n.Attrs, n)
	default:
		h.children(n)
	}
}

func (h *htmlWriter) table(n *Node) {
	h.raw("<table>\n")
	var body []*Node
	for _, row := range n.Children {
		if row.Kind == KindTableRow && row.Attr("header") == "true" {
			h.raw("<thead>\n")
			h.row(row)
			h.raw("</thead>\n")
			continue
		}
		body = append(body, row)
	}
	if len(body) > 0 {
		h.raw("<tbody>\n")
		for _, row := range body {
			h.node(row)
		}
		h.raw("</tbody>\n")
	}
	h.raw("</table>\n")
}

func (h *htmlWriter) row(n *Node) {
	cell := "td"
	if n.Attr("header") == "true" {
		cell = "th"
	}
	h.raw("<tr>\n")
	for _, c := range n.Children {
		if c.Kind != KindTableCell {
			h.node(c)
			continue
		}
		h.wrap(cell, map[string]string{"align": c.Attr("align")}, c)
		h.raw("\n")
	}
	h.raw("</tr>\n")
}
