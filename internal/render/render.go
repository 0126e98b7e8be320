package render

import (
	"bytes"
	"maps"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Options configure the markdown grammar.
type Options struct {
	// Extensions names goldmark extensions to enable (see DefaultExtensions).
	Extensions []string
	// UnsafeHTML keeps raw HTML found in the markdown. When false it is dropped.
	UnsafeHTML bool
	// HardWraps turns soft line breaks into line_break nodes.
	HardWraps bool
}

// Renderer parses markdown with goldmark and converts the result into
// display nodes. A Renderer is immutable and safe for concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	opts      Options
	overrides Overrides
}

// New constructs a renderer. The overrides map is copied.
func New(opts Options, overrides Overrides) *Renderer {
	engine := goldmark.New(
		goldmark.WithExtensions(collectExtensions(opts.Extensions)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	return &Renderer{
		md:        engine,
		opts:      opts,
		overrides: maps.Clone(overrides),
	}
}

// With returns a renderer that also applies o to nodes of the given kind,
// replacing any override already registered for it.
func (r *Renderer) With(kind Kind, o NodeOverride) *Renderer {
	next := *r
	next.overrides = maps.Clone(r.overrides)
	if next.overrides == nil {
		next.overrides = Overrides{}
	}
	next.overrides[kind] = o
	return &next
}

// Render parses body and returns its top-level display nodes.
func (r *Renderer) Render(body string) []*Node {
	return r.RenderWith(body, nil)
}

// RenderWith is Render with extra overrides that take precedence over the
// renderer's own for this call only.
func (r *Renderer) RenderWith(body string, extra Overrides) []*Node {
	overrides := r.overrides
	if len(extra) > 0 {
		overrides = maps.Clone(r.overrides)
		if overrides == nil {
			overrides = Overrides{}
		}
		maps.Copy(overrides, extra)
	}

	src := []byte(body)
	doc := r.md.Parser().Parse(text.NewReader(src))
	c := &converter{src: src, opts: r.opts, overrides: overrides}
	return c.children(doc)
}

type converter struct {
	src       []byte
	opts      Options
	overrides Overrides
}

func (c *converter) children(n ast.Node) []*Node {
	var out []*Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.convert(child)...)
	}
	return out
}

// convert builds the display nodes for n, children first, then applies the
// override registered for the resulting kind.
func (c *converter) convert(n ast.Node) []*Node {
	built, passthrough := c.build(n)
	if passthrough || len(c.overrides) == 0 {
		return built
	}
	out := make([]*Node, 0, len(built))
	for _, node := range built {
		if o, ok := c.overrides[node.Kind]; ok && o != nil {
			out = append(out, o.Override(node)...)
			continue
		}
		out = append(out, node)
	}
	return out
}

// build reports passthrough when n has no node of its own and the returned
// nodes are its already converted children.
func (c *converter) build(n ast.Node) (nodes []*Node, passthrough bool) {
	switch v := n.(type) {
	case *ast.Paragraph:
		return one(&Node{Kind: KindParagraph, Children: c.children(v)})

	case *ast.TextBlock:
		// Tight list items wrap their inline content in a text block that has
		// no presentation of its own.
		return c.children(v), true

	case *ast.Heading:
		node := &Node{Kind: KindHeading, Level: v.Level, Children: c.children(v)}
		if id, ok := v.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok && len(b) > 0 {
				node.Attrs = map[string]string{"id": string(b)}
			}
		}
		return one(node)

	case *ast.Text:
		return c.text(v), false

	case *ast.String:
		return one(&Node{Kind: KindText, Text: string(v.Value)})

	case *ast.Emphasis:
		kind := KindEmphasis
		if v.Level >= 2 {
			kind = KindStrong
		}
		return one(&Node{Kind: kind, Children: c.children(v)})

	case *ast.Link:
		attrs := map[string]string{"href": string(v.Destination)}
		if len(v.Title) > 0 {
			attrs["title"] = string(v.Title)
		}
		return one(&Node{Kind: KindLink, Attrs: attrs, Children: c.children(v)})

	case *ast.AutoLink:
		href := string(v.URL(c.src))
		if v.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			href = "mailto:" + href
		}
		return one(&Node{
			Kind:     KindLink,
			Attrs:    map[string]string{"href": href},
			Children: []*Node{{Kind: KindText, Text: string(v.Label(c.src))}},
		})

	case *ast.Image:
		attrs := map[string]string{
			"src": string(v.Destination),
			"alt": c.plainText(v),
		}
		if len(v.Title) > 0 {
			attrs["title"] = string(v.Title)
		}
		return one(&Node{Kind: KindImage, Attrs: attrs})

	case *ast.CodeSpan:
		return one(&Node{Kind: KindCodeSpan, Text: c.plainText(v)})

	case *ast.FencedCodeBlock:
		node := &Node{Kind: KindCodeBlock, Text: c.lines(v)}
		if lang := v.Language(c.src); len(lang) > 0 {
			node.Attrs = map[string]string{"language": string(lang)}
		}
		return one(node)

	case *ast.CodeBlock:
		return one(&Node{Kind: KindCodeBlock, Text: c.lines(v)})

	case *ast.List:
		attrs := map[string]string{}
		if v.IsOrdered() {
			attrs["ordered"] = "true"
			if v.Start != 1 {
				attrs["start"] = strconv.Itoa(v.Start)
			}
		}
		if len(attrs) == 0 {
			attrs = nil
		}
		return one(&Node{Kind: KindList, Attrs: attrs, Children: c.children(v)})

	case *ast.ListItem:
		return one(&Node{Kind: KindListItem, Children: c.children(v)})

	case *ast.Blockquote:
		return one(&Node{Kind: KindBlockquote, Children: c.children(v)})

	case *ast.ThematicBreak:
		return one(&Node{Kind: KindThematicBreak})

	case *ast.HTMLBlock:
		if !c.opts.UnsafeHTML {
			return nil, false
		}
		raw := c.lines(v)
		if v.HasClosure() {
			raw += string(v.ClosureLine.Value(c.src))
		}
		return one(&Node{Kind: KindHTML, Text: raw})

	case *ast.RawHTML:
		if !c.opts.UnsafeHTML {
			return nil, false
		}
		var b bytes.Buffer
		for i := 0; i < v.Segments.Len(); i++ {
			seg := v.Segments.At(i)
			b.Write(seg.Value(c.src))
		}
		return one(&Node{Kind: KindHTML, Text: b.String()})

	case *east.Strikethrough:
		return one(&Node{Kind: KindStrikethrough, Children: c.children(v)})

	case *east.Table:
		return one(&Node{Kind: KindTable, Children: c.children(v)})

	case *east.TableHeader:
		return one(&Node{Kind: KindTableRow, Attrs: map[string]string{"header": "true"}, Children: c.children(v)})

	case *east.TableRow:
		return one(&Node{Kind: KindTableRow, Children: c.children(v)})

	case *east.TableCell:
		node := &Node{Kind: KindTableCell, Children: c.children(v)}
		if v.Alignment != east.AlignNone {
			node.Attrs = map[string]string{"align": v.Alignment.String()}
		}
		return one(node)

	case *east.TaskCheckBox:
		return one(&Node{Kind: KindTaskCheckBox, Attrs: map[string]string{"checked": strconv.FormatBool(v.IsChecked)}})

	default:
		// Unknown kinds contribute their content without a wrapper.
		return c.children(n), true
	}
}

func (c *converter) text(v *ast.Text) []*Node {
	value := string(v.Segment.Value(c.src))
	switch {
	case v.HardLineBreak():
		return []*Node{{Kind: KindText, Text: value}, {Kind: KindLineBreak}}
	case v.SoftLineBreak() && c.opts.HardWraps:
		return []*Node{{Kind: KindText, Text: value}, {Kind: KindLineBreak}}
	case v.SoftLineBreak():
		return []*Node{{Kind: KindText, Text: value + "\n"}}
	default:
		return []*Node{{Kind: KindText, Text: value}}
	}
}

// plainText collects the literal text below n, used for image alt text and
// code spans.
func (c *converter) plainText(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(c.src))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func (c *converter) lines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.src))
	}
	return b.String()
}

func one(n *Node) ([]*Node, bool) { return []*Node{n}, false }
