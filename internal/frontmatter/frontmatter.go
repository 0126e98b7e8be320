// Package frontmatter splits a post file into its leading YAML metadata block
// and the markdown body that follows it.
package frontmatter

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// Delimiter opens and closes the metadata block. It must sit alone on its line.
const Delimiter = "---"

const (
	keyTitle   = "title"
	keyDate    = "date"
	keyPreview = "preview"
)

var bom = []byte("\xef\xbb\xbf")

// Fields is the decoded metadata block, keyed by field name.
type Fields map[string]any

// Metadata is the typed view of a post's front matter. Keys other than the
// named fields are kept in Extra.
type Metadata struct {
	Title   string
	Date    models.Date
	Preview string
	Extra   map[string]any
}

// Extract splits raw into its metadata block and body. When raw carries no
// leading block the fields are empty and body is the entire input. An opening
// delimiter without a closing one, or a block that is not a valid YAML
// mapping with unique keys, yields apperr.ErrMalformedMetadata.
func Extract(raw []byte) (Fields, string, error) {
	block, body, found, err := split(raw)
	if err != nil {
		return nil, "", err
	}
	fields := Fields{}
	if !found {
		return fields, body, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrMalformedMetadata, err)
	}
	if err := decodeMapping(&doc, fields); err != nil {
		return nil, "", err
	}
	return fields, body, nil
}

// decodeMapping fills fields from the block's top-level mapping. Scalars keep
// the text the author wrote, so timestamps stay strings; collections are
// decoded into plain Go values.
func decodeMapping(doc *yaml.Node, fields Fields) error {
	if doc.Kind == 0 {
		return nil
	}
	root := doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil
		}
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: front matter is not a mapping", apperr.ErrMalformedMetadata)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], resolveAlias(root.Content[i+1])
		if _, dup := fields[key.Value]; dup {
			return fmt.Errorf("%w: key %q defined twice", apperr.ErrMalformedMetadata, key.Value)
		}
		v, err := nodeValue(key.Value, value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", apperr.ErrMalformedMetadata, key.Value, err)
		}
		fields[key.Value] = v
	}
	return nil
}

func nodeValue(key string, n *yaml.Node) (any, error) {
	if n.Kind == yaml.ScalarNode {
		switch {
		case n.Tag == "!!null":
			return nil, nil
		case n.Tag == "!!timestamp", isNamed(key):
			return n.Value, nil
		}
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func isNamed(key string) bool {
	return key == keyTitle || key == keyDate || key == keyPreview
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// Parse extracts the front matter of raw and converts it into Metadata.
func Parse(raw []byte) (Metadata, string, error) {
	fields, body, err := Extract(raw)
	if err != nil {
		return Metadata{}, "", err
	}
	meta, err := fields.Metadata()
	if err != nil {
		return Metadata{}, "", err
	}
	return meta, body, nil
}

// Metadata converts the decoded fields into the typed record. The named
// fields must be scalars.
func (f Fields) Metadata() (Metadata, error) {
	var m Metadata
	for key, value := range f {
		switch key {
		case keyTitle, keyDate, keyPreview:
			s, ok := scalarString(value)
			if !ok {
				return Metadata{}, fmt.Errorf("%w: field %q must be a scalar", apperr.ErrMalformedMetadata, key)
			}
			switch key {
			case keyTitle:
				m.Title = s
			case keyDate:
				m.Date = models.Date(s)
			case keyPreview:
				m.Preview = s
			}
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[key] = value
		}
	}
	return m, nil
}

// Compose writes meta and body back into a post file. Named fields come first
// and extra keys follow in sorted order. A Metadata with no fields produces
// the body alone.
func Compose(meta Metadata, body string) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}

	add := func(key string, value *yaml.Node) {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}
	encode := func(v any) (*yaml.Node, error) {
		var n yaml.Node
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return &n, nil
	}

	if meta.Title != "" {
		n, err := encode(meta.Title)
		if err != nil {
			return nil, fmt.Errorf("frontmatter: encode title: %w", err)
		}
		add(keyTitle, n)
	}
	if !meta.Date.IsZero() {
		var n *yaml.Node
		if meta.Date.IsISO() {
			// Bare dates are written unquoted, as authors write them.
			n = &yaml.Node{Kind: yaml.ScalarNode, Value: meta.Date.String()}
		} else {
			var err error
			if n, err = encode(meta.Date.String()); err != nil {
				return nil, fmt.Errorf("frontmatter: encode date: %w", err)
			}
		}
		add(keyDate, n)
	}
	if meta.Preview != "" {
		n, err := encode(meta.Preview)
		if err != nil {
			return nil, fmt.Errorf("frontmatter: encode preview: %w", err)
		}
		add(keyPreview, n)
	}

	keys := make([]string, 0, len(meta.Extra))
	for k := range meta.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n, err := encode(meta.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("frontmatter: encode %s: %w", k, err)
		}
		add(k, n)
	}

	if len(mapping.Content) == 0 {
		return []byte(body), nil
	}

	block, err := yaml.Marshal(mapping)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: marshal: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(Delimiter + "\n")
	buf.Write(block)
	buf.WriteString(Delimiter + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// split locates the metadata block. The first line must consist solely of the
// delimiter; the block runs to the next such line and the body is everything
// after it, verbatim.
func split(raw []byte) (block []byte, body string, found bool, err error) {
	data := bytes.TrimPrefix(raw, bom)

	first, rest, hasNewline := bytes.Cut(data, []byte("\n"))
	if !isDelimiter(first) {
		return nil, string(raw), false, nil
	}
	if !hasNewline {
		return nil, "", false, fmt.Errorf("%w: missing closing %s", apperr.ErrMalformedMetadata, Delimiter)
	}

	offset := 0
	for offset <= len(rest) {
		line, _, _ := bytes.Cut(rest[offset:], []byte("\n"))
		end := offset + len(line)
		if isDelimiter(line) {
			if end < len(rest) {
				end++ // consume the newline ending the delimiter line
			}
			return rest[:offset], string(rest[end:]), true, nil
		}
		if end >= len(rest) {
			break
		}
		offset = end + 1
	}
	return nil, "", false, fmt.Errorf("%w: missing closing %s", apperr.ErrMalformedMetadata, Delimiter)
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == Delimiter
}

// scalarString renders a decoded YAML scalar as text. Mappings and sequences
// report false.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return fmt.Sprint(t), true
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}
