package frontmatter

import (
	"errors"
	"testing"

	"github.com/starford/folio/internal/apperr"
)

func TestExtract_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: First\ndate: 2023-01-01\n---\nHello **world**")
	fields, body, err := Extract(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["title"] != "First" {
		t.Errorf("title = %v, want First", fields["title"])
	}
	if fields["date"] != "2023-01-01" {
		t.Errorf("date = %v (%T), want the string 2023-01-01", fields["date"], fields["date"])
	}
	if body != "Hello **world**" {
		t.Errorf("body = %q", body)
	}
}

func TestExtract_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	fields, body, err := Extract(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("expected empty fields, got %v", fields)
	}
	if body != string(input) {
		t.Errorf("body = %q, want entire input", body)
	}
}

func TestExtract_DelimiterNotOnFirstLine(t *testing.T) {
	input := []byte("intro\n---\ntitle: x\n---\n")
	fields, body, err := Extract(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 0 || body != string(input) {
		t.Errorf("block after first line must not be treated as front matter")
	}
}

func TestExtract_MissingClosingDelimiter(t *testing.T) {
	for _, input := range []string{
		"---\ntitle: Broken\nbody text",
		"---\n",
		"---",
		"---\ntitle: x\n--- not a delimiter\n",
	} {
		_, _, err := Extract([]byte(input))
		if !errors.Is(err, apperr.ErrMalformedMetadata) {
			t.Errorf("Extract(%q) err = %v, want ErrMalformedMetadata", input, err)
		}
	}
}

func TestExtract_InvalidYAML(t *testing.T) {
	_, _, err := Extract([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if !errors.Is(err, apperr.ErrMalformedMetadata) {
		t.Errorf("err = %v, want ErrMalformedMetadata", err)
	}
}

func TestExtract_EmptyBlock(t *testing.T) {
	fields, body, err := Extract([]byte("---\n---\nbody"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("fields = %v, want empty", fields)
	}
	if body != "body" {
		t.Errorf("body = %q", body)
	}
}

func TestExtract_CRLFAndBOM(t *testing.T) {
	input := []byte("\xef\xbb\xbf---\r\ntitle: Windows\r\n---\r\nline one\r\n")
	fields, body, err := Extract(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["title"] != "Windows" {
		t.Errorf("title = %v", fields["title"])
	}
	if body != "line one\r\n" {
		t.Errorf("body = %q", body)
	}
}

func TestExtract_BodyVerbatim(t *testing.T) {
	input := []byte("---\ntitle: T\n---\n\n\n# Heading\n---\nmore\n")
	_, body, err := Extract(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "\n\n# Heading\n---\nmore\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParse_TypedFields(t *testing.T) {
	input := []byte("---\ntitle: Second\ndate: 2023-06-01\npreview: A short summary\nauthor: me\n---\nbody")
	meta, body, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Title != "Second" || meta.Date != "2023-06-01" || meta.Preview != "A short summary" {
		t.Errorf("meta = %+v", meta)
	}
	if meta.Extra["author"] != "me" {
		t.Errorf("extra = %v", meta.Extra)
	}
	if body != "body" {
		t.Errorf("body = %q", body)
	}
}

func TestParse_MissingFieldsTolerated(t *testing.T) {
	meta, _, err := Parse([]byte("---\npreview: only a preview\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Title != "" || !meta.Date.IsZero() {
		t.Errorf("meta = %+v, want empty title and date", meta)
	}
}

func TestParse_ScalarCoercion(t *testing.T) {
	meta, _, err := Parse([]byte("---\ntitle: 2024\ndate: 2023-01-01T10:30:00Z\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Title != "2024" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Date != "2023-01-01T10:30:00Z" {
		t.Errorf("date = %q", meta.Date)
	}
}

func TestParse_NonScalarTitle(t *testing.T) {
	_, _, err := Parse([]byte("---\ntitle:\n  - a\n  - b\n---\n"))
	if !errors.Is(err, apperr.ErrMalformedMetadata) {
		t.Errorf("err = %v, want ErrMalformedMetadata", err)
	}
}

func TestCompose_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		meta Metadata
		body string
	}{
		{"full", Metadata{Title: "First", Date: "2023-01-01", Preview: "p"}, "Hello **world**"},
		{"quoted title", Metadata{Title: "true", Date: "June 3, 2021"}, "x\n"},
		{"colon in title", Metadata{Title: "Go: a tour"}, ""},
		{"extra keys", Metadata{Title: "T", Extra: map[string]any{"author": "me", "draft": true}}, "b"},
		{"no fields", Metadata{}, "just body\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := Compose(tc.meta, tc.body)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			meta, body, err := Parse(raw)
			if err != nil {
				t.Fatalf("Parse(%q): %v", raw, err)
			}
			if meta.Title != tc.meta.Title || meta.Date != tc.meta.Date || meta.Preview != tc.meta.Preview {
				t.Errorf("meta = %+v, want %+v", meta, tc.meta)
			}
			if len(meta.Extra) != len(tc.meta.Extra) {
				t.Errorf("extra = %v, want %v", meta.Extra, tc.meta.Extra)
			}
			for k, v := range tc.meta.Extra {
				if meta.Extra[k] != v {
					t.Errorf("extra[%s] = %v, want %v", k, meta.Extra[k], v)
				}
			}
			if body != tc.body {
				t.Errorf("body = %q, want %q", body, tc.body)
			}
		})
	}
}

func TestCompose_BareDate(t *testing.T) {
	raw, err := Compose(Metadata{Date: "2023-01-01"}, "")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if string(raw) != "---\ndate: 2023-01-01\n---\n" {
		t.Errorf("raw = %q", raw)
	}
}

func TestParse_DateKeepsAuthorText(t *testing.T) {
	for _, date := range []string{
		"2023-01-01",
		"2023-01-01T09:30:00.500Z",
		"2023-01-01T09:30:00.200Z",
		"2023-01-01 10:00:00",
		"2023-01-01t10:00:00+02:00",
	} {
		meta, _, err := Parse([]byte("---\ndate: " + date + "\n---\n"))
		if err != nil {
			t.Fatalf("Parse(%q): %v", date, err)
		}
		if meta.Date.String() != date {
			t.Errorf("date = %q, want %q", meta.Date, date)
		}
	}
}

func TestExtract_TimestampInExtraStaysText(t *testing.T) {
	fields, _, err := Extract([]byte("---\nupdated: 2024-02-03 08:00:00\ndraft: true\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["updated"] != "2024-02-03 08:00:00" {
		t.Errorf("updated = %v (%T)", fields["updated"], fields["updated"])
	}
	if fields["draft"] != true {
		t.Errorf("draft = %v (%T), want bool", fields["draft"], fields["draft"])
	}
}

func TestExtract_NamedFieldsKeepSourceText(t *testing.T) {
	fields, _, err := Extract([]byte("---\ntitle: 007\npreview: ~\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fields["title"] != "007" {
		t.Errorf("title = %v (%T)", fields["title"], fields["title"])
	}
	if fields["preview"] != nil {
		t.Errorf("preview = %v, want nil", fields["preview"])
	}
}

func TestExtract_BlockMustBeMapping(t *testing.T) {
	for _, input := range []string{
		"---\n- a\n- b\n---\n",
		"---\njust text\n---\n",
		"---\ntitle: a\ntitle: b\n---\n",
	} {
		_, _, err := Extract([]byte(input))
		if !errors.Is(err, apperr.ErrMalformedMetadata) {
			t.Errorf("Extract(%q) err = %v, want ErrMalformedMetadata", input, err)
		}
	}
}

func TestExtract_CommentOnlyBlock(t *testing.T) {
	fields, _, err := Extract([]byte("---\n# nothing yet\n---\nbody"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("fields = %v, want empty", fields)
	}
}
