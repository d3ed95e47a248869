package lino

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func mustParse(t *testing.T, input string) []*Link {
	t.Helper()
	links, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", input, err)
	}
	return links
}

func TestParseSimpleLink(t *testing.T) {
	links := mustParse(t, "(1: 1 1)")
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if got := links[0].String(); got != "(1: 1 1)" {
		t.Errorf("expected %q, got %q", "(1: 1 1)", got)
	}
}

func TestParseSingleLineLink(t *testing.T) {
	links := mustParse(t, "papa: loves mama")
	if got, _ := links[0].ID(); got != "papa" {
		t.Errorf("expected id %q, got %q", "papa", got)
	}
	if len(links[0].Values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(links[0].Values))
	}
	if got, _ := links[0].Values[0].ID(); got != "loves" {
		t.Errorf("expected %q, got %q", "loves", got)
	}
	if got, _ := links[0].Values[1].ID(); got != "mama" {
		t.Errorf("expected %q, got %q", "mama", got)
	}
}

func TestParseBareWord(t *testing.T) {
	links := mustParse(t, "test")
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	// A bare word becomes a singlet: an anonymous link holding one ref.
	if len(links[0].Values) != 1 {
		t.Fatalf("expected 1 value, got %d", len(links[0].Values))
	}
	if got, _ := links[0].Values[0].ID(); got != "test" {
		t.Errorf("expected %q, got %q", "test", got)
	}
}

func TestParseValueOnlyLink(t *testing.T) {
	links := mustParse(t, "(value1 value2 value3)")
	if len(links[0].IDs) != 0 {
		t.Errorf("expected no identity, got %v", links[0].IDs)
	}
	if len(links[0].Values) != 3 {
		t.Errorf("expected 3 values, got %d", len(links[0].Values))
	}
}

func TestParseNestedLink(t *testing.T) {
	links := mustParse(t, "(outer: (inner: value))")
	if got, _ := links[0].ID(); got != "outer" {
		t.Errorf("expected id %q, got %q", "outer", got)
	}
	inner := links[0].Values[0]
	if got, _ := inner.ID(); got != "inner" {
		t.Errorf("expected id %q, got %q", "inner", got)
	}
	if got, _ := inner.Values[0].ID(); got != "value" {
		t.Errorf("expected %q, got %q", "value", got)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t  "} {
		links, err := Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", input, err)
		}
		if len(links) != 0 {
			t.Errorf("Parse(%q): expected no links, got %d", input, len(links))
		}
	}
}

func TestParseEmptyIdentity(t *testing.T) {
	links := mustParse(t, "(: value1 value2)")
	if len(links[0].IDs) != 0 {
		t.Errorf("expected no identity, got %v", links[0].IDs)
	}
	if len(links[0].Values) != 2 {
		t.Errorf("expected 2 values, got %d", len(links[0].Values))
	}
}

func TestParsePrefixParenthesizedValue(t *testing.T) {
	links := mustParse(t, "(papa and mama) are happy")
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	if len(links[0].Values) != 3 {
		t.Fatalf("expected 3 values, got %d", len(links[0].Values))
	}
	if len(links[0].Values[0].Values) != 3 {
		t.Errorf("expected 3 nested values, got %d", len(links[0].Values[0].Values))
	}
}

func TestParseColonInsideNestedParens(t *testing.T) {
	links := mustParse(t, "((str key) (obj_1: dict value))")
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
	outer := links[0]
	if len(outer.IDs) != 0 {
		t.Fatalf("expected anonymous outer link, got identity %v", outer.IDs)
	}
	if len(outer.Values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(outer.Values))
	}
	if got, _ := outer.Values[1].ID(); got != "obj_1" {
		t.Errorf("expected id %q, got %q", "obj_1", got)
	}
}

func TestParseEmbeddedNewlineInParens(t *testing.T) {
	links := mustParse(t, "(multi\nline)")
	if len(links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(links))
	}
}

// Indentation tests.

func TestIndentationPaths(t *testing.T) {
	input := "a\n    b\n    c"
	want := "(a)\n((a) (b))\n((a) (c))"
	got := Format(mustParse(t, input))
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestIndentationBaseOffset(t *testing.T) {
	// A uniformly shifted document parses like an unshifted one.
	shifted := "  users\n    user1"
	want := "(users)\n((users) (user1))"
	got := Format(mustParse(t, shifted))
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestIndentationLinkCounts(t *testing.T) {
	cases := []struct {
		name  string
		input string
		count int
	}{
		{"flat children", "parent\n  child1\n  child2", 3},
		{"grandchild", "parent\n  child1\n  child2\n    grandchild", 4},
		{"two branches", "root\n  level1a\n    level2a\n    level2b\n  level1b\n    level2c", 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			links := mustParse(t, tc.input)
			if len(links) != tc.count {
				t.Errorf("expected %d links, got %d", tc.count, len(links))
			}
		})
	}
}

func TestInconsistentIndentation(t *testing.T) {
	// c is shallower than b but deeper than a; it attaches to the
	// nearest ancestor with strictly smaller indent.
	input := "a\n    b\n  c"
	want := "(a)\n((a) (b))\n((a) (c))"
	got := Format(mustParse(t, input))
	if got != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, got)
	}
}

func TestIndentedIDSyntax(t *testing.T) {
	input := "id:\n  value1\n  value2"
	got := Format(mustParse(t, input))
	if got != "(id: value1 value2)" {
		t.Errorf("expected %q, got %q", "(id: value1 value2)", got)
	}
}

func TestIndentedIDSyntaxMultiple(t *testing.T) {
	input := "id1:\n  a\n  b\nid2:\n  c\n  d"
	got := Format(mustParse(t, input))
	want := "(id1: a b)\n(id2: c d)"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestIndentedIDMatchesInline(t *testing.T) {
	indented := Format(mustParse(t, "id:\n  value1\n  value2"))
	inline := Format(mustParse(t, "(id: value1 value2)"))
	if indented != inline {
		t.Errorf("indented %q differs from inline %q", indented, inline)
	}
}

func TestMixedInlineAndIndented(t *testing.T) {
	input := "(inline: value1 value2)\nindented:\n  a\n  b"
	links := mustParse(t, input)
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
}

// Quote handling tests.

func TestQuotedStrings(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"double", `("hello world")`, "hello world"},
		{"single", `('hello world')`, "hello world"},
		{"backtick", "(`hello world`)", "hello world"},
		{"triple double", `("""hello "world" test""")`, `hello "world" test`},
		{"triple single", `('''can't stop''')`, "can't stop"},
		{"escaped run", `("hello ""world"" x")`, `hello "world" x`},
		{"five quotes", `("""""deep quoting""""")`, "deep quoting"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			links := mustParse(t, tc.input)
			if len(links) == 0 || len(links[0].Values) == 0 {
				t.Fatalf("Parse(%q): no values", tc.input)
			}
			got, err := links[0].Values[0].ID()
			if err != nil {
				t.Fatalf("ID() failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestQuoteWidthGenerality(t *testing.T) {
	quotes := []struct {
		name string
		char string
	}{
		{"double", `"`},
		{"single", "'"},
		{"backtick", "`"},
	}
	for _, q := range quotes {
		for n := 1; n <= 5; n++ {
			run := strings.Repeat(q.char, n)
			t.Run(fmt.Sprintf("%s width %d", q.name, n), func(t *testing.T) {
				input := "(" + run + "wide content" + run + ")"
				links := mustParse(t, input)
				got, err := links[0].Values[0].ID()
				if err != nil {
					t.Fatalf("ID() failed: %v", err)
				}
				if got != "wide content" {
					t.Errorf("expected %q, got %q", "wide content", got)
				}

				if n > 1 {
					// A shorter run of the same quote stays literal.
					content := "a " + strings.Repeat(q.char, n-1) + "b"
					links = mustParse(t, "("+run+content+run+")")
					got, err = links[0].Values[0].ID()
					if err != nil {
						t.Fatalf("ID() failed: %v", err)
					}
					if got != content {
						t.Errorf("expected %q, got %q", content, got)
					}
				}

				// A run of 2N decodes to a literal run of N.
				escaped := "(" + run + "x " + run + run + " y" + run + ")"
				links = mustParse(t, escaped)
				got, err = links[0].Values[0].ID()
				if err != nil {
					t.Fatalf("ID() failed: %v", err)
				}
				want := "x " + run + " y"
				if got != want {
					t.Errorf("expected %q, got %q", want, got)
				}
			})
		}
	}
}

func TestQuotedIdentity(t *testing.T) {
	links := mustParse(t, `('a a': 'b b' "c c")`)
	id, err := links[0].ID()
	if err != nil {
		t.Fatalf("ID() failed: %v", err)
	}
	if id != "a a" {
		t.Errorf("expected id %q, got %q", "a a", id)
	}
	if len(links[0].Values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(links[0].Values))
	}
	if got, _ := links[0].Values[0].ID(); got != "b b" {
		t.Errorf("expected %q, got %q", "b b", got)
	}
}

func TestQuotedSpecialCharacters(t *testing.T) {
	links := mustParse(t, `("key:with:colons": "value(with)parens")`)
	id, err := links[0].ID()
	if err != nil {
		t.Fatalf("ID() failed: %v", err)
	}
	if id != "key:with:colons" {
		t.Errorf("expected id %q, got %q", "key:with:colons", id)
	}
	if got, _ := links[0].Values[0].ID(); got != "value(with)parens" {
		t.Errorf("expected %q, got %q", "value(with)parens", got)
	}
}

func TestHyphenatedIdentifiers(t *testing.T) {
	input := "(ignore conan-center-index repository)"
	got := Format(mustParse(t, input))
	if got != input {
		t.Errorf("expected %q, got %q", input, got)
	}
}

// Limit and validation tests.

func TestMaxInputSize(t *testing.T) {
	p := NewParser(WithMaxInputSize(10))
	_, err := p.Parse("this input is longer than ten bytes")
	if err == nil {
		t.Fatal("expected error for oversized input")
	}
	var sizeErr *SizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("expected *SizeError, got %T", err)
	}
	if sizeErr.Limit != 10 {
		t.Errorf("expected limit 10, got %d", sizeErr.Limit)
	}
}

func TestMaxDepthParentheses(t *testing.T) {
	p := NewParser(WithMaxDepth(3))
	_, err := p.Parse("(a: (b: (c: (d: (e: f)))))")
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError wrapper, got %T", err)
	}
}

func TestMaxDepthIndentation(t *testing.T) {
	p := NewParser(WithMaxDepth(2))
	_, err := p.Parse("a\n  b\n    c")
	if !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("expected ErrDepthExceeded, got %v", err)
	}
}

func TestDeepNestingWithinLimit(t *testing.T) {
	depth := 100
	input := strings.Repeat("(a: ", depth) + "x" + strings.Repeat(")", depth)
	if _, err := Parse(input); err != nil {
		t.Fatalf("Parse failed at depth %d: %v", depth, err)
	}
}

func TestInvalidUTF8Input(t *testing.T) {
	_, err := Parse("\xff\xfe broken")
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("expected ErrInvalidUTF8, got %v", err)
	}
}

func TestBinaryInput(t *testing.T) {
	_, err := Parse("text with a NUL \x00 byte")
	if !errors.Is(err, ErrBinaryInput) {
		t.Fatalf("expected ErrBinaryInput, got %v", err)
	}
}

func TestParserReuseResetsState(t *testing.T) {
	p := NewParser()
	if _, err := p.Parse("(some example: x)"); err != nil {
		t.Fatalf("first Parse failed: %v", err)
	}
	// The definition from the first call must not leak into the second.
	links, err := p.Parse("(a: some example)")
	if err != nil {
		t.Fatalf("second Parse failed: %v", err)
	}
	if len(links[0].Values) != 2 {
		t.Errorf("expected 2 separate values, got %d", len(links[0].Values))
	}
}

func TestMultipleLinksPerDocument(t *testing.T) {
	links := mustParse(t, "(papa has car)\n(mama has house)")
	if len(links) != 2 {
		t.Errorf("expected 2 links, got %d", len(links))
	}
}

func TestDocumentWithBlankLines(t *testing.T) {
	links := mustParse(t, "(a: 1)\n\n\n(b: 2)")
	if len(links) != 2 {
		t.Errorf("expected 2 links, got %d", len(links))
	}
}
