package lino

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxInputSize caps Parse input at 10 MiB.
	DefaultMaxInputSize = 10 * 1024 * 1024
	// DefaultMaxDepth caps nesting depth, for both indentation and
	// parenthesized values.
	DefaultMaxDepth = 1000
)

// Parser parses Lino notation into Link trees.
//
// A Parser holds per-call scratch state and is reset at the start of
// every Parse. Sequential reuse is fine; concurrent calls on one
// instance are not.
type Parser struct {
	// MaxInputSize bounds accepted input length in bytes.
	MaxInputSize int
	// MaxDepth bounds nesting depth of indentation and parentheses.
	MaxDepth int
	// MultiRefContext enables context-aware recognition of multi-word
	// references inside value lists.
	MultiRefContext bool

	// Per-call scratch, fully reset by Parse.
	lines        []string
	multiRefs    map[string][]string
	multiRefDefs [][]string
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMaxInputSize overrides the input size cap.
func WithMaxInputSize(size int) ParserOption {
	return func(p *Parser) {
		p.MaxInputSize = size
	}
}

// WithMaxDepth overrides the nesting depth cap.
func WithMaxDepth(depth int) ParserOption {
	return func(p *Parser) {
		p.MaxDepth = depth
	}
}

// WithMultiRefContext enables or disables multi-word reference
// recognition in value lists.
func WithMultiRefContext(enabled bool) ParserOption {
	return func(p *Parser) {
		p.MultiRefContext = enabled
	}
}

// NewParser returns a Parser with default limits and multi-reference
// recognition enabled.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		MaxInputSize:    DefaultMaxInputSize,
		MaxDepth:        DefaultMaxDepth,
		MultiRefContext: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses input with a fresh default Parser.
func Parse(input string) ([]*Link, error) {
	return NewParser().Parse(input)
}

// rawLink is the parser's intermediate node before multi-reference
// resolution and path materialization.
type rawLink struct {
	id         []string
	values     []*rawLink
	children   []*rawLink
	indentedID bool
}

// Parse parses Lino notation text into a list of Link trees.
//
// Validation errors (non-text input, size limit) surface unchanged;
// structural faults are wrapped in a *ParseError.
func (p *Parser) Parse(input string) ([]*Link, error) {
	if err := ValidateText(input); err != nil {
		return nil, err
	}
	if len(input) > p.MaxInputSize {
		return nil, &SizeError{Size: len(input), Limit: p.MaxInputSize}
	}
	p.reset()
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	p.lines = splitLogicalLines(input)
	raw, err := p.parseDocument()
	if err != nil {
		return nil, &ParseError{Msg: "document", Err: err}
	}
	return p.transformResult(raw), nil
}

func (p *Parser) reset() {
	p.lines = nil
	p.multiRefs = nil
	p.multiRefDefs = nil
}

// splitLogicalLines splits text on newline, except inside quoted runs or
// unbalanced parenthesis spans: multi-line strings and multi-line
// parenthesized expressions stay on one logical line.
func splitLogicalLines(text string) []string {
	var lines []string
	var current strings.Builder
	var inSingle, inDouble, inBacktick bool
	parenDepth := 0

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '"':
			if !inSingle && !inBacktick {
				inDouble = !inDouble
			}
			current.WriteByte(c)
		case '\'':
			if !inDouble && !inBacktick {
				inSingle = !inSingle
			}
			current.WriteByte(c)
		case '`':
			if !inSingle && !inDouble {
				inBacktick = !inBacktick
			}
			current.WriteByte(c)
		case '(':
			if !inSingle && !inDouble && !inBacktick {
				parenDepth++
			}
			current.WriteByte(c)
		case ')':
			if !inSingle && !inDouble && !inBacktick {
				parenDepth--
			}
			current.WriteByte(c)
		case '\n':
			if inSingle || inDouble || inBacktick || parenDepth > 0 {
				current.WriteByte(c)
			} else {
				lines = append(lines, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// parseDocument builds the indentation tree with an explicit frame
// stack. The first non-blank line fixes the base indentation; every
// later line is measured relative to it, so uniformly shifted input
// parses like unshifted input. A line attaches to the nearest open
// ancestor with strictly smaller indent, which also settles inconsistent
// indentation deterministically.
func (p *Parser) parseDocument() ([]*rawLink, error) {
	type frame struct {
		node   *rawLink
		indent int
	}
	var roots []*rawLink
	var stack []frame
	base := -1

	for _, line := range p.lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rawIndent := countLeadingSpaces(line)
		if base < 0 {
			base = rawIndent
		}
		indent := rawIndent - base
		if indent < 0 {
			indent = 0
		}
		node, err := p.parseLineContent(strings.TrimSpace(line), 0)
		if err != nil {
			return nil, err
		}
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1].node
			parent.children = append(parent.children, node)
		}
		if len(stack) >= p.MaxDepth {
			return nil, ErrDepthExceeded
		}
		stack = append(stack, frame{node: node, indent: indent})
	}
	return roots, nil
}

func countLeadingSpaces(s string) int {
	n := 0
	for n < len(s) && s[n] == ' ' {
		n++
	}
	return n
}

// parseLineContent parses one trimmed logical line.
func (p *Parser) parseLineContent(content string, depth int) (*rawLink, error) {
	if depth > p.MaxDepth {
		return nil, ErrDepthExceeded
	}

	// (id: values) or (values)
	if strings.HasPrefix(content, "(") && strings.HasSuffix(content, ")") {
		inner := strings.TrimSpace(content[1 : len(content)-1])
		return p.parseParenthesized(inner, depth+1)
	}

	// Indented-id syntax: values come from deeper-indented lines.
	if strings.HasSuffix(content, ":") {
		idPart := strings.TrimSpace(content[:len(content)-1])
		return &rawLink{id: parseIdentity(idPart), indentedID: true}, nil
	}

	// Single-line link: id: values
	if strings.Contains(content, ":") && !strings.HasPrefix(content, "\"") && !strings.HasPrefix(content, "'") {
		if colon := findColonOutsideQuotes(content); colon >= 0 {
			values, err := p.parseValues(strings.TrimSpace(content[colon+1:]), depth+1)
			if err != nil {
				return nil, err
			}
			return &rawLink{id: parseIdentity(strings.TrimSpace(content[:colon])), values: values}, nil
		}
	}

	values, err := p.parseValues(content, depth+1)
	if err != nil {
		return nil, err
	}
	return &rawLink{values: values}, nil
}

func (p *Parser) parseParenthesized(inner string, depth int) (*rawLink, error) {
	if depth > p.MaxDepth {
		return nil, ErrDepthExceeded
	}
	if colon := findColonOutsideQuotes(inner); colon >= 0 {
		values, err := p.parseValues(strings.TrimSpace(inner[colon+1:]), depth)
		if err != nil {
			return nil, err
		}
		return &rawLink{id: parseIdentity(strings.TrimSpace(inner[:colon])), values: values}, nil
	}
	values, err := p.parseValues(inner, depth)
	if err != nil {
		return nil, err
	}
	return &rawLink{values: values}, nil
}

// parseIdentity resolves the pre-colon segment. A quoted run is one
// scalar part regardless of internal spaces; otherwise each
// space-separated word becomes a part.
func parseIdentity(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	switch text[0] {
	case '"', '\'', '`':
		return []string{extractReference(text)}
	}
	return strings.Fields(text)
}

// findColonOutsideQuotes returns the index of the first colon that sits
// outside quoted runs and outside any parenthesis span, or -1. Colons
// nested in "((a b) (c: d))" never separate the outer link.
func findColonOutsideQuotes(text string) int {
	var inSingle, inDouble, inBacktick bool
	parenDepth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\'':
			if !inDouble && !inBacktick {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle && !inBacktick {
				inDouble = !inDouble
			}
		case '`':
			if !inSingle && !inDouble {
				inBacktick = !inBacktick
			}
		case '(':
			if !inSingle && !inDouble && !inBacktick {
				parenDepth++
			}
		case ')':
			if !inSingle && !inDouble && !inBacktick {
				parenDepth--
			}
		case ':':
			if !inSingle && !inDouble && !inBacktick && parenDepth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseValues splits a value list on unquoted whitespace.
func (p *Parser) parseValues(text string, depth int) ([]*rawLink, error) {
	if text == "" {
		return nil, nil
	}
	var values []*rawLink
	i := 0
	for i < len(text) {
		for i < len(text) && isWhitespace(text[i]) {
			i++
		}
		if i >= len(text) {
			break
		}
		end, valueText := extractNextValue(text, i)
		if strings.TrimSpace(valueText) != "" {
			value, err := p.parseValue(valueText, depth)
			if err != nil {
				return nil, err
			}
			values = append(values, value)
		}
		if end == i {
			i++ // no progress, skip the byte
		} else {
			i = end
		}
	}
	return values, nil
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// extractNextValue returns the end offset and text of the next value
// starting at start: a multi-quote string, a parenthesized
// sub-expression, or a bare word.
func extractNextValue(text string, start int) (int, string) {
	if start >= len(text) {
		return start, ""
	}

	for _, quote := range []byte{'"', '\'', '`'} {
		if text[start] != quote {
			continue
		}
		quoteCount := 0
		pos := start
		for pos < len(text) && text[pos] == quote {
			quoteCount++
			pos++
		}
		remaining := text[start:]
		openClose := strings.Repeat(string(quote), quoteCount)
		escapeSeq := strings.Repeat(string(quote), quoteCount*2)

		inner := len(openClose)
		for inner < len(remaining) {
			if strings.HasPrefix(remaining[inner:], escapeSeq) {
				inner += len(escapeSeq)
				continue
			}
			if strings.HasPrefix(remaining[inner:], openClose) {
				after := inner + len(openClose)
				// Exactly N closing quotes, not more.
				if after >= len(remaining) || remaining[after] != quote {
					return start + after, remaining[:after]
				}
			}
			inner++
		}
		// No closing run found; fall through to the bare-word scan.
		break
	}

	if text[start] == '(' {
		parenDepth := 1
		var inSingle, inDouble, inBacktick bool
		i := start + 1
		for i < len(text) && parenDepth > 0 {
			switch text[i] {
			case '\'':
				if !inDouble && !inBacktick {
					inSingle = !inSingle
				}
			case '"':
				if !inSingle && !inBacktick {
					inDouble = !inDouble
				}
			case '`':
				if !inSingle && !inDouble {
					inBacktick = !inBacktick
				}
			case '(':
				if !inSingle && !inDouble && !inBacktick {
					parenDepth++
				}
			case ')':
				if !inSingle && !inDouble && !inBacktick {
					parenDepth--
				}
			}
			i++
		}
		return i, text[start:i]
	}

	var inSingle, inDouble, inBacktick bool
	i := start
	for i < len(text) {
		switch text[i] {
		case '\'':
			if !inDouble && !inBacktick {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle && !inBacktick {
				inDouble = !inDouble
			}
		case '`':
			if !inSingle && !inDouble {
				inBacktick = !inBacktick
			}
		case ' ':
			if !inSingle && !inDouble && !inBacktick {
				return i, text[start:i]
			}
		}
		i++
	}
	return i, text[start:i]
}

func (p *Parser) parseValue(value string, depth int) (*rawLink, error) {
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		inner := strings.TrimSpace(value[1 : len(value)-1])
		return p.parseParenthesized(inner, depth+1)
	}
	return &rawLink{id: []string{extractReference(value)}}, nil
}

// extractReference decodes a possibly quoted reference.
func extractReference(text string) string {
	text = strings.TrimSpace(text)
	for _, quote := range []byte{'"', '\'', '`'} {
		if len(text) == 0 || text[0] != quote {
			continue
		}
		quoteCount := 0
		for quoteCount < len(text) && text[quoteCount] == quote {
			quoteCount++
		}
		if len(text) > quoteCount {
			if decoded, ok := decodeMultiQuote(text, quote, quoteCount); ok {
				return decoded
			}
		}
	}
	return text
}

// decodeMultiQuote decodes a string delimited by a run of N identical
// quote characters. A run of 2N inside is an escaped literal of N quote
// characters; a run of exactly N (not followed by another quote of the
// same kind) closes the string.
func decodeMultiQuote(text string, quote byte, quoteCount int) (string, bool) {
	openClose := strings.Repeat(string(quote), quoteCount)
	escapeSeq := strings.Repeat(string(quote), quoteCount*2)

	if !strings.HasPrefix(text, openClose) {
		return "", false
	}
	remaining := text[len(openClose):]
	var content strings.Builder

	for len(remaining) > 0 {
		if strings.HasPrefix(remaining, escapeSeq) {
			content.WriteString(openClose)
			remaining = remaining[len(escapeSeq):]
			continue
		}
		if strings.HasPrefix(remaining, openClose) {
			after := remaining[len(openClose):]
			if after == "" || after[0] != quote {
				return content.String(), true
			}
		}
		content.WriteByte(remaining[0])
		remaining = remaining[1:]
	}
	return "", false
}

// transformResult turns the raw parse tree into the public Link list:
// pass 1 collects multi-part identity definitions, pass 2 re-walks
// value lists collapsing matching word runs, and indentation-derived
// ancestor chains fold into nested two-value path links.
func (p *Parser) transformResult(raw []*rawLink) []*Link {
	if p.MultiRefContext {
		p.multiRefs = make(map[string][]string)
		collectMultiRefDefs(raw, p.multiRefs)
		p.multiRefDefs = sortMultiRefDefs(p.multiRefs)
	}
	var out []*Link
	for _, item := range raw {
		if item != nil {
			p.collectLinks(item, nil, &out)
		}
	}
	return out
}

func collectMultiRefDefs(items []*rawLink, defs map[string][]string) {
	for _, item := range items {
		if item == nil {
			continue
		}
		if len(item.id) > 1 {
			defs[strings.Join(item.id, " ")] = item.id
		}
		collectMultiRefDefs(item.children, defs)
		collectMultiRefDefs(item.values, defs)
	}
}

// sortMultiRefDefs orders definitions longest first so matching is
// greedy, with the joined key as a deterministic tie-break.
func sortMultiRefDefs(defs map[string][]string) [][]string {
	keys := make([]string, 0, len(defs))
	for key := range defs {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := defs[keys[i]], defs[keys[j]]
		if len(a) != len(b) {
			return len(a) > len(b)
		}
		return keys[i] < keys[j]
	})
	sorted := make([][]string, len(keys))
	for i, key := range keys {
		sorted[i] = defs[key]
	}
	return sorted
}

// collectLinks flattens the indentation tree. Each node is emitted
// combined with its ancestor path; indented-id nodes absorb their
// children as values instead.
func (p *Parser) collectLinks(item *rawLink, parentPath []*Link, out *[]*Link) {
	if item == nil {
		return
	}
	children := item.children

	// Indented-id syntax: "id:" followed by deeper-indented values.
	if item.indentedID && len(item.id) > 0 && len(item.values) == 0 && len(children) > 0 {
		childValues := make([]*Link, 0, len(children))
		for _, child := range children {
			if len(child.values) == 1 {
				childValues = append(childValues, p.transformLink(child.values[0]))
			} else {
				childValues = append(childValues, p.transformLink(child))
			}
		}
		p.emit(&Link{IDs: item.id, Values: childValues}, parentPath, out)
		return
	}

	if len(children) > 0 {
		current := p.transformLink(item)
		p.emit(current, parentPath, out)
		path := make([]*Link, 0, len(parentPath)+1)
		path = append(path, parentPath...)
		path = append(path, current)
		for _, child := range children {
			p.collectLinks(child, path, out)
		}
		return
	}

	p.emit(p.transformLink(item), parentPath, out)
}

func (p *Parser) emit(current *Link, parentPath []*Link, out *[]*Link) {
	if len(parentPath) == 0 {
		*out = append(*out, current)
		return
	}
	*out = append(*out, combinePath(parentPath, current))
}

// combinePath folds an ancestor chain right to left into nested
// two-value links tagged path-derived for formatting.
func combinePath(path []*Link, current *Link) *Link {
	if len(path) == 0 {
		return current
	}
	if len(path) == 1 {
		return &Link{Values: []*Link{path[0], current}, fromPath: true}
	}
	parent := combinePath(path[:len(path)-1], path[len(path)-1])
	return &Link{Values: []*Link{parent, current}, fromPath: true}
}

func (p *Parser) transformLink(item *rawLink) *Link {
	if item == nil {
		return &Link{}
	}
	if len(item.values) == 0 {
		return &Link{IDs: item.id}
	}
	if p.MultiRefContext && len(p.multiRefDefs) > 0 {
		return &Link{IDs: item.id, Values: p.resolveValues(item.values)}
	}
	values := make([]*Link, len(item.values))
	for i, v := range item.values {
		values[i] = p.transformLink(v)
	}
	return &Link{IDs: item.id, Values: values}
}

// resolveValues is pass 2 of multi-reference resolution: runs of plain
// single-word values matching a known multi-part identity collapse into
// one value carrying that identity.
func (p *Parser) resolveValues(values []*rawLink) []*Link {
	out := make([]*Link, 0, len(values))
	i := 0
	for i < len(values) {
		if isSimpleRef(values[i]) {
			if parts := p.matchMultiRef(values, i); parts != nil {
				out = append(out, &Link{IDs: parts})
				i += len(parts)
				continue
			}
		}
		out = append(out, p.transformLink(values[i]))
		i++
	}
	return out
}

func isSimpleRef(v *rawLink) bool {
	return v != nil && len(v.id) == 1 && len(v.values) == 0 && len(v.children) == 0
}

func (p *Parser) matchMultiRef(values []*rawLink, start int) []string {
	for _, parts := range p.multiRefDefs {
		if start+len(parts) > len(values) {
			continue
		}
		matched := true
		for j, part := range parts {
			v := values[start+j]
			if !isSimpleRef(v) || v.id[0] != part {
				matched = false
				break
			}
		}
		if matched {
			return parts
		}
	}
	return nil
}
