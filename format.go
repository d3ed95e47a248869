package lino

import "strings"

// inlineConfig renders nested values: nested structure always keeps its
// parentheses regardless of the top-level configuration.
var inlineConfig = &FormatConfig{IndentString: "  "}

// Format renders links as a multi-line document, one top-level link per
// line (block layout may spread a single link over several lines).
func Format(links []*Link, opts ...FormatOption) string {
	cfg := DefaultFormatConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	list := links
	if cfg.GroupConsecutive {
		list = groupConsecutive(links)
	}
	lines := make([]string, 0, len(list))
	for _, link := range list {
		lines = append(lines, link.format(cfg, false))
	}
	return strings.Join(lines, "\n")
}

// Format renders the link under the given configuration. A nil config
// uses DefaultFormatConfig.
func (l *Link) Format(cfg *FormatConfig) string {
	if cfg == nil {
		cfg = DefaultFormatConfig()
	}
	return l.format(cfg, false)
}

// format renders one link. compound marks values of path-derived links,
// which always keep explicit parentheses.
func (l *Link) format(cfg *FormatConfig, compound bool) string {
	if l.IsEmpty() {
		if cfg.LessParentheses {
			return ""
		}
		return "()"
	}

	if len(l.Values) == 0 {
		escaped := escapeIdentity(l.IDs)
		if compound {
			return "(" + escaped + ")"
		}
		if cfg.LessParentheses && !needsParentheses(l.IDs) {
			return escaped
		}
		return "(" + escaped + ")"
	}

	valuesStr := l.valuesString()

	shouldIndent := cfg.shouldIndentByValueCount(len(l.Values))
	if !shouldIndent && cfg.IndentByLineLength > 0 {
		shouldIndent = cfg.shouldIndentByLineLength(l.inlineLine(cfg, valuesStr))
	}
	if shouldIndent && !cfg.PreferInline {
		return l.formatBlock(cfg)
	}

	if len(l.IDs) == 0 {
		if cfg.LessParentheses {
			if l.allValuesSimple() {
				refs := make([]string, 0, len(l.Values))
				for _, v := range l.Values {
					refs = append(refs, escapeIdentity(v.IDs))
				}
				return strings.Join(refs, " ")
			}
			return valuesStr
		}
		return "(" + valuesStr + ")"
	}

	withColon := escapeIdentity(l.IDs) + ": " + valuesStr
	if cfg.LessParentheses && !needsParentheses(l.IDs) {
		return withColon
	}
	return "(" + withColon + ")"
}

// inlineLine builds the candidate single-line rendering measured against
// the line-length threshold.
func (l *Link) inlineLine(cfg *FormatConfig, valuesStr string) string {
	if len(l.IDs) > 0 {
		line := escapeIdentity(l.IDs) + ": " + valuesStr
		if cfg.LessParentheses {
			return line
		}
		return "(" + line + ")"
	}
	if cfg.LessParentheses {
		return valuesStr
	}
	return "(" + valuesStr + ")"
}

// formatBlock renders the link in indented-id layout, one value per line.
func (l *Link) formatBlock(cfg *FormatConfig) string {
	lines := make([]string, 0, len(l.Values)+1)
	if len(l.IDs) > 0 {
		lines = append(lines, escapeIdentity(l.IDs)+":")
	}
	for _, v := range l.Values {
		lines = append(lines, cfg.IndentString+l.formatValue(v))
	}
	return strings.Join(lines, "\n")
}

func (l *Link) valuesString() string {
	parts := make([]string, 0, len(l.Values))
	for _, v := range l.Values {
		parts = append(parts, l.formatValue(v))
	}
	return strings.Join(parts, " ")
}

// formatValue renders one value of l. Values of path-derived links keep
// explicit parentheses so the combined shape survives a roundtrip.
func (l *Link) formatValue(v *Link) string {
	if l.fromPath {
		return v.format(inlineConfig, true)
	}
	if len(v.Values) == 0 {
		return escapeIdentity(v.IDs)
	}
	return v.format(inlineConfig, false)
}

func (l *Link) allValuesSimple() bool {
	for _, v := range l.Values {
		if len(v.Values) > 0 {
			return false
		}
	}
	return true
}

// escapeIdentity renders identity parts for output. A multi-part
// identity escapes each part separately and joins with spaces.
func escapeIdentity(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return escapeReference(parts[0])
	}
	escaped := make([]string, len(parts))
	for i, part := range parts {
		escaped[i] = escapeReference(part)
	}
	return strings.Join(escaped, " ")
}

// escapeReference wraps a reference in quotes when it contains characters
// that would break unquoted parsing.
func escapeReference(ref string) string {
	if strings.TrimSpace(ref) == "" {
		return ""
	}
	if strings.ContainsAny(ref, ": ()\t\n\r\"") {
		return "'" + ref + "'"
	}
	if strings.Contains(ref, "'") {
		return "\"" + ref + "\""
	}
	return ref
}

// needsParentheses reports whether an identity cannot stand bare on a
// line. Multi-part identities always need wrapping when inlined.
func needsParentheses(parts []string) bool {
	if len(parts) > 1 {
		return true
	}
	if len(parts) == 0 {
		return false
	}
	return strings.ContainsAny(parts[0], " :()")
}

// groupConsecutive merges runs of links sharing an identity into single
// links carrying the concatenated values.
func groupConsecutive(links []*Link) []*Link {
	if len(links) == 0 {
		return nil
	}
	grouped := make([]*Link, 0, len(links))
	i := 0
	for i < len(links) {
		current := links[i]
		id := current.IdentityString()
		if len(current.IDs) == 0 || len(current.Values) == 0 {
			grouped = append(grouped, current)
			i++
			continue
		}
		values := make([]*Link, len(current.Values))
		copy(values, current.Values)
		j := i + 1
		for j < len(links) {
			next := links[j]
			if len(next.IDs) == 0 || next.IdentityString() != id || len(next.Values) == 0 {
				break
			}
			values = append(values, next.Values...)
			j++
		}
		if j > i+1 {
			grouped = append(grouped, &Link{IDs: current.IDs, Values: values})
		} else {
			grouped = append(grouped, current)
		}
		i = j
	}
	return grouped
}
