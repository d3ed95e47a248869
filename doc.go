// Package lino parses and formats Links Notation (Lino).
//
// Lino is a compact text notation for associative links: a document is an
// ordered list of links, and every link is an optional identity plus an
// ordered list of values, which are themselves links. The same tree can be
// written inline with parentheses or spread over indented lines.
//
// Core properties:
//   - Quote-aware parsing with unbounded-width quote delimiters
//   - Indentation and inline syntax produce identical trees
//   - Context-sensitive multi-word reference recognition
//   - Configurable formatting with inline/block layout decisions
//
// Example:
//
//	links, err := lino.Parse("papa (lovesMama: loves mama)")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(lino.Format(links, lino.WithLessParentheses(true)))
//
// A Parser is safe for sequential reuse; a single instance must not be
// shared between concurrent Parse calls.
package lino
