package lino

import "github.com/muesli/reflow/ansi"

// FormatConfig holds formatting policy for rendering links back to text.
type FormatConfig struct {
	// LessParentheses omits redundant outer parentheses when the
	// identity needs no escaping and is not multi-part.
	LessParentheses bool

	// IndentString is the literal prefix applied per nesting level in
	// block layout.
	IndentString string

	// PreferInline forces single-line form even when a threshold below
	// would trigger block layout.
	PreferInline bool

	// IndentByValueCount forces block layout when a link holds at least
	// this many values. Zero disables the threshold.
	IndentByValueCount int

	// IndentByLineLength forces block layout when the single-line
	// rendering would exceed this printable width. Zero disables it.
	IndentByLineLength int

	// GroupConsecutive merges consecutive links sharing an identity
	// into one link before rendering.
	GroupConsecutive bool
}

// DefaultFormatConfig returns the default formatting policy.
func DefaultFormatConfig() *FormatConfig {
	return &FormatConfig{IndentString: "  "}
}

// FormatOption configures formatting behavior.
type FormatOption func(*FormatConfig)

// WithLessParentheses enables or disables parenthesis elision.
func WithLessParentheses(enabled bool) FormatOption {
	return func(cfg *FormatConfig) {
		cfg.LessParentheses = enabled
	}
}

// WithIndentString sets the per-level block layout prefix.
func WithIndentString(indent string) FormatOption {
	return func(cfg *FormatConfig) {
		cfg.IndentString = indent
	}
}

// WithPreferInline forces single-line rendering past the thresholds.
func WithPreferInline(enabled bool) FormatOption {
	return func(cfg *FormatConfig) {
		cfg.PreferInline = enabled
	}
}

// WithIndentByValueCount sets the value-count block layout threshold.
func WithIndentByValueCount(count int) FormatOption {
	return func(cfg *FormatConfig) {
		cfg.IndentByValueCount = count
	}
}

// WithIndentByLineLength sets the line-width block layout threshold.
func WithIndentByLineLength(width int) FormatOption {
	return func(cfg *FormatConfig) {
		cfg.IndentByLineLength = width
	}
}

// WithGroupConsecutive enables merging of consecutive same-identity links.
func WithGroupConsecutive(enabled bool) FormatOption {
	return func(cfg *FormatConfig) {
		cfg.GroupConsecutive = enabled
	}
}

func (c *FormatConfig) shouldIndentByValueCount(count int) bool {
	return c.IndentByValueCount > 0 && count >= c.IndentByValueCount
}

func (c *FormatConfig) shouldIndentByLineLength(line string) bool {
	return c.IndentByLineLength > 0 && ansi.PrintableRuneWidth(line) > c.IndentByLineLength
}
