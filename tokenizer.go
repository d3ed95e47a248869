package lino

import "unicode"

// Default glyph sets the Tokenizer separates into standalone references.
// Math symbols split only between digits so hyphenated identifiers such
// as "Jean-Luc" or "conan-center-index" stay whole.
var (
	DefaultPunctuationSymbols = []rune{',', '.', ';', '!', '?'}
	DefaultMathSymbols        = []rune{'+', '-', '*', '/', '=', '<', '>', '%', '^'}
)

// Tokenizer rewrites raw text so punctuation and math glyphs become
// separate references before parsing. Both operations are pure text
// transforms; a disabled Tokenizer is the identity on both.
type Tokenizer struct {
	PunctuationSymbols []rune
	MathSymbols        []rune
	Disabled           bool
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer)

// WithPunctuationSymbols replaces the punctuation glyph set.
func WithPunctuationSymbols(symbols []rune) TokenizerOption {
	return func(t *Tokenizer) {
		t.PunctuationSymbols = symbols
	}
}

// WithMathSymbols replaces the math glyph set.
func WithMathSymbols(symbols []rune) TokenizerOption {
	return func(t *Tokenizer) {
		t.MathSymbols = symbols
	}
}

// WithTokenizerDisabled turns Tokenize and Compact into identity
// functions.
func WithTokenizerDisabled(disabled bool) TokenizerOption {
	return func(t *Tokenizer) {
		t.Disabled = disabled
	}
}

// NewTokenizer returns a Tokenizer with the default glyph sets.
func NewTokenizer(opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{
		PunctuationSymbols: DefaultPunctuationSymbols,
		MathSymbols:        DefaultMathSymbols,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func containsRune(set []rune, r rune) bool {
	for _, s := range set {
		if s == r {
			return true
		}
	}
	return false
}

func isAlphanumeric(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Tokenize inserts spaces around configured glyphs:
//   - punctuation splits when the previous character is alphanumeric
//   - math glyphs split only when both neighbors are digits
//
// Quoted runs pass through untouched.
func (t *Tokenizer) Tokenize(input string) string {
	if t.Disabled {
		return input
	}

	chars := []rune(input)
	var result []rune
	var inSingle, inDouble bool

	for i, c := range chars {
		var prev, next rune
		if i > 0 {
			prev = chars[i-1]
		}
		if i+1 < len(chars) {
			next = chars[i+1]
		}

		if c == '"' && !inSingle {
			inDouble = !inDouble
			result = append(result, c)
			continue
		}
		if c == '\'' && !inDouble {
			inSingle = !inSingle
			result = append(result, c)
			continue
		}
		if inSingle || inDouble {
			result = append(result, c)
			continue
		}

		if containsRune(t.PunctuationSymbols, c) {
			if isAlphanumeric(prev) {
				if len(result) > 0 && !isSpacer(result[len(result)-1]) {
					result = append(result, ' ')
				}
				result = append(result, c)
				if isAlphanumeric(next) {
					result = append(result, ' ')
				}
			} else {
				result = append(result, c)
			}
			continue
		}

		if containsRune(t.MathSymbols, c) {
			if unicode.IsDigit(prev) && unicode.IsDigit(next) {
				if len(result) > 0 && !isSpacer(result[len(result)-1]) {
					result = append(result, ' ')
				}
				result = append(result, c, ' ')
			} else {
				result = append(result, c)
			}
			continue
		}

		result = append(result, c)
	}
	return string(result)
}

func isSpacer(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}

// Compact removes single spaces adjacent to configured glyphs outside
// quotes, approximately reversing default tokenization.
func (t *Tokenizer) Compact(output string) string {
	if t.Disabled {
		return output
	}

	symbols := make([]rune, 0, len(t.PunctuationSymbols)+len(t.MathSymbols))
	symbols = append(symbols, t.PunctuationSymbols...)
	symbols = append(symbols, t.MathSymbols...)

	chars := []rune(output)
	var result []rune
	var inSingle, inDouble bool

	for i, c := range chars {
		if c == '"' && !inSingle {
			inDouble = !inDouble
			result = append(result, c)
			continue
		}
		if c == '\'' && !inDouble {
			inSingle = !inSingle
			result = append(result, c)
			continue
		}
		if inSingle || inDouble {
			result = append(result, c)
			continue
		}

		if c == ' ' {
			var prev, next rune
			if len(result) > 0 {
				prev = result[len(result)-1]
			}
			if i+1 < len(chars) {
				next = chars[i+1]
			}
			if containsRune(symbols, prev) || containsRune(symbols, next) {
				continue
			}
		}
		result = append(result, c)
	}
	return string(result)
}
