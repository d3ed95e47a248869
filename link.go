package lino

import "strings"

// Link is a node in a Lino tree. A link can be:
//   - a reference (identity only, no values)
//   - a link with an identity and values
//   - an anonymous grouping (values only)
//
// The identity is stored as an ordered list of parts: nil means the
// identity is absent, one element is a scalar reference, and two or more
// elements form a multi-part identity such as "new york city". A quoted
// multi-word string is always a single scalar part, never multi-part.
type Link struct {
	IDs    []string
	Values []*Link

	// fromPath marks links synthesized by combining indentation-path
	// segments. It affects formatting only, never equality.
	fromPath bool
}

// NewRef returns a reference link with a scalar identity and no values.
func NewRef(id string) *Link {
	return &Link{IDs: []string{id}}
}

// NewMultiRef returns a reference link with a multi-part identity.
func NewMultiRef(ids []string) *Link {
	return &Link{IDs: ids}
}

// NewLink returns a link with a scalar identity and the given values.
// An empty id produces an anonymous link.
func NewLink(id string, values ...*Link) *Link {
	if id == "" {
		return &Link{Values: values}
	}
	return &Link{IDs: []string{id}, Values: values}
}

// NewValuesLink returns an anonymous link holding only values.
func NewValuesLink(values ...*Link) *Link {
	return &Link{Values: values}
}

// ID returns the scalar identity. It returns an empty string for an
// absent identity and a *MultiIdentityError when the identity has more
// than one part; multi-part identities must be read through IDs.
func (l *Link) ID() (string, error) {
	if len(l.IDs) == 0 {
		return "", nil
	}
	if len(l.IDs) > 1 {
		return "", &MultiIdentityError{Count: len(l.IDs)}
	}
	return l.IDs[0], nil
}

// IdentityString returns the space-joined identity, or "" when absent.
func (l *Link) IdentityString() string {
	return strings.Join(l.IDs, " ")
}

// IsRef reports whether the link is a plain reference without values.
func (l *Link) IsRef() bool { return len(l.Values) == 0 }

// IsLink reports whether the link carries values.
func (l *Link) IsLink() bool { return len(l.Values) > 0 }

// IsEmpty reports whether both identity and values are absent.
func (l *Link) IsEmpty() bool { return len(l.IDs) == 0 && len(l.Values) == 0 }

// Equal reports structural equality of identity parts and values.
// The path-derived formatting flag does not participate.
func (l *Link) Equal(other *Link) bool {
	if other == nil {
		return false
	}
	if len(l.IDs) != len(other.IDs) {
		return false
	}
	for i := range l.IDs {
		if l.IDs[i] != other.IDs[i] {
			return false
		}
	}
	if len(l.Values) != len(other.Values) {
		return false
	}
	for i := range l.Values {
		if !l.Values[i].Equal(other.Values[i]) {
			return false
		}
	}
	return true
}

// Simplify collapses trivial nesting: a link without values is returned
// as is, a link with exactly one value becomes that value (the identity
// is discarded), and anything else keeps its identity over recursively
// simplified values. Simplify is opt-in; neither Parse nor Format apply
// it implicitly.
func (l *Link) Simplify() *Link {
	switch len(l.Values) {
	case 0:
		return l
	case 1:
		return l.Values[0]
	default:
		values := make([]*Link, len(l.Values))
		for i, v := range l.Values {
			values[i] = v.Simplify()
		}
		return &Link{IDs: l.IDs, Values: values}
	}
}

// Combine pairs this link with other under a new anonymous link.
func (l *Link) Combine(other *Link) *Link {
	return &Link{Values: []*Link{l, other}}
}

// String renders the link with default formatting.
func (l *Link) String() string {
	return l.Format(nil)
}
