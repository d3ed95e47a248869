package lino

import (
	"errors"
	"testing"
)

func TestNewRef(t *testing.T) {
	link := NewRef("some_value")
	if !link.IsRef() {
		t.Error("expected a reference")
	}
	id, err := link.ID()
	if err != nil {
		t.Fatalf("ID() failed: %v", err)
	}
	if id != "some_value" {
		t.Errorf("expected %q, got %q", "some_value", id)
	}
}

func TestNewLinkWithValues(t *testing.T) {
	link := NewLink("id", NewRef("child"))
	if !link.IsLink() {
		t.Error("expected a link with values")
	}
	id, err := link.ID()
	if err != nil {
		t.Fatalf("ID() failed: %v", err)
	}
	if id != "id" {
		t.Errorf("expected %q, got %q", "id", id)
	}
	if len(link.Values) != 1 {
		t.Errorf("expected 1 value, got %d", len(link.Values))
	}
}

func TestNewLinkEmptyIDIsAnonymous(t *testing.T) {
	link := NewLink("", NewRef("a"), NewRef("b"))
	if len(link.IDs) != 0 {
		t.Errorf("expected no identity, got %v", link.IDs)
	}
	if len(link.Values) != 2 {
		t.Errorf("expected 2 values, got %d", len(link.Values))
	}
}

func TestMultiRefIdentity(t *testing.T) {
	link := NewMultiRef([]string{"new", "york", "city"})
	if _, err := link.ID(); err == nil {
		t.Fatal("expected error for multi-part identity")
	} else {
		var multiErr *MultiIdentityError
		if !errors.As(err, &multiErr) {
			t.Fatalf("expected *MultiIdentityError, got %T", err)
		}
		if multiErr.Count != 3 {
			t.Errorf("expected count 3, got %d", multiErr.Count)
		}
	}
	if got := link.IdentityString(); got != "new york city" {
		t.Errorf("expected %q, got %q", "new york city", got)
	}
}

func TestAbsentIdentity(t *testing.T) {
	link := NewValuesLink(NewRef("a"))
	id, err := link.ID()
	if err != nil {
		t.Fatalf("ID() failed: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty identity, got %q", id)
	}
}

func TestEmptyLinkString(t *testing.T) {
	if got := NewValuesLink().String(); got != "()" {
		t.Errorf("expected %q, got %q", "()", got)
	}
}

func TestLinkEquality(t *testing.T) {
	cases := []struct {
		name  string
		a, b  *Link
		equal bool
	}{
		{
			name:  "same identity and values",
			a:     NewLink("id", NewRef("a"), NewRef("b")),
			b:     NewLink("id", NewRef("a"), NewRef("b")),
			equal: true,
		},
		{
			name:  "different identity",
			a:     NewLink("id1", NewRef("a")),
			b:     NewLink("id2", NewRef("a")),
			equal: false,
		},
		{
			name:  "different values",
			a:     NewLink("id", NewRef("a")),
			b:     NewLink("id", NewRef("b")),
			equal: false,
		},
		{
			name:  "different value count",
			a:     NewLink("id", NewRef("a"), NewRef("b")),
			b:     NewLink("id", NewRef("a")),
			equal: false,
		},
		{
			name:  "multi-part identities",
			a:     NewMultiRef([]string{"a", "b"}),
			b:     NewMultiRef([]string{"a", "b"}),
			equal: true,
		},
		{
			name:  "scalar vs multi-part",
			a:     NewRef("a b"),
			b:     NewMultiRef([]string{"a", "b"}),
			equal: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Equal(tc.b); got != tc.equal {
				t.Errorf("Equal() = %v, want %v", got, tc.equal)
			}
		})
	}
}

func TestEqualNil(t *testing.T) {
	if NewRef("a").Equal(nil) {
		t.Error("expected inequality with nil")
	}
}

func TestSimplify(t *testing.T) {
	ref := NewRef("a")
	if got := ref.Simplify(); got != ref {
		t.Error("expected reference to simplify to itself")
	}

	single := NewLink("id", NewRef("only"))
	simplified := single.Simplify()
	if got, _ := simplified.ID(); got != "only" {
		t.Errorf("expected single value to replace link, got %q", got)
	}

	multi := NewLink("id", NewLink("inner", NewRef("x")), NewRef("y"))
	simplified = multi.Simplify()
	if got, _ := simplified.ID(); got != "id" {
		t.Errorf("expected identity kept, got %q", got)
	}
	if got, _ := simplified.Values[0].ID(); got != "x" {
		t.Errorf("expected nested single value lifted, got %q", got)
	}
}

func TestCombine(t *testing.T) {
	combined := NewRef("a").Combine(NewRef("b"))
	if len(combined.IDs) != 0 {
		t.Errorf("expected anonymous combination, got identity %v", combined.IDs)
	}
	if len(combined.Values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(combined.Values))
	}
	if got := combined.String(); got != "(a b)" {
		t.Errorf("expected %q, got %q", "(a b)", got)
	}
}
