// Package content defines what a card or a canvas can show: either a static symbol
// (an emoji glyph) or a reference to a raster image (usually a data URL).
package content

import "fmt"

// Kind discriminates the two content variants.
type Kind int

const (
	KindSymbol Kind = iota
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindImage:
		return "image"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Source is a comparable value: two sources are equal (==) iff they have the same kind
// and the same glyph or image reference.
type Source struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
}

// Symbol returns a Source holding a static glyph.
func Symbol(glyph string) Source {
	return Source{Kind: KindSymbol, Value: glyph}
}

// Image returns a Source holding an image reference.
func Image(ref string) Source {
	return Source{Kind: KindImage, Value: ref}
}

func (s Source) IsSymbol() bool { return s.Kind == KindSymbol }
func (s Source) IsImage() bool  { return s.Kind == KindImage }

// Equal reports whether both sources show the same thing.
func (s Source) Equal(other Source) bool {
	return s == other
}

// String is used for logging: image references can be megabytes long, so they are truncated.
func (s Source) String() string {
	if s.Kind == KindImage && len(s.Value) > 32 {
		return fmt.Sprintf("image(%s...%d bytes)", s.Value[:24], len(s.Value))
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Value)
}
