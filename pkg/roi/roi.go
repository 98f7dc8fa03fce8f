// Package roi loads and validates the named rectangular regions that the
// feature extractor averages over.
//
// A Set is loaded once at startup and replaced wholesale on reload; it is
// never mutated in place.
package roi

import (
	"fmt"
	"image"
	"math"
)

// Definition is one named rectangle in image pixel coordinates.
type Definition struct {
	Name string `json:"name" yaml:"name"`
	X    int    `json:"x" yaml:"x"`
	Y    int    `json:"y" yaml:"y"`
	W    int    `json:"w" yaml:"w"`
	H    int    `json:"h" yaml:"h"`
}

// Rect returns the definition as an image.Rectangle.
func (d Definition) Rect() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.W, d.Y+d.H)
}

// Area returns the number of pixels covered.
func (d Definition) Area() int {
	return d.W * d.H
}

// Within reports whether the rectangle lies fully inside a width x height image.
func (d Definition) Within(width, height int) bool {
	return d.X >= 0 && d.Y >= 0 && d.W > 0 && d.H > 0 &&
		d.X <= width && d.W <= width-d.X &&
		d.Y <= height && d.H <= height-d.Y
}

func (d Definition) String() string {
	return fmt.Sprintf("%s(%d,%d %dx%d)", d.Name, d.X, d.Y, d.W, d.H)
}

// Set is an ordered collection of definitions with unique names.
type Set struct {
	defs   []Definition
	source string
}

// NewSet checks the definitions and builds a Set. The slice is copied.
func NewSet(defs []Definition) (Set, error) {
	return newSet(defs, "")
}

func newSet(defs []Definition, source string) (Set, error) {
	if len(defs) == 0 {
		return Set{}, &ConfigError{Source: source, Reason: "no ROI definitions"}
	}
	seen := make(map[string]int, len(defs))
	for i, d := range defs {
		if d.Name == "" {
			return Set{}, &ConfigError{Source: source, Reason: fmt.Sprintf("entry %d has no name", i)}
		}
		if j, dup := seen[d.Name]; dup {
			return Set{}, &ConfigError{Source: source, ROI: d.Name,
				Reason: fmt.Sprintf("duplicate name (entries %d and %d)", j, i)}
		}
		seen[d.Name] = i
		if d.W <= 0 || d.H <= 0 {
			return Set{}, &ConfigError{Source: source, ROI: d.Name,
				Reason: fmt.Sprintf("non-positive size %dx%d", d.W, d.H)}
		}
		if d.X < 0 || d.Y < 0 {
			return Set{}, &ConfigError{Source: source, ROI: d.Name,
				Reason: fmt.Sprintf("negative origin (%d,%d)", d.X, d.Y)}
		}
		if d.X > math.MaxInt-d.W || d.Y > math.MaxInt-d.H {
			return Set{}, &ConfigError{Source: source, ROI: d.Name,
				Reason: fmt.Sprintf("rectangle %v overflows", d)}
		}
	}
	out := make([]Definition, len(defs))
	copy(out, defs)
	return Set{defs: out, source: source}, nil
}

// Len returns the number of regions.
func (s Set) Len() int { return len(s.defs) }

// At returns the i-th region.
func (s Set) At(i int) Definition { return s.defs[i] }

// Definitions returns a copy of the regions in load order.
func (s Set) Definitions() []Definition {
	out := make([]Definition, len(s.defs))
	copy(out, s.defs)
	return out
}

// Names returns region names in load order.
func (s Set) Names() []string {
	names := make([]string, len(s.defs))
	for i, d := range s.defs {
		names[i] = d.Name
	}
	return names
}

// Source returns the path the set was loaded from, if any.
func (s Set) Source() string { return s.source }

// Bounds returns the smallest rectangle enclosing all regions.
func (s Set) Bounds() image.Rectangle {
	var r image.Rectangle
	for _, d := range s.defs {
		r = r.Union(d.Rect())
	}
	return r
}

// Validate checks that every region is fully contained in a width x height
// image. It is called on every capture because the camera resolution may be
// reconfigured between sessions.
func Validate(s Set, width, height int) error {
	if s.Len() == 0 {
		return &ConfigError{Source: s.source, Reason: "no ROI definitions"}
	}
	for _, d := range s.defs {
		if !d.Within(width, height) {
			return &ConfigError{
				Source: s.source,
				ROI:    d.Name,
				Reason: fmt.Sprintf("rectangle %v exceeds image bounds %dx%d", d.Rect(), width, height),
			}
		}
	}
	return nil
}
