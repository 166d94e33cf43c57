// Package cube parses 3D color lookup tables in the .cube text format.
//
// A table is a cubic grid of RGB output triples indexed by an RGB input.
// Samples are stored flat in file order, red varying fastest, then green,
// then blue, which is the layout a 3D texture upload expects:
//
//	index(r, g, b) = ((b*N + g)*N + r) * 3
//
// Parsing is deliberately loose about the sample count: Parse accepts a
// table whose sample count differs from Size³ and leaves the check to
// Validate, which callers run before uploading the table.
package cube

import (
	"errors"
	"fmt"
)

// Parse errors. All errors returned by Parse wrap one of these sentinels.
var (
	// ErrMalformedHeader is returned when no LUT_3D_SIZE header precedes
	// the sample data.
	ErrMalformedHeader = errors.New("cube: missing or malformed LUT_3D_SIZE header")

	// ErrEmptyTable is returned when the header is present but no samples
	// follow it.
	ErrEmptyTable = errors.New("cube: table has no samples")

	// ErrNumericParse is returned when a token expected to be numeric is not.
	ErrNumericParse = errors.New("cube: invalid numeric token")

	// ErrSizeMismatch is returned by Validate when the sample count is not
	// Size³.
	ErrSizeMismatch = errors.New("cube: sample count does not match LUT_3D_SIZE")
)

// ParseError records the line on which parsing failed.
type ParseError struct {
	Line int // 1-based; 0 when the error applies to the whole input
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (line %d)", e.Err, e.Line)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Table is a parsed 3D lookup table.
type Table struct {
	// Title is the optional TITLE line, without quotes.
	Title string

	// Size is the grid resolution N along each axis.
	Size int

	// Data holds RGB triples, red fastest, then green, then blue.
	Data []float32
}

// Len returns the number of RGB samples in the table.
func (t *Table) Len() int {
	return len(t.Data) / 3
}

// Validate reports whether the table can be uploaded as an N×N×N grid.
func (t *Table) Validate() error {
	if t.Size < 2 {
		return fmt.Errorf("%w: size %d", ErrMalformedHeader, t.Size)
	}
	want := t.Size * t.Size * t.Size * 3
	if len(t.Data) != want {
		return fmt.Errorf("%w: have %d samples, want %d", ErrSizeMismatch, len(t.Data)/3, want/3)
	}
	return nil
}

// Identity returns an n×n×n table that maps every color to itself.
// n is raised to 2 if smaller.
func Identity(n int) *Table {
	if n < 2 {
		n = 2
	}
	data := make([]float32, 0, n*n*n*3)
	step := 1 / float32(n-1)
	for b := 0; b < n; b++ {
		for g := 0; g < n; g++ {
			for r := 0; r < n; r++ {
				data = append(data, float32(r)*step, float32(g)*step, float32(b)*step)
			}
		}
	}
	return &Table{Title: "identity", Size: n, Data: data}
}
