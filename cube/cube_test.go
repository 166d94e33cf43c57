package cube

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"golang.org/x/text/encoding/unicode"
)

const twoByTwo = `# generated
TITLE "warm"
LUT_3D_SIZE 2
DOMAIN_MIN 0 0 0
DOMAIN_MAX 1 1 1

0 0 0
1 0 0
0 1 0
1 1 0
0 0 1
1 0 1
0 1 1
1 1 1
`

func TestParse(t *testing.T) {
	tbl, err := ParseString(twoByTwo)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if tbl.Size != 2 {
		t.Errorf("Size = %d, want 2", tbl.Size)
	}
	if len(tbl.Data) != 24 {
		t.Errorf("len(Data) = %d, want 24", len(tbl.Data))
	}
	if tbl.Title != "warm" {
		t.Errorf("Title = %q, want %q", tbl.Title, "warm")
	}
	if err := tbl.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	// Second sample is red.
	if tbl.Data[3] != 1 || tbl.Data[4] != 0 || tbl.Data[5] != 0 {
		t.Errorf("sample 1 = %v, want [1 0 0]", tbl.Data[3:6])
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"no header", "0 0 0\n", ErrMalformedHeader},
		{"empty input", "", ErrMalformedHeader},
		{"comments only", "# a\n# b\n", ErrMalformedHeader},
		{"header without samples", "LUT_3D_SIZE 2\n", ErrEmptyTable},
		{"bad token", "LUT_3D_SIZE 2\n0 x 0\n", ErrNumericParse},
		{"bad size", "LUT_3D_SIZE two\n", ErrNumericParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseString() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseErrorLine(t *testing.T) {
	_, err := ParseString("LUT_3D_SIZE 2\n\n0 0 0\n0 0 oops\n")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Line != 4 {
		t.Errorf("Line = %d, want 4", pe.Line)
	}
}

func TestParseLoose(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		samples int
	}{
		{"short row skipped", "LUT_3D_SIZE 2\n0 0\n1 1 1\n", 1},
		{"extra tokens ignored", "LUT_3D_SIZE 2\n0.5 0.5 0.5 9\n", 1},
		{"negative sample", "LUT_3D_SIZE 2\n-0.1 0 0\n", 1},
		{"lone dash is metadata", "LUT_3D_SIZE 2\n-\n1 1 1\n", 1},
		{"first size wins", "LUT_3D_SIZE 2\nLUT_3D_SIZE 4\n1 1 1\n", 1},
		{"indented rows", "LUT_3D_SIZE 2\n   1 1 1\n\t0 0 0\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ParseString(tt.input)
			if err != nil {
				t.Fatalf("ParseString: %v", err)
			}
			if tbl.Len() != tt.samples {
				t.Errorf("Len() = %d, want %d", tbl.Len(), tt.samples)
			}
			if tbl.Size != 2 {
				t.Errorf("Size = %d, want 2", tbl.Size)
			}
		})
	}
}

func TestParseBOM(t *testing.T) {
	t.Run("utf8", func(t *testing.T) {
		input := append([]byte{0xEF, 0xBB, 0xBF}, twoByTwo...)
		tbl, err := Parse(bytes.NewReader(input))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if tbl.Len() != 8 {
			t.Errorf("Len() = %d, want 8", tbl.Len())
		}
	})

	t.Run("utf16le", func(t *testing.T) {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
		input, err := enc.Bytes([]byte(twoByTwo))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		tbl, err := Parse(bytes.NewReader(input))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if tbl.Len() != 8 {
			t.Errorf("Len() = %d, want 8", tbl.Len())
		}
	})
}

func TestValidateSizeMismatch(t *testing.T) {
	tbl, err := ParseString("LUT_3D_SIZE 2\n1 1 1\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if err := tbl.Validate(); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("Validate() = %v, want ErrSizeMismatch", err)
	}
}

func TestIdentitySample(t *testing.T) {
	tbl := Identity(17)
	if err := tbl.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	colors := [][3]float32{
		{0, 0, 0}, {1, 1, 1}, {0.25, 0.5, 0.75}, {0.123, 0.987, 0.5},
	}
	for _, c := range colors {
		r, g, b := tbl.Sample(c[0], c[1], c[2])
		if !near(r, c[0]) || !near(g, c[1]) || !near(b, c[2]) {
			t.Errorf("Sample(%v) = (%v, %v, %v), want identity", c, r, g, b)
		}
	}
}

func TestSampleClampsInput(t *testing.T) {
	tbl, err := ParseString(twoByTwo)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b := tbl.Sample(-1, 2, float32(math.NaN()))
	if r != 0 || g != 1 || b != 0 {
		t.Errorf("Sample(-1, 2, NaN) = (%v, %v, %v), want (0, 1, 0)", r, g, b)
	}
}

func TestSampleInvert(t *testing.T) {
	// Each output is 1 minus the input.
	src := "LUT_3D_SIZE 2\n" +
		"1 1 1\n0 1 1\n1 0 1\n0 0 1\n" +
		"1 1 0\n0 1 0\n1 0 0\n0 0 0\n"
	tbl, err := ParseString(src)
	if err != nil {
		t.Fatal(err)
	}
	r, g, b := tbl.Sample(0.2, 0.5, 0.9)
	if !near(r, 0.8) || !near(g, 0.5) || !near(b, 0.1) {
		t.Errorf("Sample = (%v, %v, %v), want (0.8, 0.5, 0.1)", r, g, b)
	}
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}
