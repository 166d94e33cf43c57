package cube

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sizeKeyword = "LUT_3D_SIZE"

// Parse reads a .cube table from r.
//
// A leading byte-order mark selects the text encoding; files written by
// some grading tools start with a UTF-8 BOM or are UTF-16 encoded.
// Without a BOM the input is read as UTF-8.
func Parse(r io.Reader) (*Table, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	sc := bufio.NewScanner(transform.NewReader(r, dec))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)

	t := &Table{Size: -1}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		if strings.HasPrefix(line, sizeKeyword) {
			if t.Size > 0 {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: fmt.Errorf("%w: %q", ErrNumericParse, fields[1])}
			}
			t.Size = n
			continue
		}

		if !isDataLine(line) {
			if t.Size <= 0 && strings.HasPrefix(line, "TITLE") {
				t.Title = strings.Trim(strings.TrimSpace(line[len("TITLE"):]), `"`)
			}
			continue
		}
		if t.Size <= 0 {
			return nil, &ParseError{Line: lineNo, Err: ErrMalformedHeader}
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		for _, f := range fields[:3] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, &ParseError{Line: lineNo, Err: fmt.Errorf("%w: %q", ErrNumericParse, f)}
			}
			t.Data = append(t.Data, float32(v))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("cube: read: %w", err)
	}

	if t.Size <= 0 {
		return nil, &ParseError{Err: ErrMalformedHeader}
	}
	if len(t.Data) == 0 {
		return nil, &ParseError{Err: ErrEmptyTable}
	}
	return t, nil
}

// ParseString parses a .cube table held in memory.
func ParseString(s string) (*Table, error) {
	return Parse(strings.NewReader(s))
}

// isDataLine reports whether a trimmed line looks like a sample row:
// it starts with a digit, or with '-' followed by more text.
func isDataLine(line string) bool {
	c := line[0]
	if c >= '0' && c <= '9' {
		return true
	}
	return c == '-' && len(line) > 1
}
