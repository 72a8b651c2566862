package document

import (
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"
)

// Position is a zero-based line and character. Characters count UTF-16 code units.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Line is the record of one line: the byte span [Start, Stop) of its content, without the line break.
type Line struct {
	Index int
	Start int
	Stop  int
}

// buildLines scans text once. Only "\n" and "\r\n" end a line. Empty text has no lines;
// text ending in a line break has a trailing empty line.
func buildLines(text string) []Line {
	if text == "" {
		return nil
	}

	var (
		lines []Line
		start int
	)

	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}

		stop := i
		if i > start && text[i-1] == '\r' {
			stop--
		}

		lines = append(lines, Line{Index: len(lines), Start: start, Stop: stop})
		start = i + 1
	}

	return append(lines, Line{Index: len(lines), Start: start, Stop: len(text)})
}

// lineAt returns the index of the line containing offset.
func lineAt(lines []Line, offset int) int {
	i := sort.Search(len(lines), func(i int) bool { return lines[i].Start > offset })

	return max(i-1, 0)
}

// utf16Len counts the UTF-16 code units of s.
func utf16Len(s string) int {
	n := 0

	for _, r := range s {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}

	return n
}

// byteOffset advances from start by character UTF-16 units without passing stop.
// A character inside a surrogate pair resolves to the start of that rune.
func byteOffset(text string, start, stop int, character uint32) int {
	units := uint32(0)
	i := start

	for i < stop && units < character {
		r, size := utf8.DecodeRuneInString(text[i:stop])

		need := uint32(1)
		if r >= 0x10000 {
			need = 2
		}

		if units+need > character {
			break
		}

		units += need
		i += size
	}

	return i
}

// toUint32 narrows a non-negative count for the wire format, saturating on overflow.
func toUint32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		if n < 0 {
			return 0
		}

		return ^uint32(0)
	}

	return v
}
