// Package document holds the text of open files: the line index, incremental edits and the
// parse result that is rebuilt after every change.
package document

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rlch/luna"
	"github.com/rlch/luna/analysis"
)

// ErrRangeOutOfBounds is returned for an edit whose range points past the end of the document
// and is not an append.
var ErrRangeOutOfBounds = errors.New("edit range out of bounds")

// Edit is one content change. A nil Range replaces the whole text regardless of the other fields.
type Edit struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength uint32 `json:"rangeLength,omitempty"`
	Text        string `json:"text"`
}

// EditError reports the edit of a batch that could not be applied.
type EditError struct {
	Index int
	Range Range
	Err   error
}

func (e *EditError) Error() string {
	return fmt.Sprintf("edit %d (%d:%d-%d:%d): %v", e.Index,
		e.Range.Start.Line, e.Range.Start.Character, e.Range.End.Line, e.Range.End.Character, e.Err)
}

func (e *EditError) Unwrap() error { return e.Err }

// Document is an open file.
//
// ApplyEdits holds the write lock from accepting the edits to replacing the document's index
// entries, so readers always see text, lines, tree and index entries from the same version.
type Document struct {
	uri      string
	analyzer *analysis.Analyzer
	index    *analysis.Index

	mu      sync.RWMutex
	text    string
	lines   []Line
	file    *analysis.AnalyzedFile
	version int

	wordsMu sync.Mutex
	words   []Word
}

// New creates a document, parses it and adds its entries to index.
func New(uri, text string, analyzer *analysis.Analyzer, index *analysis.Index) *Document {
	d := &Document{uri: uri, analyzer: analyzer, index: index, text: text}
	d.lines = buildLines(text)
	d.reparse()

	return d
}

// URI returns the document URI.
func (d *Document) URI() string {
	return d.uri
}

// ApplyEdits applies edits in order, each against the text produced by the previous one, then
// reparses and reindexes once. The batch is applied completely or not at all. An empty batch
// changes nothing and does not reparse.
func (d *Document) ApplyEdits(edits []Edit) error {
	if len(edits) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	text, lines := d.text, d.lines

	for i, e := range edits {
		next, err := applyEdit(text, lines, e)
		if err != nil {
			return &EditError{Index: i, Range: *e.Range, Err: err}
		}

		text = next
		lines = buildLines(text)
	}

	d.text, d.lines = text, lines
	d.version++
	d.reparse()

	return nil
}

func applyEdit(text string, lines []Line, e Edit) (string, error) {
	if e.Range == nil {
		return e.Text, nil
	}

	start, end := e.Range.Start, e.Range.End
	count := toUint32(len(lines))

	switch {
	case start.Line >= count:
		// The client wrote past the tracked tail, typically a newly inserted last line.
		return text + e.Text, nil
	case end.Line > count:
		return "", fmt.Errorf("%w: end line %d of %d", ErrRangeOutOfBounds, end.Line, count)
	case end.Line < start.Line || (end.Line == start.Line && end.Character < start.Character):
		return "", fmt.Errorf("%w: end before start", ErrRangeOutOfBounds)
	}

	from := offsetIn(text, lines, start)
	to := offsetIn(text, lines, end)

	return text[:from] + e.Text + text[to:], nil
}

// offsetIn resolves pos against lines. Characters past the end of a line clamp to the line end;
// a position on the line after the last one is the end of the text.
func offsetIn(text string, lines []Line, pos Position) int {
	if int(pos.Line) >= len(lines) {
		return len(text)
	}

	l := lines[pos.Line]

	return byteOffset(text, l.Start, l.Stop, pos.Character)
}

// reparse rebuilds the tree and diagnostics and swaps the document's index entries.
// Callers hold the write lock.
func (d *Document) reparse() {
	d.file = d.analyzer.Analyze(d.uri, d.text)

	if d.index != nil {
		d.index.Replace(d.uri, d.file.Entries)
	}

	d.wordsMu.Lock()
	d.words = nil
	d.wordsMu.Unlock()
}

// Text returns the current text.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.text
}

// Version counts the edit batches applied since the document was opened.
func (d *Document) Version() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.version
}

// Lines returns a copy of the line records.
func (d *Document) Lines() []Line {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.lines)
}

// GetLine converts a byte offset to a position. Offsets are clamped to the text.
func (d *Document) GetLine(offset int) Position {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return positionIn(d.text, d.lines, offset)
}

func positionIn(text string, lines []Line, offset int) Position {
	if len(lines) == 0 {
		return Position{}
	}

	offset = min(max(offset, 0), len(text))
	i := lineAt(lines, offset)
	l := lines[i]

	return Position{
		Line:      toUint32(i),
		Character: toUint32(utf16Len(text[l.Start:min(offset, l.Stop)])),
	}
}

// GetPosition converts a position to a byte offset. Characters past the end of a line clamp to
// the line end and lines past the end of the text resolve to its length.
func (d *Document) GetPosition(pos Position) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return offsetIn(d.text, d.lines, pos)
}

// Diagnostics returns the diagnostics of the latest parse.
func (d *Document) Diagnostics() []analysis.Diagnostic {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.file.Diagnostics)
}

// File returns the analysis result of the latest parse. It is replaced, never mutated, by edits.
func (d *Document) File() *analysis.AnalyzedFile {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.file
}

// Chunk returns the syntax tree of the latest parse.
func (d *Document) Chunk() *luna.Chunk {
	return d.File().Chunk
}

// Snapshot returns text and analysis result of the same version.
func (d *Document) Snapshot() *Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return &Snapshot{Text: d.text, File: d.file, lines: d.lines}
}

// Snapshot is an immutable view of one document version.
type Snapshot struct {
	Text string
	File *analysis.AnalyzedFile

	lines []Line
}

// Offset converts a position to a byte offset in the snapshot text.
func (s *Snapshot) Offset(pos Position) int {
	return offsetIn(s.Text, s.lines, pos)
}

// Position converts a byte offset in the snapshot text to a position.
func (s *Snapshot) Position(offset int) Position {
	return positionIn(s.Text, s.lines, offset)
}

// Range converts a span of the snapshot's tree to a range.
func (s *Snapshot) Range(span luna.Span) Range {
	return Range{Start: s.Position(span.Start.Offset), End: s.Position(span.End.Offset)}
}
