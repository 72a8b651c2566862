package document

import (
	"hash/fnv"
	"unicode/utf8"

	"github.com/rlch/luna"
)

// Word is an identifier-like run of text, hashed for text search.
type Word struct {
	Hash  uint64
	Start int
	End   int
}

// HashWord returns the hash used for Word.Hash.
func HashWord(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))

	return h.Sum64()
}

// ProcessWords calls fn for each word of the current text until fn returns false.
// The word list is built on first use after an edit and cached until the next one.
func (d *Document) ProcessWords(fn func(Word) bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	d.wordsMu.Lock()
	if d.words == nil {
		d.words = scanWords(d.text)
	}
	words := d.words
	d.wordsMu.Unlock()

	for _, w := range words {
		if !fn(w) {
			return
		}
	}
}

// scanWords splits text into runs of name characters that do not start with a digit.
// Comments and strings are scanned too so that text search finds names mentioned there.
func scanWords(text string) []Word {
	words := []Word{}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !luna.IsNameRune(r) {
			i += size

			continue
		}

		start := i
		for i < len(text) {
			r, size := utf8.DecodeRuneInString(text[i:])
			if !luna.IsNameRune(r) {
				break
			}

			i += size
		}

		if c := text[start]; c >= '0' && c <= '9' {
			continue
		}

		words = append(words, Word{Hash: HashWord(text[start:i]), Start: start, End: i})
	}

	return words
}
