// Package chunker splits prose into sentence-aligned, size-bounded,
// overlapping chunks suitable for embedding and retrieval.
package chunker

import (
	"strings"
	"unicode"
)

// titleAbbrevs are honorific and citation tokens whose trailing period does
// not end a sentence.
var titleAbbrevs = map[string]struct{}{
	"Dr":   {},
	"Mr":   {},
	"Mrs":  {},
	"Ms":   {},
	"Prof": {},
	"St":   {},
	"Jr":   {},
	"Sr":   {},
	"vs":   {},
	"etc":  {},
	"eg":   {},
	"ie":   {},
	"Fig":  {},
	"No":   {},
	"Vol":  {},
}

// Split segments text into sentences. Whitespace runs are collapsed to
// single spaces first, so the output joined with single spaces reproduces
// the normalized input. A terminator ('.', '!', '?') followed by whitespace
// ends a sentence unless its word looks like an abbreviation.
func Split(text string) []string {
	norm := normalize(text)
	if norm == "" {
		return nil
	}

	var sentences []string
	runes := []rune(norm)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		atEnd := i == len(runes)-1
		if !atEnd && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if r == '.' && isAbbreviation(runes[start:i]) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// Chunk builds chunks of at most chunkSize characters from whole sentences,
// carrying roughly overlap characters of trailing sentences into each next
// chunk. A single sentence longer than chunkSize becomes its own chunk,
// kept whole. Empty or whitespace-only input yields no chunks.
func Chunk(text string, chunkSize, overlap int) []string {
	sentences := Split(text)
	if len(sentences) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		return []string{strings.Join(sentences, " ")}
	}

	var chunks []string
	var current []string
	for _, sentence := range sentences {
		if len(current) > 0 && joinedLen(current)+1+len(sentence) > chunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			current = carryOver(current, overlap)
		}
		current = append(current, sentence)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// carryOver picks trailing sentences of a closed chunk whose combined
// length stays within the overlap budget, preserving order.
func carryOver(sentences []string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}
	size := 0
	cut := len(sentences)
	for i := len(sentences) - 1; i >= 0; i-- {
		if size+len(sentences[i]) > overlap {
			break
		}
		size += len(sentences[i]) + 1
		cut = i
	}
	if cut == len(sentences) {
		return nil
	}
	out := make([]string, len(sentences)-cut)
	copy(out, sentences[cut:])
	return out
}

func joinedLen(sentences []string) int {
	n := 0
	for i, s := range sentences {
		if i > 0 {
			n++
		}
		n += len(s)
	}
	return n
}

func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// isAbbreviation reports whether the text before a period ends in a token
// that usually carries a period without ending the sentence, such as a
// single capital initial ("A.") or a title ("Dr.").
func isAbbreviation(before []rune) bool {
	end := len(before)
	start := end
	for start > 0 && !unicode.IsSpace(before[start-1]) {
		start--
	}
	word := strings.TrimRight(string(before[start:end]), ".")
	if word == "" {
		return false
	}
	runes := []rune(word)
	if len(runes) == 1 && unicode.IsUpper(runes[0]) {
		return true
	}
	_, ok := titleAbbrevs[word]
	return ok
}
