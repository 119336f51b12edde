package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the character budget of a knowledge chunk.
const DefaultChunkSize = 500

var sentencePattern = regexp.MustCompile(`[^.!?]*[.!?]+`)

// ChunkText splits text into chunks of whole sentences. Sentences are
// accumulated until adding the next one would push the buffer past maxSize
// characters. A sentence that alone exceeds maxSize is emitted as its own
// oversized chunk rather than cut.
func ChunkText(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}

	sentences := splitSentences(text)
	chunks := make([]string, 0, len(sentences))

	var current strings.Builder
	size := 0
	flush := func() {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		size = 0
	}

	for _, sentence := range sentences {
		n := utf8.RuneCountInString(sentence)
		if size > 0 && size+n > maxSize {
			flush()
			sentence = strings.TrimLeft(sentence, " \t\r\n")
			n = utf8.RuneCountInString(sentence)
		}
		current.WriteString(sentence)
		size += n
	}
	flush()

	return chunks
}

// splitSentences returns the punctuation-terminated runs of text plus any
// unterminated tail, so joining the result reproduces text.
func splitSentences(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	locs := sentencePattern.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	sentences := make([]string, 0, len(locs)+1)
	end := 0
	for _, loc := range locs {
		sentences = append(sentences, text[loc[0]:loc[1]])
		end = loc[1]
	}
	if tail := text[end:]; strings.TrimSpace(tail) != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
