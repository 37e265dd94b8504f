package chunker

import (
	"strings"

	"ingexai/types"
)

// DefaultChunkSize is the word count per chunk used at the ingestion boundary.
const DefaultChunkSize = 500

// Split breaks text into chunks of at most size whitespace-delimited words,
// joined back with single spaces. The final chunk holds the remainder.
// Splitting on strings.Fields keeps multi-byte scripts intact: only explicit
// whitespace separates words, never byte or rune counts.
func Split(text string, size int) ([]string, error) {
	if size <= 0 {
		return nil, types.ErrInvalidChunkSize
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	chunks := make([]string, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks, nil
}
