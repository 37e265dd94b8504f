package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ingexai/types"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{
			name: "even split",
			text: "one two three four five six",
			size: 2,
			want: []string{"one two", "three four", "five six"},
		},
		{
			name: "remainder in final chunk",
			text: "one two three",
			size: 2,
			want: []string{"one two", "three"},
		},
		{
			name: "size exceeds word count",
			text: "one two three",
			size: 10,
			want: []string{"one two three"},
		},
		{
			name: "empty text",
			text: "",
			size: 5,
			want: nil,
		},
		{
			name: "whitespace only",
			text: "  \t\n  ",
			size: 5,
			want: nil,
		},
		{
			name: "runs of whitespace collapse",
			text: "  one \t two\n\nthree  ",
			size: 2,
			want: []string{"one two", "three"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.text, tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitInvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		chunks, err := Split("some text", size)
		assert.ErrorIs(t, err, types.ErrInvalidChunkSize)
		assert.Nil(t, chunks)
	}
}

func TestSplitPreservesWordSequence(t *testing.T) {
	texts := []string{
		"the quick brown fox jumps over the lazy dog",
		"a",
		"  spaced   out   words   everywhere  ",
		"один два три четыре пять",
	}

	for _, text := range texts {
		for size := 1; size <= 4; size++ {
			chunks, err := Split(text, size)
			require.NoError(t, err)

			var rejoined []string
			for _, chunk := range chunks {
				rejoined = append(rejoined, strings.Fields(chunk)...)
			}
			assert.Equal(t, strings.Fields(text), rejoined,
				"text %q size %d", text, size)
		}
	}
}

func TestSplitMultiByteWords(t *testing.T) {
	chunks, err := Split("こんにちは 世界 の みなさん", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"こんにちは 世界 の", "みなさん"}, chunks)
}

func TestSplitChunkBounds(t *testing.T) {
	chunks, err := Split(strings.Repeat("word ", 1001), 500)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Len(t, strings.Fields(chunks[0]), 500)
	assert.Len(t, strings.Fields(chunks[1]), 500)
	assert.Len(t, strings.Fields(chunks[2]), 1)
}
