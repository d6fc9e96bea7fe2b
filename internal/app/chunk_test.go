package app

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestChunkGroupsLines(t *testing.T) {
	assert.Equal(t, []string{"```\na\nb\n```"}, Chunk("a\nb\n", 10))
	assert.Equal(t, []string{"```\naaa\n```", "```\nbbb\n```"}, Chunk("aaa\nbbb", 5))
	assert.Empty(t, Chunk("", 10))
}

func TestChunkCutsLongLines(t *testing.T) {
	assert.Equal(t, []string{"```\nabc\n```", "```\ndef\n```", "```\ngh\n```"}, Chunk("abcdefgh", 4))

	for _, c := range Chunk(strings.Repeat("é", 5), 4) {
		body := strings.TrimSuffix(strings.TrimPrefix(c, "```\n"), "\n```")
		assert.True(t, utf8.ValidString(body), c)
		assert.Less(t, len(body), 4)
	}
}

func TestChunkDefaultLimit(t *testing.T) {
	line := strings.Repeat("x", 100)
	text := strings.TrimSuffix(strings.Repeat(line+"\n", 50), "\n")
	chunks := Chunk(text, 0)
	assert.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), MaxChunk+8)
	}
	joined := ""
	for _, c := range chunks {
		joined += strings.TrimSuffix(strings.TrimPrefix(c, "```\n"), "\n```") + "\n"
	}
	assert.Equal(t, text+"\n", joined)
}
