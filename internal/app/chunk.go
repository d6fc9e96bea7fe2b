package app

import (
	"strings"
	"unicode/utf8"
)

// MaxChunk keeps a fenced chunk under the 2000 byte limit of chat
// messages.
const MaxChunk = 1990

const fence = "```"

// Chunk splits text on line boundaries into code-fenced messages whose
// content stays under limit bytes. Lines longer than limit are cut on
// rune boundaries.
func Chunk(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxChunk
	}
	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, fence+"\n"+cur.String()+"\n"+fence)
			cur.Reset()
		}
	}
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		for _, piece := range splitLong(line, limit-1) {
			if cur.Len() > 0 && cur.Len()+1+len(piece) >= limit {
				flush()
			}
			if cur.Len() > 0 {
				cur.WriteByte('\n')
			}
			cur.WriteString(piece)
		}
	}
	flush()
	return chunks
}

func splitLong(line string, limit int) []string {
	if len(line) <= limit {
		return []string{line}
	}
	var out []string
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		out = append(out, line[:cut])
		line = line[cut:]
	}
	if line != "" {
		out = append(out, line)
	}
	return out
}
