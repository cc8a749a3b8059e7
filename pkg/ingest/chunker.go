package ingest

import "strings"

const (
	// DefaultChunkSize is the chunk length in words.
	DefaultChunkSize = 200

	// DefaultOverlap is how many words consecutive chunks share, so a
	// sentence split across a boundary still matches in one chunk.
	DefaultOverlap = 20
)

// Chunk splits text into word windows of chunkSize words where consecutive
// windows share overlap words. Whitespace runs collapse. Empty or
// whitespace-only text yields no chunks.
func Chunk(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 2
		}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}

	return chunks
}
