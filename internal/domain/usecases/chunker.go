// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces. They contain
// no framework code - just the pipeline logic.
package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/csadvisor/advisor-go/internal/domain/entities"
)

// Default splitting parameters, matching the sizing of the embedding model's
// context window.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// Chunker splits source records into overlapping text segments.
// Splitting is deterministic and side-effect free.
type Chunker struct {
	maxSize int
	overlap int
}

// NewChunker creates a Chunker. Invalid arguments fall back to the defaults,
// clamped so the overlap is always smaller than the chunk size.
func NewChunker(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = DefaultChunkOverlap
		if overlap >= maxSize {
			overlap = maxSize / 10
		}
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}
}

// Split serializes each record to its canonical text form and cuts it into
// chunks of at most maxSize characters. Consecutive chunks from one record
// share exactly overlap characters. Natural boundaries (paragraph, line,
// sentence, word) are preferred over hard character cuts.
func (c *Chunker) Split(records []entities.Record) ([]entities.Chunk, error) {
	var chunks []entities.Chunk
	for _, rec := range records {
		text, err := canonicalText(rec)
		if err != nil {
			return nil, fmt.Errorf("serializing record %q: %w", rec.SourceID, err)
		}
		for i, content := range c.splitText(text) {
			chunks = append(chunks, entities.Chunk{
				ID:       chunkID(rec.SourceID, i),
				SourceID: rec.SourceID,
				Content:  content,
				Index:    i,
			})
		}
	}
	return chunks, nil
}

// MaxSize returns the configured chunk size bound.
func (c *Chunker) MaxSize() int { return c.maxSize }

// splitText cuts text into segments of at most maxSize characters where each
// segment starts overlap characters before the previous one ended.
func (c *Chunker) splitText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= c.maxSize {
		return []string{text}
	}

	var parts []string
	start := 0
	for start < len(text) {
		end := start + c.maxSize
		if end >= len(text) {
			parts = append(parts, text[start:])
			break
		}
		end = c.cutPoint(text, start, end)
		parts = append(parts, text[start:end])
		start = end - c.overlap
	}
	return parts
}

// cutPoint picks the split position within (start, limit], preferring the
// latest natural boundary. A boundary too close to start would stall the scan
// against the overlap, so it must leave room for forward progress.
func (c *Chunker) cutPoint(text string, start, limit int) int {
	window := text[start:limit]
	floor := c.overlap + 1
	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if idx := strings.LastIndex(window, sep); idx >= floor {
			return start + idx + len(sep)
		}
	}
	return limit
}

// canonicalText renders a record's nested content as indented JSON. Map keys
// serialize in sorted order, so the form is stable across runs.
func canonicalText(rec entities.Record) (string, error) {
	data, err := json.MarshalIndent(rec.Content, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// chunkID derives a deterministic id from the source record and position.
func chunkID(sourceID string, index int) string {
	hash := sha256.Sum256([]byte(sourceID + ":" + strconv.Itoa(index)))
	return hex.EncodeToString(hash[:8])
}
