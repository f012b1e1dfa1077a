// Package chunk packs normalized document text into size-bounded, boundary-aware
// chunks with carried-over overlap between consecutive chunks.
package chunk

import (
	"fmt"
	"sort"
	"strings"

	"github.com/localvector/vectorstore/internal/boundary"
)

// Strategy selects which boundary kinds the assembler treats as preferred cut points.
type Strategy int

const (
	Hybrid Strategy = iota
	Semantic
	Structural
)

// Options controls the size bounds, overlap, and boundary strategy used by Assemble.
type Options struct {
	MaxChunkSize             int
	MinChunkSize             int
	OverlapSize              int
	Strategy                 Strategy
	PreserveHeaders          bool
	IncludePageNumbers       bool
	RespectDocumentStructure bool
}

// Validate checks the size invariants: 0 ≤ min ≤ max and 0 ≤ overlap < min.
func (o Options) Validate() error {
	if o.MinChunkSize < 0 || o.MinChunkSize > o.MaxChunkSize {
		return fmt.Errorf("invalid chunk options: min_chunk_size %d must be in [0, max_chunk_size %d]", o.MinChunkSize, o.MaxChunkSize)
	}
	if o.OverlapSize < 0 || o.OverlapSize >= o.MinChunkSize {
		return fmt.Errorf("invalid chunk options: overlap_size %d must be in [0, min_chunk_size %d)", o.OverlapSize, o.MinChunkSize)
	}
	return nil
}

// Chunk is one packed unit of text plus its position and size metadata.
type Chunk struct {
	Content        string
	ChunkIndex     int
	StartPosition  int
	EndPosition    int
	WordCount      int
	CharacterCount int
	HasOverlap     bool
	HeaderContext  string
}

// Assemble packs text into chunks according to opts, using boundaries as candidate
// cut points. boundaries need not be pre-filtered by strategy; Assemble filters the
// driving boundary set itself and keeps the full list available for fallback cuts.
func Assemble(text string, boundaries []boundary.Boundary, opts Options) ([]Chunk, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, nil
	}

	primary := filterByStrategy(boundaries, opts.Strategy)
	sort.SliceStable(primary, func(i, j int) bool { return primary[i].Position < primary[j].Position })

	var chunks []Chunk
	var buf strings.Builder
	pos := 0
	chunkStart := 0
	overlap := ""
	lastHeader := ""

	emit := func(stop int, seg string) {
		raw := buf.String() + seg[:stop]
		stored := raw
		if overlap != "" && strings.HasPrefix(raw, overlap) {
			stored = raw[len(overlap):]
		}
		if stop == 0 && len(stored) < opts.MinChunkSize {
			// Nothing would be emitted or consumed; take one byte so the loop advances.
			stop = 1
			raw += seg[:1]
		}
		if len(stored) >= opts.MinChunkSize {
			chunks = append(chunks, Chunk{
				Content:        stored,
				ChunkIndex:     len(chunks),
				StartPosition:  chunkStart,
				EndPosition:    pos + stop,
				WordCount:      len(strings.Fields(stored)),
				CharacterCount: len(stored),
				HasOverlap:     overlap != "",
				HeaderContext:  lastHeader,
			})
			overlap = smartOverlap(stored, opts.OverlapSize)
			buf.Reset()
			buf.WriteString(overlap)
			chunkStart = pos + stop
		} else {
			buf.Reset()
			buf.WriteString(raw)
		}
		pos += stop
	}

	i := 0
	for i < len(primary) {
		b := primary[i]
		if b.Position <= pos {
			i++
			continue
		}
		if b.Kind == boundary.Header && opts.PreserveHeaders && b.Context != "" {
			lastHeader = b.Context
		}
		if b.Position > len(text) {
			i++
			continue
		}
		seg := text[pos:b.Position]
		if buf.Len()+len(seg) <= opts.MaxChunkSize {
			buf.WriteString(seg)
			pos = b.Position
			i++
			continue
		}
		stop := chooseStop(text, pos, seg, boundaries, buf.Len(), opts)
		emit(stop, seg)
	}

	for pos < len(text) {
		seg := text[pos:]
		if buf.Len()+len(seg) <= opts.MaxChunkSize {
			buf.WriteString(seg)
			pos = len(text)
			break
		}
		stop := chooseStop(text, pos, seg, boundaries, buf.Len(), opts)
		emit(stop, seg)
	}

	if buf.Len() > 0 {
		raw := buf.String()
		stored := raw
		if overlap != "" && strings.HasPrefix(raw, overlap) {
			stored = raw[len(overlap):]
		}
		if len(stored) >= opts.MinChunkSize {
			chunks = append(chunks, Chunk{
				Content:        stored,
				ChunkIndex:     len(chunks),
				StartPosition:  chunkStart,
				EndPosition:    len(text),
				WordCount:      len(strings.Fields(stored)),
				CharacterCount: len(stored),
				HasOverlap:     overlap != "",
				HeaderContext:  lastHeader,
			})
		}
	}

	if len(chunks) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed != "" {
			chunks = append(chunks, Chunk{
				Content:        trimmed,
				ChunkIndex:     0,
				StartPosition:  0,
				EndPosition:    len(text),
				WordCount:      len(strings.Fields(trimmed)),
				CharacterCount: len(trimmed),
			})
		}
	}

	return chunks, nil
}

func filterByStrategy(bs []boundary.Boundary, s Strategy) []boundary.Boundary {
	var allowed func(boundary.Kind) bool
	switch s {
	case Semantic:
		allowed = func(k boundary.Kind) bool {
			return k == boundary.Paragraph || k == boundary.Sentence || k == boundary.Word
		}
	case Structural:
		allowed = func(k boundary.Kind) bool {
			switch k {
			case boundary.Header, boundary.Section, boundary.Page, boundary.CodeBlock, boundary.ListItem:
				return true
			}
			return false
		}
	default:
		allowed = func(boundary.Kind) bool { return true }
	}
	out := make([]boundary.Boundary, 0, len(bs))
	for _, b := range bs {
		if allowed(b.Kind) {
			out = append(out, b)
		}
	}
	return out
}

// chooseStop picks the byte offset within seg (text[pos:pos+len(seg)]) at which to cut
// when buf+seg would exceed MaxChunkSize. It ranks interior boundaries first, then
// falls back to sentence end, then space, then a hard cut at the size budget. When buf
// already holds MaxChunkSize bytes it returns 0, so buf is emitted as it is.
func chooseStop(text string, pos int, seg string, all []boundary.Boundary, bufLen int, opts Options) int {
	budget := opts.MaxChunkSize - bufLen
	if budget < 0 {
		budget = 0
	}
	if budget > len(seg) {
		budget = len(seg)
	}
	target := pos + budget

	var candidates []boundary.Boundary
	for _, b := range all {
		if b.Position > pos && b.Position < pos+len(seg) {
			candidates = append(candidates, b)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return abs(candidates[i].Position-target) < abs(candidates[j].Position-target)
	})
	for _, c := range candidates {
		length := bufLen + (c.Position - pos)
		if length >= opts.MinChunkSize && length <= opts.MaxChunkSize {
			return c.Position - pos
		}
	}

	if idx := lastByteIndexAny(seg[:budget], ".!?"); idx >= 0 {
		return idx + 1
	}
	if idx := strings.LastIndex(seg[:budget], " "); idx >= 0 {
		return idx + 1
	}
	if budget <= 0 {
		return 0
	}
	if budget > len(seg) {
		budget = len(seg)
	}
	return budget
}

// smartOverlap extracts the suffix of content to carry forward as the next chunk's
// leading context, per the sentence/space/hard-cut preference order.
func smartOverlap(content string, overlapSize int) string {
	if overlapSize <= 0 || content == "" {
		return ""
	}
	window := 2 * overlapSize
	if window > len(content) {
		window = len(content)
	}
	tail := content[len(content)-window:]

	if idx := lastByteIndexAny(tail, ".!?"); idx >= 0 {
		suffix := strings.TrimLeft(tail[idx+1:], " \t\n\r")
		if len(suffix) >= overlapSize/2 {
			return suffix
		}
	}
	if idx := strings.LastIndex(tail, " "); idx >= 0 {
		suffix := tail[idx+1:]
		if len(suffix) >= overlapSize/3 {
			return suffix
		}
	}
	if overlapSize > len(content) {
		return content
	}
	return content[len(content)-overlapSize:]
}

func lastByteIndexAny(s, chars string) int {
	return strings.LastIndexAny(s, chars)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
