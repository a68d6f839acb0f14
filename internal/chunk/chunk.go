// Package chunk splits oversized text into an ordered sequence of chunks
// while keeping fenced code blocks intact and carrying a bounded context
// overlap between neighbours.
//
// Three modes are provided. Naive splitting cuts at fixed offsets and is
// the baseline every other mode reduces to. Smart splitting nudges each
// cut to the nearest fence-safe position within a tolerance window.
// Preserve mode lifts whole code blocks into their own chunks and only
// splits inside a fence when a single block is itself larger than the
// chunk budget, reopening the fence so every chunk stays well-formed
// markdown on its own.
package chunk

import (
	"log/slog"
	"strings"

	"github.com/promptprep/promptprep/internal/fault"
)

// Default sizing constants. Callers override them through Options.
const (
	DefaultMaxChunkSize = 8000
	// DefaultMinChunkSize bounds how far a smart cut may be pulled back.
	DefaultMinChunkSize = 500
	// DefaultOverlap is the context carried from one chunk to the next.
	DefaultOverlap = 200
)

// Mode selects the splitting strategy.
type Mode string

const (
	ModeNaive        Mode = "naive"
	ModeSmart        Mode = "smart"
	ModePreserveCode Mode = "preserve"
)

// ParseMode converts a mode string from the CLI or API.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNaive, ModeSmart, ModePreserveCode:
		return Mode(s), nil
	case "":
		return ModeSmart, nil
	}
	return "", fault.Validation("bad_mode", "unknown chunk mode "+s)
}

// Chunk is one segment of a split text. Index is 0-based and contiguous.
// ContextPrefix repeats the tail of the previous chunk's content; it is
// not part of the reconstructable text.
type Chunk struct {
	Content           string `json:"content" yaml:"content"`
	Index             int    `json:"index" yaml:"index"`
	HasContextOverlap bool   `json:"has_context_overlap" yaml:"has_context_overlap"`
	ContextPrefix     string `json:"context_prefix,omitempty" yaml:"context_prefix,omitempty"`

	// fenceUnsafe records that the chunker had to hard-split inside an
	// open fence. Diagnostic only; not part of the contract.
	fenceUnsafe bool
}

// FenceUnsafe reports the internal hard-split diagnostic.
func (c Chunk) FenceUnsafe() bool { return c.fenceUnsafe }

// FullText returns the chunk as a reader sees it, overlap included.
func (c Chunk) FullText() string { return c.ContextPrefix + c.Content }

// Options tunes the splitter. Zero fields take the package defaults.
type Options struct {
	// MinChunkSize is the smallest chunk a smart cut may be pulled back
	// to; together with MaxChunkSize it forms the tolerance window.
	MinChunkSize int
	// MaxChunkSize is the largest chunk a smart cut may be pushed
	// forward to. Only a value strictly above the requested maxSize acts
	// as a cap; anything else defaults to twice maxSize so the forward
	// fence search has room to work with.
	MaxChunkSize int
	Overlap      int
}

func (o Options) normalized(maxSize int) Options {
	if o.MinChunkSize <= 0 {
		o.MinChunkSize = DefaultMinChunkSize
	}
	if o.MinChunkSize > maxSize {
		o.MinChunkSize = maxSize
	}
	if o.MaxChunkSize <= maxSize {
		// A forward cut is always past maxSize, so a window capped at
		// maxSize would disable the forward search entirely.
		o.MaxChunkSize = 2 * maxSize
	}
	if o.Overlap <= 0 {
		o.Overlap = DefaultOverlap
	}
	return o
}

// Split chunks text with the given mode and maximum chunk size.
// A non-positive maxSize is a configuration error. Empty text yields an
// empty sequence; text at or under maxSize yields exactly one chunk.
func Split(text string, maxSize int, mode Mode, opts Options) ([]Chunk, error) {
	if maxSize <= 0 {
		return nil, fault.Configuration("bad_max_size", "max chunk size must be positive")
	}
	if text == "" {
		return nil, nil
	}
	opts = opts.normalized(maxSize)
	if len(text) <= maxSize {
		return []Chunk{{Content: text}}, nil
	}

	var chunks []Chunk
	switch mode {
	case ModeNaive:
		chunks = splitNaive(text, maxSize)
	case ModeSmart:
		chunks = splitSmart(text, maxSize, opts)
	case ModePreserveCode:
		chunks = splitPreserve(text, maxSize)
	default:
		return nil, fault.Validation("bad_mode", "unknown chunk mode "+string(mode))
	}

	attachOverlaps(chunks, opts.Overlap)
	slog.Debug("text chunked", "mode", mode, "input_chars", len(text), "chunks", len(chunks))
	return chunks, nil
}

// attachOverlaps assigns indices and copies the previous chunk's tail
// into each later chunk's context prefix.
func attachOverlaps(chunks []Chunk, overlap int) {
	for i := range chunks {
		chunks[i].Index = i
		if i == 0 {
			continue
		}
		prev := chunks[i-1].Content
		n := overlap
		if n > len(prev) {
			n = len(prev)
		}
		if n > 0 {
			chunks[i].ContextPrefix = prev[len(prev)-n:]
			chunks[i].HasContextOverlap = true
		}
	}
}

// splitNaive cuts at fixed maxSize offsets.
func splitNaive(text string, maxSize int) []Chunk {
	chunks := make([]Chunk, 0, (len(text)+maxSize-1)/maxSize)
	for pos := 0; pos < len(text); pos += maxSize {
		end := pos + maxSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, Chunk{Content: text[pos:end]})
	}
	return chunks
}

const fence = "```"

// nextFence returns the index of the next fence marker at or after from,
// or -1. Markers are recognized at the start of a line, which is how
// markdown treats them.
func nextFence(text string, from int) int {
	for {
		idx := strings.Index(text[from:], fence)
		if idx < 0 {
			return -1
		}
		abs := from + idx
		if abs == 0 || text[abs-1] == '\n' {
			return abs
		}
		from = abs + len(fence)
	}
}

// splitSmart is a single forward pass: the scanner tracks fence state as
// it walks the text and moves each candidate cut out of any open fence.
func splitSmart(text string, maxSize int, opts Options) []Chunk {
	var chunks []Chunk
	pos := 0

	for pos < len(text) {
		remaining := len(text) - pos
		if remaining <= maxSize {
			chunks = append(chunks, Chunk{Content: text[pos:]})
			break
		}

		end := pos + maxSize
		cut, unsafe := fenceSafeCut(text, pos, end, opts.MinChunkSize, opts.MaxChunkSize)
		chunks = append(chunks, Chunk{Content: text[pos:cut], fenceUnsafe: unsafe})
		pos = cut
	}
	return chunks
}

// fenceSafeCut finds a cut position for the chunk starting at pos with a
// candidate boundary at end. If end falls inside an open fence the cut is
// pulled back to just before the fence opened, or pushed forward past the
// fence close, whichever is nearer while keeping the chunk within the
// [minSize, windowMax] tolerance window. When no safe position exists the
// candidate is kept and the chunk is flagged fence-unsafe.
func fenceSafeCut(text string, pos, end, minSize, windowMax int) (int, bool) {
	// Walk fence markers inside [pos, end) to find the state at end.
	open := -1 // absolute index of the marker that opened the current fence
	at := pos
	for {
		idx := nextFence(text, at)
		if idx < 0 || idx >= end {
			break
		}
		if open < 0 {
			open = idx
		} else {
			open = -1
		}
		at = idx + len(fence)
	}
	if open < 0 {
		return end, false // boundary is fence-safe as-is
	}

	// Backward candidate: cut just before the open fence marker.
	back := -1
	if open-pos >= minSize {
		back = open
	}

	// Forward candidate: cut just after the closing marker's line.
	fwd := -1
	if closeIdx := nextFence(text, end); closeIdx >= 0 {
		cut := closeIdx + len(fence)
		if nl := strings.IndexByte(text[cut:], '\n'); nl >= 0 {
			cut += nl + 1
		} else {
			cut = len(text)
		}
		if cut-pos <= windowMax {
			fwd = cut
		}
	}

	switch {
	case back >= 0 && fwd >= 0:
		if end-back <= fwd-end {
			return back, false
		}
		return fwd, false
	case back >= 0:
		return back, false
	case fwd >= 0:
		return fwd, false
	}

	slog.Debug("no fence-safe boundary, hard splitting", "pos", pos, "end", end)
	return end, true
}

// segment is a run of prose or one whole fenced block.
type segment struct {
	text    string
	isFence bool
	lang    string
}

// parseSegments splits text into alternating prose and fenced-block
// segments. An unterminated fence runs to the end of the text.
func parseSegments(text string) []segment {
	var segs []segment
	pos := 0
	for pos < len(text) {
		openIdx := nextFence(text, pos)
		if openIdx < 0 {
			segs = append(segs, segment{text: text[pos:]})
			break
		}
		if openIdx > pos {
			segs = append(segs, segment{text: text[pos:openIdx]})
		}

		// Language tag runs from the marker to end of line.
		langEnd := openIdx + len(fence)
		if nl := strings.IndexByte(text[langEnd:], '\n'); nl >= 0 {
			langEnd += nl
		} else {
			langEnd = len(text)
		}
		lang := strings.TrimSpace(text[openIdx+len(fence) : langEnd])

		closeIdx := nextFence(text, langEnd)
		var blockEnd int
		if closeIdx < 0 {
			blockEnd = len(text)
		} else {
			blockEnd = closeIdx + len(fence)
			if nl := strings.IndexByte(text[blockEnd:], '\n'); nl >= 0 {
				blockEnd += nl + 1
			} else {
				blockEnd = len(text)
			}
		}
		segs = append(segs, segment{text: text[openIdx:blockEnd], isFence: true, lang: lang})
		pos = blockEnd
	}
	return segs
}

// splitPreserve keeps every code block that fits in maxSize whole, moving
// it to its own chunk when it would otherwise straddle a boundary. Only a
// block longer than maxSize is split inside the fence, and each
// continuation reopens the fence so the chunk renders on its own.
func splitPreserve(text string, maxSize int) []Chunk {
	segs := parseSegments(text)

	var chunks []Chunk
	var cur strings.Builder

	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, Chunk{Content: cur.String()})
			cur.Reset()
		}
	}

	for _, seg := range segs {
		if !seg.isFence {
			// Prose packs into the current chunk, splitting naively.
			rest := seg.text
			for rest != "" {
				space := maxSize - cur.Len()
				if space <= 0 {
					flush()
					space = maxSize
				}
				n := len(rest)
				if n > space {
					n = space
				}
				cur.WriteString(rest[:n])
				rest = rest[n:]
			}
			continue
		}

		if len(seg.text) <= maxSize {
			if cur.Len()+len(seg.text) <= maxSize {
				cur.WriteString(seg.text)
				if cur.Len() == maxSize {
					flush()
				}
			} else {
				// Block would straddle the boundary: isolate it.
				flush()
				chunks = append(chunks, Chunk{Content: seg.text})
			}
			continue
		}

		// Over-long block: split inside the fence, closing each piece
		// and reopening an equivalent marker on the continuation.
		flush()
		chunks = append(chunks, splitLongBlock(seg, maxSize)...)
	}
	flush()
	return chunks
}

// splitLongBlock cuts one oversized fenced block into well-formed pieces.
// The first piece keeps the block's own opening fence and gains a closing
// marker at the cut; each continuation reopens the fence with the same
// language tag. The final piece keeps the block's original closing fence.
func splitLongBlock(seg segment, maxSize int) []Chunk {
	reopen := fence + seg.lang + "\n"
	closer := "\n" + fence + "\n"
	body := seg.text

	var out []Chunk
	first := true
	for len(body) > 0 {
		prefix := ""
		if !first {
			prefix = reopen
		}
		if len(prefix)+len(body) <= maxSize {
			out = append(out, Chunk{Content: prefix + body})
			break
		}

		cut := maxSize - len(prefix) - len(closer)
		if cut < 1 {
			cut = 1
		}
		// Prefer cutting at a line break inside the block.
		if nl := strings.LastIndexByte(body[:cut], '\n'); nl > 0 {
			cut = nl
		}
		out = append(out, Chunk{Content: prefix + body[:cut] + closer})
		body = strings.TrimPrefix(body[cut:], "\n")
		first = false
	}
	return out
}

// CountFences returns the number of fence markers in s. Exported for the
// validation facade, which checks chunk fence balance.
func CountFences(s string) int {
	n := 0
	pos := 0
	for {
		idx := nextFence(s, pos)
		if idx < 0 {
			return n
		}
		n++
		pos = idx + len(fence)
	}
}
