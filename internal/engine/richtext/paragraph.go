package richtext

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/redline/internal/engine/style"
)

// Run is a stretch of text sharing one character format.
type Run struct {
	Text   string
	Format style.Properties
}

// Len returns the run length in runes.
func (r Run) Len() int {
	return utf8.RuneCountInString(r.Text)
}

// ListRef places a paragraph in a list.
type ListRef struct {
	ID    ListID
	Level int
}

// BlockAttrs are the paragraph-level attributes of a block.
type BlockAttrs struct {
	Format  style.Properties
	List    *ListRef
	Outline int
}

// Clone returns a deep copy of the attributes.
func (a BlockAttrs) Clone() BlockAttrs {
	out := BlockAttrs{Format: a.Format.Clone(), Outline: a.Outline}
	if a.List != nil {
		ref := *a.List
		out.List = &ref
	}
	return out
}

// Block is a top-level element of a flow: a *Paragraph or a *Table.
type Block interface {
	span() int
	cloneBlock() Block
}

// Paragraph is a block of formatted runs.
type Paragraph struct {
	Runs []Run
	BlockAttrs
}

// Len returns the text length of the paragraph, excluding its separator.
func (p *Paragraph) Len() int {
	n := 0
	for _, r := range p.Runs {
		n += r.Len()
	}
	return n
}

// Text returns the plain text of the paragraph.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Clone returns a deep copy of the paragraph.
func (p *Paragraph) Clone() *Paragraph {
	out := &Paragraph{BlockAttrs: p.BlockAttrs.Clone()}
	if len(p.Runs) > 0 {
		out.Runs = make([]Run, len(p.Runs))
		for i, r := range p.Runs {
			out.Runs[i] = Run{Text: r.Text, Format: r.Format.Clone()}
		}
	}
	return out
}

func (p *Paragraph) span() int { return p.Len() + 1 }

func (p *Paragraph) cloneBlock() Block { return p.Clone() }

// splitAt makes sure a run boundary exists at offset and returns the index
// of the first run starting at or after it.
func (p *Paragraph) splitAt(offset int) int {
	pos := 0
	for i, r := range p.Runs {
		n := r.Len()
		if offset == pos {
			return i
		}
		if offset < pos+n {
			cut := byteOffset(r.Text, offset-pos)
			left := Run{Text: r.Text[:cut], Format: r.Format}
			right := Run{Text: r.Text[cut:], Format: r.Format.Clone()}
			p.Runs = append(p.Runs[:i], append([]Run{left, right}, p.Runs[i+1:]...)...)
			return i + 1
		}
		pos += n
	}
	return len(p.Runs)
}

func (p *Paragraph) insertText(offset int, text string, format style.Properties) {
	if text == "" {
		return
	}
	i := p.splitAt(offset)
	run := Run{Text: text, Format: format.Clone()}
	p.Runs = append(p.Runs[:i], append([]Run{run}, p.Runs[i:]...)...)
	p.compact()
}

// slice returns copies of the runs covering [from, to).
func (p *Paragraph) slice(from, to int) []Run {
	var out []Run
	pos := 0
	for _, r := range p.Runs {
		n := r.Len()
		s, e := max(from, pos), min(to, pos+n)
		if s < e {
			text := r.Text[byteOffset(r.Text, s-pos):byteOffset(r.Text, e-pos)]
			out = append(out, Run{Text: text, Format: r.Format.Clone()})
		}
		pos += n
	}
	return out
}

func (p *Paragraph) deleteText(from, to int) {
	if from >= to {
		return
	}
	head := p.slice(0, from)
	tail := p.slice(to, p.Len())
	p.Runs = append(head, tail...)
	p.compact()
}

// cut truncates the paragraph at offset and returns the runs after it.
func (p *Paragraph) cut(offset int) []Run {
	tail := p.slice(offset, p.Len())
	p.Runs = p.slice(0, offset)
	return tail
}

// compact drops empty runs and merges neighbours with equal formats.
func (p *Paragraph) compact() {
	out := p.Runs[:0]
	for _, r := range p.Runs {
		if r.Text == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Format.Equal(r.Format) {
			out[n-1].Text += r.Text
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		p.Runs = nil
		return
	}
	p.Runs = out
}

// byteOffset converts a rune offset within s to a byte offset.
func byteOffset(s string, runes int) int {
	if runes <= 0 {
		return 0
	}
	i := 0
	for b := range s {
		if i == runes {
			return b
		}
		i++
	}
	return len(s)
}
