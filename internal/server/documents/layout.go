// Package documents renders applications and status letters into PDF.
//
// Content is assembled into a Layout made of plain text blocks and handed to
// a Converter. User-supplied text is never interpreted as markup.
package documents

import "time"

type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockField
	BlockParagraph
	BlockLink
)

// Block is one unit of document content. Label is used by field and link
// blocks; for links Text holds the target URL.
type Block struct {
	Kind  BlockKind
	Label string
	Text  string
}

// Layout is a fixed-structure document ready for conversion.
type Layout struct {
	Title       string
	GeneratedAt time.Time
	Blocks      []Block
}

func (l *Layout) heading(text string) {
	l.Blocks = append(l.Blocks, Block{Kind: BlockHeading, Text: text})
}

func (l *Layout) field(label, value string) {
	l.Blocks = append(l.Blocks, Block{Kind: BlockField, Label: label, Text: value})
}

func (l *Layout) paragraph(text string) {
	l.Blocks = append(l.Blocks, Block{Kind: BlockParagraph, Text: text})
}

func (l *Layout) link(label, url string) {
	l.Blocks = append(l.Blocks, Block{Kind: BlockLink, Label: label, Text: url})
}

// Converter turns a Layout into document bytes. Implementations return
// either the complete document or an error.
type Converter interface {
	Convert(layout *Layout) ([]byte, error)
}
