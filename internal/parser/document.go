package parser

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Kind identifies the variant of a document node.
type Kind int

const (
	KindHeading Kind = iota
	KindParagraph
	KindListItem
	KindRawText
	KindFencedCode
	KindSpace
)

// Node is one block-level token of the source document. Raw keeps the
// original inline markers (backticks, bold) so the locator can pattern-match
// against them.
type Node struct {
	Kind    Kind
	Level   int    // heading level, when Kind is KindHeading
	Raw     string // raw block text with inline markers preserved
	Lang    string // language tag, when Kind is KindFencedCode
	Content string // inner text, when Kind is KindFencedCode
	Offset  int    // byte offset of the opening fence line, -1 when unknown
}

// Document pairs the tokenized nodes with the source they came from.
type Document struct {
	Source []byte
	Nodes  []Node
}

// Tokenize parses markdown into a flat list of block nodes. List items are
// flattened to one node each so the locator can walk neighbors without
// caring about nesting, and a Space node marks blank-line separation.
func Tokenize(src []byte) (*Document, error) {
	root := goldmark.DefaultParser().Parse(text.NewReader(src))
	d := &Document{Source: src}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		d.appendBlock(n, src)
	}
	return d, nil
}

func (d *Document) appendBlock(n ast.Node, src []byte) {
	if len(d.Nodes) > 0 && n.HasBlankPreviousLines() {
		d.Nodes = append(d.Nodes, Node{Kind: KindSpace})
	}

	switch node := n.(type) {
	case *ast.Heading:
		// ATX hashes are not part of the heading text, but strip them in
		// case a tokenizer hands back the whole line.
		raw := strings.TrimSpace(strings.TrimLeft(rawText(node, src), "#"))
		d.Nodes = append(d.Nodes, Node{
			Kind:  KindHeading,
			Level: node.Level,
			Raw:   raw,
		})
	case *ast.Paragraph, *ast.TextBlock:
		d.Nodes = append(d.Nodes, Node{Kind: KindParagraph, Raw: rawText(n, src)})
	case *ast.List:
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			d.Nodes = append(d.Nodes, Node{Kind: KindListItem, Raw: rawText(item, src)})
		}
	case *ast.FencedCodeBlock:
		d.Nodes = append(d.Nodes, fencedNode(node, src))
	default:
		d.Nodes = append(d.Nodes, Node{Kind: KindRawText, Raw: rawText(n, src)})
	}
}

func fencedNode(fcb *ast.FencedCodeBlock, src []byte) Node {
	n := Node{Kind: KindFencedCode, Offset: fenceOffset(fcb, src)}
	if fcb.Info != nil {
		n.Lang = string(fcb.Info.Text(src))
	}
	var content bytes.Buffer
	lines := fcb.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		content.Write(line.Value(src))
	}
	n.Content = content.String()
	return n
}

// fenceOffset returns the byte offset of the opening fence line, so the
// locator can inspect the raw text immediately preceding the block.
func fenceOffset(fcb *ast.FencedCodeBlock, src []byte) int {
	p := -1
	if fcb.Info != nil {
		p = fcb.Info.Segment.Start
	} else if fcb.Lines().Len() > 0 {
		p = fcb.Lines().At(0).Start
		if p > 0 {
			p-- // step back onto the fence line's newline
		}
	}
	if p < 0 || p > len(src) {
		return -1
	}
	for p > 0 && src[p-1] != '\n' {
		p--
	}
	return p
}

// rawText reassembles a block node's source text. Container nodes (lists,
// blockquotes) have no lines of their own, so it recurses into children.
func rawText(n ast.Node, src []byte) string {
	var b bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			b.Write(line.Value(src))
		}
		return strings.TrimRight(b.String(), "\n")
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		t := rawText(c, src)
		if t == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t)
	}
	return b.String()
}
