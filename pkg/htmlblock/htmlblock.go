// Package htmlblock splits backend-authored HTML into an ordered sequence of
// content blocks (text, image, media, link) that map onto Teams card elements.
package htmlblock

import (
	"bytes"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"teamsbridge/pkg/logger"
	"teamsbridge/pkg/tableimage"
)

// Kind is the type of a content block.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindMedia Kind = "media"
	KindLink  Kind = "link"
)

// TableAlt is the alt text of rasterized tables.
const TableAlt = "table data"

// Block is one unit of parsed content. HTML is set for text blocks, Src for
// image, media and link blocks.
type Block struct {
	Kind     Kind
	HTML     string
	Src      string
	Alt      string
	MimeType string
}

// Text builds a text block.
func Text(markup string) Block { return Block{Kind: KindText, HTML: markup} }

// IsText reports whether the block renders as text.
func (b Block) IsText() bool { return b.Kind == KindText || b.Kind == KindLink }

// inline elements are merged with neighbouring text into a single block.
var inline = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Br: true, atom.Cite: true,
	atom.Code: true, atom.Del: true, atom.Em: true, atom.Font: true, atom.I: true,
	atom.Ins: true, atom.Kbd: true, atom.Label: true, atom.Mark: true, atom.Q: true,
	atom.S: true, atom.Small: true, atom.Span: true, atom.Strike: true, atom.Strong: true,
	atom.Sub: true, atom.Sup: true, atom.Time: true, atom.U: true,
}

// Extractor turns HTML into blocks. It keeps no state between calls.
type Extractor struct {
	logger        *slog.Logger
	maxTableCells int
}

// New creates an extractor. Tables with more than maxTableCells cells stay as
// text; zero or a negative limit disables the check.
func New(log *slog.Logger, maxTableCells int) *Extractor {
	if log == nil {
		log = logger.Discard()
	}
	return &Extractor{
		logger:        log.With("component", "htmlblock"),
		maxTableCells: maxTableCells,
	}
}

// Extract parses src as a body fragment and returns its blocks in document
// order. Parse failures are logged and yield no blocks.
func (e *Extractor) Extract(src string) []Block {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		e.logger.Error("parse html fragment", "error", err, "length", len(src))
		return nil
	}

	var blocks []Block
	var run []*html.Node
	flush := func() {
		if len(run) == 0 {
			return
		}
		if markup := renderAll(run); strings.TrimSpace(markup) != "" {
			blocks = append(blocks, Text(markup))
		}
		run = run[:0]
	}

	for _, node := range nodes {
		if isInline(node) {
			run = append(run, node)
			continue
		}
		flush()
		blocks = append(blocks, e.blocksFor(node)...)
	}
	flush()

	return blocks
}

func (e *Extractor) blocksFor(node *html.Node) []Block {
	switch {
	case node.Type == html.CommentNode:
		return nil
	case contains(node, atom.Iframe):
		return e.decompose(node, atom.Iframe)
	case contains(node, atom.Img):
		return e.decompose(node, atom.Img)
	case contains(node, atom.Table):
		return e.decompose(node, atom.Table)
	default:
		return textBlocks(node)
	}
}

// decompose emits one block per child of node, turning children of the target
// type into their rich block and recursing into children that contain one.
func (e *Extractor) decompose(node *html.Node, target atom.Atom) []Block {
	if node.Type == html.ElementNode && node.DataAtom == target {
		return []Block{e.leaf(node)}
	}

	var blocks []Block
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		switch {
		case child.Type == html.ElementNode && child.DataAtom == target:
			blocks = append(blocks, e.leaf(child))
		case contains(child, target):
			blocks = append(blocks, e.decompose(child, target)...)
		default:
			blocks = append(blocks, textBlocks(child)...)
		}
	}
	return blocks
}

func (e *Extractor) leaf(node *html.Node) Block {
	switch node.DataAtom {
	case atom.Iframe:
		if src := attr(node, "src"); src != "" {
			return Block{Kind: KindLink, Src: src}
		}
		return Text(render(node))
	case atom.Img:
		src := attr(node, "src")
		if mime := mimeType(node); mime != "" {
			return Block{Kind: KindMedia, Src: src, MimeType: mime}
		}
		return Block{Kind: KindImage, Src: src, Alt: attr(node, "alt")}
	default:
		return e.table(node)
	}
}

func (e *Extractor) table(node *html.Node) Block {
	grid := tableimage.Cells(node)
	if e.maxTableCells > 0 && grid.Size() > e.maxTableCells {
		e.logger.Warn("table too large to rasterize", "cells", grid.Size(), "limit", e.maxTableCells)
		return Text(render(node))
	}

	uri, err := tableimage.Render(grid)
	if err != nil {
		e.logger.Warn("rasterize table", "error", err)
		return Text(render(node))
	}
	return Block{Kind: KindImage, Src: uri, Alt: TableAlt}
}

func textBlocks(node *html.Node) []Block {
	if node.Type == html.CommentNode {
		return nil
	}
	markup := render(node)
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	return []Block{Text(markup)}
}

func isInline(node *html.Node) bool {
	switch node.Type {
	case html.TextNode:
		return true
	case html.ElementNode:
		if !inline[node.DataAtom] {
			return false
		}
		return !contains(node, atom.Iframe) && !contains(node, atom.Img) && !contains(node, atom.Table)
	default:
		return false
	}
}

func contains(node *html.Node, target atom.Atom) bool {
	if node.Type == html.ElementNode && node.DataAtom == target {
		return true
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if contains(child, target) {
			return true
		}
	}
	return false
}

func mimeType(node *html.Node) string {
	if mime := attr(node, "type"); mime != "" {
		return mime
	}
	return attr(node, "data-mime-type")
}

func attr(node *html.Node, key string) string {
	for _, a := range node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func render(node *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return ""
	}
	return buf.String()
}

func renderAll(nodes []*html.Node) string {
	var sb strings.Builder
	for _, node := range nodes {
		sb.WriteString(render(node))
	}
	return sb.String()
}
