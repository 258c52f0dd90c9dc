// Package tableimage renders HTML tables as JPEG images for clients that
// cannot display tables natively.
package tableimage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	pad     = 5
	quality = 90
)

var (
	background = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	border     = color.RGBA{R: 0xAA, G: 0xAA, B: 0xAA, A: 0xFF}
	foreground = color.RGBA{A: 0xFF}

	face = basicfont.Face7x13
)

// Grid is the text content of a table, row by row.
type Grid [][]string

// Cells extracts the grid of a table node. Each cell's text is split into
// lines at <br> and at the rows and cells of nested tables; lines are trimmed
// and blank ones dropped. Empty cells keep their column position.
func Cells(table *html.Node) Grid {
	var grid Grid
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n != table && n.Type == html.ElementNode && n.DataAtom == atom.Table {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			grid = append(grid, rowCells(n))
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(table)
	return grid
}

// Size reports the number of cells in the grid.
func (g Grid) Size() int {
	total := 0
	for _, row := range g {
		total += len(row)
	}
	return total
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for child := tr.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		if child.DataAtom != atom.Td && child.DataAtom != atom.Th {
			continue
		}
		cells = append(cells, cellText(child))
	}
	return cells
}

func cellText(cell *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			sb.WriteString(n.Data)
		case n.Type == html.ElementNode && n.DataAtom == atom.Br:
			sb.WriteByte('\n')
		case n.Type == html.ElementNode && lineBreaking[n.DataAtom]:
			sb.WriteByte('\n')
			defer sb.WriteByte('\n')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(cell)

	var lines []string
	for _, line := range strings.FieldsFunc(sb.String(), func(r rune) bool { return r == '\n' || r == '\r' }) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// lineBreaking elements start a new line inside a cell.
var lineBreaking = map[atom.Atom]bool{
	atom.Tr: true, atom.Td: true, atom.Th: true, atom.P: true, atom.Div: true, atom.Li: true,
}

// Rasterize draws the grid: white background, grey cell borders and black
// text centered in each column, top-aligned with a fixed padding. A cell with
// several lines makes its whole row taller. An empty grid yields a minimal
// bordered image.
func Rasterize(grid Grid) *image.RGBA {
	charWidth := face.Advance

	var widths []int
	heights := make([]int, len(grid))
	for row, cells := range grid {
		lineCount := 1
		for col, text := range cells {
			lines := strings.Split(text, "\n")
			lineCount = max(lineCount, len(lines))

			width := 2 * pad
			for _, line := range lines {
				width = max(width, utf8.RuneCountInString(line)*charWidth+2*pad)
			}
			if col >= len(widths) {
				widths = append(widths, width)
				continue
			}
			widths[col] = max(widths[col], width)
		}
		heights[row] = lineCount*face.Height + 2*pad
	}

	imageWidth := 2
	for _, w := range widths {
		imageWidth += w
	}
	imageHeight := 1
	for _, h := range heights {
		imageHeight += h
	}

	img := image.NewRGBA(image.Rect(0, 0, imageWidth, imageHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	y := 0
	for _, h := range heights {
		horizontal(img, y, imageWidth)
		y += h
	}
	horizontal(img, imageHeight-1, imageWidth)
	x := 0
	for _, w := range widths {
		vertical(img, x, imageHeight)
		x += w
	}
	vertical(img, imageWidth-1, imageHeight)

	drawer := &font.Drawer{Dst: img, Src: image.NewUniform(foreground), Face: face}
	top := 0
	for row, cells := range grid {
		start := 0
		for col, text := range cells {
			end := start + widths[col]
			for i, line := range strings.Split(text, "\n") {
				if line == "" {
					continue
				}
				lineWidth := drawer.MeasureString(line).Ceil()
				drawer.Dot = fixed.P((start+end-lineWidth)/2, top+pad+i*face.Height+face.Ascent)
				drawer.DrawString(line)
			}
			start = end
		}
		top += heights[row]
	}

	return img
}

func horizontal(img *image.RGBA, y, width int) {
	for x := 0; x < width; x++ {
		img.SetRGBA(x, y, border)
	}
}

func vertical(img *image.RGBA, x, height int) {
	for y := 0; y < height; y++ {
		img.SetRGBA(x, y, border)
	}
}

// EncodeJPEG encodes img as a JPEG.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode table image: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI wraps JPEG bytes in a data URI suitable for inline transport.
func DataURI(jpegData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
}

// Render rasterizes a grid and returns it as a JPEG data URI.
func Render(grid Grid) (string, error) {
	data, err := EncodeJPEG(Rasterize(grid))
	if err != nil {
		return "", err
	}
	return DataURI(data), nil
}
