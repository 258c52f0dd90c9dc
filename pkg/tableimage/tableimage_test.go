package tableimage

import (
	"bytes"
	"encoding/base64"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parseTable(t *testing.T, markup string) *html.Node {
	t.Helper()

	doc, err := html.Parse(strings.NewReader(markup))
	require.NoError(t, err)

	var table *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if table != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			table = n
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			find(child)
		}
	}
	find(doc)
	if table == nil {
		t.Fatalf("no table in %q", markup)
	}
	return table
}

func TestCells(t *testing.T) {
	table := parseTable(t, "<table><tr><th>Name</th><th>Age</th></tr><tr><td>\n  Bob \n</td><td></td></tr><tr><td>a<br>b</td><td><b>42</b></td></tr></table>")

	require.Equal(t, Grid{
		{"Name", "Age"},
		{"Bob", ""},
		{"a\nb", "42"},
	}, Cells(table))
}

func TestCellsKeepsNestedTableInsideItsCell(t *testing.T) {
	table := parseTable(t, "<table><tr><td>a<br>bb</td><td><table><tr><td>in1</td></tr><tr><td>in2</td></tr></table></td></tr></table>")

	require.Equal(t, Grid{{"a\nbb", "in1\nin2"}}, Cells(table))
}

func TestRasterizeMultilineRow(t *testing.T) {
	img := Rasterize(Grid{{"a\nbb", "c"}, {"d", ""}})

	// columns: 2 chars -> 2*7+10, 1 char -> 1*7+10; rows: 2*13+10 and 13+10, plus the bottom border
	require.Equal(t, 24+17+2, img.Bounds().Dx())
	require.Equal(t, 36+23+1, img.Bounds().Dy())

	if got := img.RGBAAt(5, 36); got != border {
		t.Fatalf("row separator = %#v, want border", got)
	}
}

func TestRasterizeDimensions(t *testing.T) {
	grid := Grid{{"Name", "Age"}, {"Bob", ""}}

	img := Rasterize(grid)

	// columns: 4 chars -> 4*7+10, 3 chars -> 3*7+10; rows: 2*(13+10)+1
	require.Equal(t, 38+31+2, img.Bounds().Dx())
	require.Equal(t, 2*23+1, img.Bounds().Dy())
}

func TestRasterizeColors(t *testing.T) {
	img := Rasterize(Grid{{"WWWW"}})

	if got := img.RGBAAt(0, 0); got != border {
		t.Fatalf("corner = %#v, want border", got)
	}
	if got := img.RGBAAt(1, 1); got != background {
		t.Fatalf("inside = %#v, want background", got)
	}

	dark := false
	for y := 1; y < 23; y++ {
		for x := 1; x < 38; x++ {
			if img.RGBAAt(x, y).R < 0x80 {
				dark = true
			}
		}
	}
	if !dark {
		t.Fatal("expected text pixels inside the first cell")
	}
}

func TestRasterizeEmptyTable(t *testing.T) {
	img := Rasterize(nil)
	require.Equal(t, 2, img.Bounds().Dx())
	require.Equal(t, 1, img.Bounds().Dy())

	data, err := EncodeJPEG(img)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestEncodeJPEGRoundTrip(t *testing.T) {
	img := Rasterize(Grid{{"a", "bb"}, {"ccc"}})

	data, err := EncodeJPEG(img)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestRender(t *testing.T) {
	table := parseTable(t, "<table><tr><td>x</td></tr></table>")

	uri, err := Render(Cells(table))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
}

func TestGridSize(t *testing.T) {
	if got := (Grid{{"a", "b"}, {"c"}}).Size(); got != 3 {
		t.Fatalf("Size = %d, want 3", got)
	}
}
