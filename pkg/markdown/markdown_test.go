package markdown

import "testing"

func TestToMarkdown(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "paragraphs keep order", in: "<p>A</p><p>B</p>", want: "A\rB\r"},
		{name: "anchor", in: `<a href="https://x">L</a>`, want: "[L](https://x)"},
		{name: "single quoted anchor", in: `<A HREF='https://y' target="_blank">Y</A>`, want: "[Y](https://y)"},
		{name: "unquoted anchor", in: `<a href=https://z>Z</a>`, want: "[Z](https://z)"},
		{name: "anchor without href", in: `<a name="top">top</a>`, want: "top"},
		{name: "bold and italic", in: "<strong>Bold</strong> and <em>it</em> <b>b</b> <i>i</i>", want: "**Bold** and _it_ **b** _i_"},
		{name: "headings", in: "<h2>Title</h2>", want: "**Title**"},
		{name: "strikethrough", in: "<del>old</del><s>gone</s>", want: "~old~~gone~"},
		{name: "line breaks", in: "one<br>two<br/>three<br />four", want: "one\ntwo\nthree\nfour"},
		{name: "lists", in: "<ul>\n\t<li>a</li>\n\t<li>b</li>\n</ul>", want: "\r* a\n* b\n\r"},
		{name: "code", in: "<code>x := 1</code>", want: "`x := 1`"},
		{name: "pre", in: "<pre>block</pre>", want: "```block```"},
		{name: "strips unknown tags", in: `<div class="box"><span style="color:red">Hi</span></div>`, want: "Hi"},
		{name: "drops attributes of allowed tags", in: `<p class="lead">Text</p>`, want: "Text\r"},
		{name: "comments", in: "<p>a<!-- hidden -->b</p>", want: "ab\r"},
		{name: "entities", in: "<p>Tom &amp; Jerry &eacute;</p>", want: "Tom & Jerry é\r"},
		{name: "plain text untouched", in: "line\nnext", want: "line\nnext"},
		{name: "encoded comparison", in: "<p>a &lt; b &#62; c</p>", want: "a < b > c\r"},
		{name: "encoded tags stay encoded", in: "<p>type &lt;b&gt;x&lt;/b&gt; here</p>", want: "type &lt;b&gt;x&lt;/b&gt; here\r"},
		{name: "encoded tags in plain text", in: "use &#x3C;br&#x3E; &amp; more", want: "use &lt;br&gt; & more"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToMarkdown(tc.in); got != tc.want {
				t.Fatalf("ToMarkdown(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestToMarkdownIdempotentOnOutput(t *testing.T) {
	inputs := []string{
		"<p>A</p><p>B</p>",
		"one<br>two",
		"<ul><li>a</li><li>b</li></ul>",
		`<p>See <a href="https://x">docs</a> for <strong>more</strong></p>`,
		"<p>type &lt;b&gt;x&lt;/b&gt; here</p><p>next</p>",
		"line one<br>&lt;p&gt; is a paragraph",
	}

	for _, in := range inputs {
		once := ToMarkdown(in)
		if twice := ToMarkdown(once); twice != once {
			t.Fatalf("ToMarkdown not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestHasMarkup(t *testing.T) {
	cases := map[string]bool{
		"plain":           false,
		"a < b and c > d": false,
		"<p>x</p>":        true,
		"x<br/>y":         true,
		"<!-- note -->":   true,
		"**bold** [l](u)": false,
	}

	for in, want := range cases {
		if got := HasMarkup(in); got != want {
			t.Fatalf("HasMarkup(%q) = %v, want %v", in, got, want)
		}
	}
}
