package markdown

import (
	"strings"
	"testing"
)

func TestConvertBlocks(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"plain line", "just a line\n", "<p>just a line</p>"},
		{"paragraph lines", "one\ntwo\r\n\nthree", "<p>one<br>two</p>\n<p>three</p>"},
		{"heading", "## Title *here*", "<h2>Title <em>here</em></h2>"},
		{"heading six", "###### small", "<h6>small</h6>"},
		{"heading too deep", "####### seven", "<p>####### seven</p>"},
		{"unordered list", "* a\n* b", "<ul><li>a</li><li>b</li></ul>"},
		{"ordered list", "1. a\n2. b\n10. c", "<ol><li>a</li><li>b</li><li>c</li></ol>"},
		{"nested list", "* a\n  * a1\n  1. n\n* b", "<ul><li>a<ul><li>a1</li></ul><ol><li>n</li></ol></li><li>b</li></ul>"},
		{"list ends at text", "* a\nafter", "<ul><li>a</li></ul>\n<p>after</p>"},
		{"bold is not a list", "**bold** start", "<p><strong>bold</strong> start</p>"},
		{"code block", "      x := <b>\n  y\n\nz", "<pre><code>x := <b>\n  y\n</code></pre>\n<p>z</p>"},
		{"blockquote lines", "> a\n> b", "<blockquote><p>a<br>b</p></blockquote>"},
		{"blockquote nesting", "> outer\n>> inner\n", "<blockquote><p>outer<blockquote><p>inner</p></blockquote></p></blockquote>"},
		{"blockquote spaced markers", "> > deep\n> back", "<blockquote><p><blockquote><p>deep</p></blockquote>back</p></blockquote>"},
		{"empty", "\n\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertBlocks(tt.src); got != tt.want {
				t.Errorf("ConvertBlocks(%q)\n got %q\nwant %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestConvertBlocks_PlainTextIsStable(t *testing.T) {
	const line = "nothing special here"
	first := ConvertBlocks(line)
	if first != "<p>"+line+"</p>" {
		t.Fatalf("got %q", first)
	}
	if again := ConvertBlocks(line); again != first {
		t.Errorf("second run differs: %q vs %q", again, first)
	}
}

func TestFormatSpans(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"image", "![alt](img.png)", `<img src="img.png" alt="alt">`},
		{"image then link", "![a](x.png) and [b](y.html)", `<img src="x.png" alt="a"> and <a href="y.html">b</a>`},
		{"two links", "[a](1)[b](2)", `<a href="1">a</a><a href="2">b</a>`},
		{"link keeps url underscores", "see [my_page](my_page_url.html)", `see <a href="my_page_url.html">my_page</a>`},
		{"emphasis inside link", "**[x](a_b_c)**", `<strong><a href="a_b_c">x</a></strong>`},
		{"strong and em", "**bold** and *it* and __b2__ and _i2_", "<strong>bold</strong> and <em>it</em> and <strong>b2</strong> and <em>i2</em>"},
		{"strike", "~~gone~~", "<s>gone</s>"},
		{"snake case", "a snake_case_name", "a snake_case_name"},
		{"lone star", "2 * 3 = 6", "2 * 3 = 6"},
		{"escapes", `\_x\_ \[y\] \\ \<z\> \(w\)`, "&#95;x&#95; &#91;y&#93; &#92; &lt;z&gt; &#40;w&#41;"},
		{"escaped image", `\![a](b)`, `\![a](b)`},
		{"escaped star", `\*not em\*`, "&#42;not em&#42;"},
		{"comparison around strong", "1 < 2 is **true**, 3 > 2", "1 < 2 is <strong>true</strong>, 3 > 2"},
		{"comparison around em", "if a < b and *c* then d > e", "if a < b and <em>c</em> then d > e"},
		{"closing tag is masked", "</span>*x*", "</span><em>x</em>"},
		{"nul bytes in text", "*a*\x001\x00 [l](u_v)", `<em>a</em>1 <a href="u_v">l</a>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSpans(tt.in); got != tt.want {
				t.Errorf("FormatSpans(%q)\n got %q\nwant %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTitleOverride(t *testing.T) {
	title, body, ok := ParseTitleOverride([]byte("\n  {{ \"My \\\"Post\\\"\" }}  \nbody text\n"))
	if !ok || title != `My "Post"` {
		t.Fatalf("got title %q ok=%v", title, ok)
	}
	if string(body) != "body text\n" {
		t.Errorf("body = %q", body)
	}

	src := []byte("first line\n{{\"late\"}}\n")
	if _, body, ok := ParseTitleOverride(src); ok || string(body) != string(src) {
		t.Errorf("a directive after the first line must not be taken, ok=%v body=%q", ok, body)
	}
	if _, _, ok := ParseTitleOverride([]byte(`{{"a"}} trailing`)); ok {
		t.Error("trailing text after the directive should not count")
	}
}

func TestClassicConvert(t *testing.T) {
	doc, err := Classic{}.Convert([]byte("{{\"Hello\"}}\n# Head\ntext\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !doc.HasTitle || doc.Title != "Hello" {
		t.Errorf("title override not applied: %+v", doc)
	}
	if doc.HTML != "<h1>Head</h1>\n<p>text</p>" {
		t.Errorf("HTML = %q", doc.HTML)
	}
}

func TestGoldmarkConvert(t *testing.T) {
	conv, err := New("goldmark")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := conv.Convert([]byte("{{\"T\"}}\n# Head\n\n~~old~~ | text\n"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "T" {
		t.Errorf("title = %q", doc.Title)
	}
	if !strings.Contains(doc.HTML, `<h1 id="head">Head</h1>`) || !strings.Contains(doc.HTML, "<del>old</del>") {
		t.Errorf("unexpected goldmark output %q", doc.HTML)
	}
}

func TestNew(t *testing.T) {
	if c, err := New(""); err != nil || c.Name() != EngineClassic {
		t.Errorf("empty engine should select classic, got %v %v", c, err)
	}
	if _, err := New("pandoc"); err == nil {
		t.Error("unknown engine should fail")
	}
}
