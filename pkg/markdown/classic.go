package markdown

import (
	"strconv"
	"strings"
)

// codeIndent marks a code block line.
const codeIndent = "      "

// Classic is the built-in line-oriented converter. Blocks end at a blank
// line; headings, list items and quotes are recognised at the start of a
// block only. It is not CommonMark: the grammar is deliberately small.
type Classic struct{}

func (Classic) Name() string { return EngineClassic }

// Convert implements Converter.
func (Classic) Convert(src []byte) (Document, error) {
	var doc Document
	body := src
	if title, rest, ok := ParseTitleOverride(src); ok {
		doc.Title, doc.HasTitle = title, true
		body = rest
	}
	doc.HTML = ConvertBlocks(string(body))
	return doc, nil
}

// ConvertBlocks renders Markdown text without looking for a title override.
// Blocks are separated by a newline in the output.
func ConvertBlocks(text string) string {
	lines := splitLines(text)
	var blocks []string
	for i := 0; i < len(lines); {
		if isBlank(lines[i]) {
			i++
			continue
		}
		var html string
		html, i = block(lines, i)
		blocks = append(blocks, html)
	}
	return strings.Join(blocks, "\n")
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// block renders the block starting at lines[i] and returns the index of
// the first line it did not consume.
func block(lines []string, i int) (string, int) {
	line := lines[i]
	switch {
	case line[0] == '#':
		if h, ok := heading(line); ok {
			return h, i + 1
		}
	case isListItem(line):
		return list(lines, i)
	case strings.HasPrefix(line, codeIndent):
		return codeBlock(lines, i)
	case line[0] == '>':
		return blockquote(lines, i)
	}
	return paragraph(lines, i)
}

// heading renders "#".."######" lines. More hashes are not a heading.
func heading(line string) (string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level > 6 {
		return "", false
	}
	n := strconv.Itoa(level)
	text := strings.TrimSpace(line[level:])
	return "<h" + n + ">" + FormatSpans(text) + "</h" + n + ">", true
}

func paragraph(lines []string, i int) (string, int) {
	var b strings.Builder
	b.WriteString("<p>")
	for n := 0; i < len(lines) && !isBlank(lines[i]); i, n = i+1, n+1 {
		if n > 0 {
			b.WriteString("<br>")
		}
		b.WriteString(FormatSpans(lines[i]))
	}
	b.WriteString("</p>")
	return b.String(), i
}

// codeBlock copies lines verbatim up to the next blank line. Only the first
// line has to be indented; the indent is removed wherever it is present.
func codeBlock(lines []string, i int) (string, int) {
	var b strings.Builder
	b.WriteString("<pre><code>")
	for ; i < len(lines) && !isBlank(lines[i]); i++ {
		b.WriteString(strings.TrimPrefix(lines[i], codeIndent))
		b.WriteByte('\n')
	}
	b.WriteString("</code></pre>")
	return b.String(), i
}

// blockquote renders quoted lines. The nesting depth of a line is the number
// of leading '>' characters; a deeper line opens a nested quote and a
// shallower one closes quotes back down to its depth.
func blockquote(lines []string, i int) (string, int) {
	var b strings.Builder
	depth, lineCount := 0, 0
	for ; i < len(lines) && !isBlank(lines[i]); i++ {
		newDepth, text := quoteDepth(lines[i])
		switch {
		case newDepth > depth:
			for ; depth < newDepth; depth++ {
				b.WriteString("<blockquote><p>")
			}
			lineCount = 0
		case newDepth < depth && newDepth > 0:
			for ; depth > newDepth; depth-- {
				b.WriteString("</p></blockquote>")
			}
			lineCount = 0
		}
		if lineCount > 0 {
			b.WriteString("<br>")
		}
		b.WriteString(FormatSpans(text))
		lineCount++
	}
	for ; depth > 0; depth-- {
		b.WriteString("</p></blockquote>")
	}
	return b.String(), i
}

// quoteDepth counts leading '>' markers, allowing spaces between them, and
// returns the remaining text. A line without markers continues the current
// quote at the same depth and reports depth 0.
func quoteDepth(line string) (int, string) {
	depth, pos := 0, 0
	for pos < len(line) {
		switch line[pos] {
		case '>':
			depth++
		case ' ', '\t':
		default:
			return depth, strings.TrimSpace(line[pos:])
		}
		pos++
	}
	return depth, ""
}

type listItem struct {
	indent  int
	ordered bool
	text    string
}

// parseListItem recognises "* text" and "12. text", optionally indented.
func parseListItem(line string) (listItem, bool) {
	indent, pos := 0, 0
	for pos < len(line) && (line[pos] == ' ' || line[pos] == '\t') {
		if line[pos] == '\t' {
			indent += 4
		} else {
			indent++
		}
		pos++
	}
	rest := line[pos:]
	if len(rest) >= 2 && rest[0] == '*' && (rest[1] == ' ' || rest[1] == '\t') {
		return listItem{indent: indent, text: strings.TrimSpace(rest[2:])}, true
	}
	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 && len(rest) > digits+1 && rest[digits] == '.' && (rest[digits+1] == ' ' || rest[digits+1] == '\t') {
		return listItem{indent: indent, ordered: true, text: strings.TrimSpace(rest[digits+2:])}, true
	}
	return listItem{}, false
}

// isListItem reports whether an unindented line opens a list.
func isListItem(line string) bool {
	item, ok := parseListItem(line)
	return ok && item.indent == 0
}

// list consumes contiguous list item lines starting at lines[i]. A line that
// is not an item ends the list, as does a blank line.
func list(lines []string, i int) (string, int) {
	var items []listItem
	for ; i < len(lines); i++ {
		item, ok := parseListItem(lines[i])
		if !ok {
			break
		}
		items = append(items, item)
	}

	var b strings.Builder
	for pos := 0; pos < len(items); {
		pos = renderList(&b, items, pos)
	}
	return b.String(), i
}

// renderList writes one <ul> or <ol> made of the items at the indent of
// items[pos] and the same kind, with deeper items nested inside the
// preceding <li>. It returns the index of the first item it did not use.
func renderList(b *strings.Builder, items []listItem, pos int) int {
	base, ordered := items[pos].indent, items[pos].ordered
	tag := "ul"
	if ordered {
		tag = "ol"
	}
	b.WriteString("<" + tag + ">")
	for pos < len(items) && items[pos].indent >= base && items[pos].ordered == ordered {
		b.WriteString("<li>")
		b.WriteString(FormatSpans(items[pos].text))
		pos++
		for pos < len(items) && items[pos].indent > base {
			pos = renderList(b, items, pos)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</" + tag + ">")
	return pos
}
