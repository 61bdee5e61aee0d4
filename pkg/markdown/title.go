package markdown

import (
	"bytes"

	"github.com/CTAG07/Sundew/pkg/token"
)

// ParseTitleOverride looks for a {{"Title"}} directive on the first
// non-blank line of src. When found it returns the title and the source
// that follows that line; otherwise it returns src unchanged.
func ParseTitleOverride(src []byte) (title string, body []byte, ok bool) {
	rest := src
	for len(rest) > 0 {
		line, next, _ := bytes.Cut(rest, []byte{'\n'})
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			rest = next
			continue
		}
		if title, ok = titleDirective(trimmed); ok {
			return title, next, true
		}
		break
	}
	return "", src, false
}

// titleDirective reports whether line is exactly '{{' path '}}'.
func titleDirective(line []byte) (string, bool) {
	cur := token.NewCursor(line)
	if token.Next(&cur).Kind != token.ExprStart {
		return "", false
	}
	path := token.Next(&cur)
	if path.Kind != token.Path {
		return "", false
	}
	if token.Next(&cur).Kind != token.ExprEnd || token.Next(&cur).Kind != token.EOF {
		return "", false
	}
	return token.Unescape(cur.Text(path)), true
}
