package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	imagePattern = regexp.MustCompile(`(^|[^\\])!\[([^\]]*)\]\(([^)\s]*)\)`)
	linkPattern  = regexp.MustCompile(`(^|[^\\!])\[([^\]]*)\]\(([^)]*)\)`)
	tagPattern   = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)

	strongStar  = regexp.MustCompile(`\*\*(.+?)\*\*`)
	strongUnder = regexp.MustCompile(`\b__(.+?)__\b`)
	emStar      = regexp.MustCompile(`\*([^*\s](?:[^*]*[^*\s])?)\*`)
	emUnder     = regexp.MustCompile(`\b_(.+?)_\b`)
	strike      = regexp.MustCompile(`~~(.+?)~~`)

	escapes = strings.NewReplacer(
		`\\`, "&#92;",
		`\_`, "&#95;",
		`\*`, "&#42;",
		`\[`, "&#91;",
		`\]`, "&#93;",
		`\<`, "&lt;",
		`\>`, "&gt;",
		`\(`, "&#40;",
		`\)`, "&#41;",
	)
)

// FormatSpans applies the inline passes to one line of text, in order:
// images, links, backslash escapes, then emphasis. Images go first so the
// link pass never sees the brackets of an image.
func FormatSpans(line string) string {
	if strings.Contains(line, "![") {
		line = replaceAll(imagePattern, line, `$1<img src="$3" alt="$2">`)
	}
	if strings.Contains(line, "](") {
		line = replaceAll(linkPattern, line, `$1<a href="$3">$2</a>`)
	}
	if strings.IndexByte(line, '\\') >= 0 {
		line = escapes.Replace(line)
	}
	if strings.ContainsAny(line, "*_~") {
		line = emphasis(line)
	}
	return line
}

// replaceAll repeats a substitution until it stops matching. Each pattern
// carries one byte of left context, so two adjacent spans need two passes.
func replaceAll(re *regexp.Regexp, s, repl string) string {
	for range strings.Count(s, "](") {
		next := re.ReplaceAllString(s, repl)
		if next == s {
			break
		}
		s = next
	}
	return s
}

// emphasis rewrites emphasis markers in the text between HTML tags. Tags are
// swapped for placeholders first so attribute values such as URLs keep
// their underscores and asterisks. NUL bytes are dropped since they delimit
// the placeholders.
func emphasis(line string) string {
	var tags []string
	line = strings.ReplaceAll(line, "\x00", "")
	masked := tagPattern.ReplaceAllStringFunc(line, func(tag string) string {
		tags = append(tags, tag)
		return "\x00" + strconv.Itoa(len(tags)-1) + "\x00"
	})

	masked = strongStar.ReplaceAllString(masked, "<strong>$1</strong>")
	masked = strongUnder.ReplaceAllString(masked, "<strong>$1</strong>")
	masked = emStar.ReplaceAllString(masked, "<em>$1</em>")
	masked = emUnder.ReplaceAllString(masked, "<em>$1</em>")
	masked = strike.ReplaceAllString(masked, "<s>$1</s>")

	if len(tags) == 0 {
		return masked
	}
	var b strings.Builder
	for {
		start := strings.IndexByte(masked, 0)
		if start < 0 {
			b.WriteString(masked)
			break
		}
		end := strings.IndexByte(masked[start+1:], 0)
		if end < 0 {
			b.WriteString(masked)
			break
		}
		end += start + 1
		b.WriteString(masked[:start])
		if i, err := strconv.Atoi(masked[start+1 : end]); err == nil && i < len(tags) {
			b.WriteString(tags[i])
		}
		masked = masked[end+1:]
	}
	return b.String()
}
