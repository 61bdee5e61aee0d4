package token

import (
	"fmt"
	"strings"
)

// Kind identifies the lexical class of a Token.
type Kind int8

const (
	Assign         Kind = iota // =
	EOL                        // \n or \r\n
	ExprStart                  // {{
	ExprEnd                    // }}
	Include                    // include
	For                        // for
	EndFor                     // endfor
	In                         // in
	Identifier                 // [A-Za-z_][A-Za-z0-9_.-]*
	CollectionPage             // all_pages
	CollectionPost             // all_posts
	Path                       // "quoted/path"
	OrderByAsc                 // orderby_asc
	OrderByDesc                // orderby_desc
	Unknown
	EOF
)

var kindNames = [...]string{
	Assign:         "'='",
	EOL:            "end of line",
	ExprStart:      "'{{'",
	ExprEnd:        "'}}'",
	Include:        "'include'",
	For:            "'for'",
	EndFor:         "'endfor'",
	In:             "'in'",
	Identifier:     "identifier",
	CollectionPage: "'all_pages'",
	CollectionPost: "'all_posts'",
	Path:           "quoted path",
	OrderByAsc:     "'orderby_asc'",
	OrderByDesc:    "'orderby_desc'",
	Unknown:        "unknown token",
	EOF:            "end of input",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int8(k))
}

// keywords maps the lower-cased spelling of every reserved word to its kind.
// Matching is exact and case-insensitive.
var keywords = map[string]Kind{
	"for":          For,
	"endfor":       EndFor,
	"in":           In,
	"include":      Include,
	"all_pages":    CollectionPage,
	"all_posts":    CollectionPost,
	"orderby_asc":  OrderByAsc,
	"orderby_desc": OrderByDesc,
}

// Token is a typed view into a Cursor's buffer. Start and End are byte offsets;
// for a Path token they exclude the surrounding quotes.
type Token struct {
	Kind  Kind
	Start int
	End   int
}

// Len returns the length of the token's span in bytes.
func (t Token) Len() int {
	return t.End - t.Start
}

// Unescape resolves the \" sequences a Path token may contain.
func Unescape(path string) string {
	if !strings.Contains(path, `\"`) {
		return path
	}
	return strings.ReplaceAll(path, `\"`, `"`)
}
