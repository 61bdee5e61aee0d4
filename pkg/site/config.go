package site

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CTAG07/Sundew/pkg/templating"
	"github.com/CTAG07/Sundew/pkg/token"
)

// ConfigFileName is the site configuration file looked up in the site
// directory.
const ConfigFileName = "site.txt"

// Keys read from the site configuration.
const (
	KeyName        = "site.name"
	KeyURL         = "site.url"
	KeyTemplateDir = "site.template_dir"
	KeyPostsDir    = "site.posts_src_dir"
	KeyNumPages    = "site.num_pages"
	KeyNumPosts    = "site.num_posts"
)

var monthNames = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// DefaultVariables returns the environment a site starts from before its
// configuration file is applied.
func DefaultVariables() *templating.Variables {
	vars := templating.NewVariables()
	vars.Set(KeyName, "Undefined")
	vars.Set(KeyURL, "http://")
	vars.Set(KeyTemplateDir, "template")
	vars.Set(KeyPostsDir, "posts")
	for i, name := range monthNames {
		vars.Set(fmt.Sprintf("month_%02d", i+1), name)
	}
	return vars
}

// ConfigError reports a malformed line in the site configuration.
type ConfigError struct {
	File     string
	Line     int
	Found    token.Kind
	Expected token.Kind
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s:%d: unexpected %s while expecting %s", e.File, e.Line, e.Found, e.Expected)
}

// ParseConfig applies the assignments in buf to vars. Each non-blank line is
// key = "value"; lines starting with '#' are comments.
func ParseConfig(name string, buf []byte, vars *templating.Variables) error {
	start := 0
	for line := 1; start <= len(buf); line++ {
		end := bytes.IndexByte(buf[start:], '\n')
		if end < 0 {
			end = len(buf)
		} else {
			end += start
		}
		next := end + 1

		if end > start && buf[end-1] == '\r' {
			end--
		}
		text := bytes.TrimSpace(buf[start:end])
		if len(text) > 0 && text[0] != '#' {
			if err := parseAssignment(name, line, buf, start, end, vars); err != nil {
				return err
			}
		}
		start = next
	}
	return nil
}

func parseAssignment(name string, line int, buf []byte, start, end int, vars *templating.Variables) error {
	cur := token.NewRangeCursor(buf, start, end)
	want := func(kind token.Kind) (token.Token, error) {
		tok := token.Next(&cur)
		if tok.Kind != kind {
			return tok, &ConfigError{File: name, Line: line, Found: tok.Kind, Expected: kind}
		}
		return tok, nil
	}

	key, err := want(token.Identifier)
	if err != nil {
		return err
	}
	if _, err = want(token.Assign); err != nil {
		return err
	}
	value, err := want(token.Path)
	if err != nil {
		return err
	}
	if _, err = want(token.EOF); err != nil {
		return err
	}
	vars.Set(cur.Text(key), token.Unescape(cur.Text(value)))
	return nil
}

// LoadConfig reads the site configuration in siteDir over the defaults.
// Relative template and posts directories are resolved against siteDir and
// written back to the environment as resolved paths.
func LoadConfig(siteDir string) (*templating.Variables, error) {
	path := filepath.Join(siteDir, ConfigFileName)
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open site config file: %w", err)
	}

	vars := DefaultVariables()
	if err = ParseConfig(path, buf, vars); err != nil {
		return nil, err
	}
	for _, key := range []string{KeyTemplateDir, KeyPostsDir} {
		dir, _ := vars.Get(key)
		if !filepath.IsAbs(dir) {
			vars.Set(key, filepath.Join(siteDir, dir))
		}
	}
	return vars, nil
}
