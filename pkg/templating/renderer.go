package templating

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/CTAG07/Sundew/pkg/collection"
	"github.com/CTAG07/Sundew/pkg/token"
)

// Data is everything a render reads: the variable environment and the two
// collections loops iterate over. Loops with an orderby clause sort these
// slices in place, so later loops in the same render see the new order.
type Data struct {
	Vars  *Variables
	Pages []collection.Page
	Posts []collection.Post
}

// loader resolves an include path relative to the template root.
type loader func(path string) ([]byte, error)

type source struct {
	name string
	buf  []byte
}

// renderer evaluates one top-level template. It is created per render and
// is not shared between goroutines.
type renderer struct {
	logger *slog.Logger
	config TemplateConfig
	data   *Data
	load   loader
	depth  int
	// dry is non-zero while scanning the body of a loop over an empty
	// collection. Includes are parsed but not read, and nothing warns.
	dry int
}

func newRenderer(logger *slog.Logger, config TemplateConfig, data *Data, load loader) *renderer {
	if data == nil {
		data = &Data{}
	}
	if data.Vars == nil {
		data.Vars = NewVariables()
	}
	return &renderer{
		logger: logger,
		config: config.normalized(),
		data:   data,
		load:   load,
	}
}

// renderFile renders a whole buffer. Stopping short of the end means the
// scan met an {{endfor}} with no loop open, which is a syntax error.
func (r *renderer) renderFile(w io.Writer, src *source) error {
	consumed, err := r.process(w, src, 0, len(src.buf))
	if err != nil {
		return err
	}
	if consumed < len(src.buf) {
		return newSyntaxError(src, consumed, token.EndFor, token.EOF, "{{endfor}} without a matching {{for}}")
	}
	return nil
}

// process copies literal bytes of src.buf[start:end] to w and evaluates each
// directive it meets. It returns how many bytes it consumed. A directive
// that makes no progress (an {{endfor}}) ends the scan there so the loop
// that owns it can take over.
func (r *renderer) process(w io.Writer, src *source, start, end int) (int, error) {
	buf := src.buf
	p, lit := start, start
	for p < end {
		if buf[p] != '{' || p+1 >= end || buf[p+1] != '{' {
			p++
			continue
		}
		if p > lit {
			if _, err := w.Write(buf[lit:p]); err != nil {
				return p - start, err
			}
		}
		cur := token.NewRangeCursor(buf, p, end)
		if err := r.expression(w, src, &cur); err != nil {
			return p - start, err
		}
		if cur.Pos() == p {
			return p - start, nil
		}
		p = cur.Pos()
		lit = p
	}
	if p > lit {
		if _, err := w.Write(buf[lit:p]); err != nil {
			return p - start, err
		}
	}
	return p - start, nil
}

// expression evaluates the directive starting at cur, which must sit on a
// "{{". On success cur is left just past the directive, except for
// {{endfor}} which rewinds cur to where it started.
func (r *renderer) expression(w io.Writer, src *source, cur *token.Cursor) error {
	open := token.Next(cur)
	if open.Kind != token.ExprStart {
		return newSyntaxError(src, open.Start, open.Kind, token.ExprStart, "")
	}

	tok := token.Next(cur)
	switch tok.Kind {
	case token.Identifier:
		name := cur.Text(tok)
		if err := r.expect(src, cur, token.ExprEnd, "variable reference"); err != nil {
			return err
		}
		value, ok := r.data.Vars.Get(name)
		if !ok {
			if r.dry == 0 {
				r.logger.Warn("Undefined variable", "variable", name, "source", src.name)
			}
			value = r.config.UndefinedPlaceholder
		}
		_, err := io.WriteString(w, value)
		return err
	case token.Include:
		return r.include(w, src, cur)
	case token.For:
		return r.loop(w, src, cur)
	case token.EndFor:
		cur.Seek(open.Start)
		return nil
	default:
		return newSyntaxError(src, tok.Start, tok.Kind, token.Identifier, "expected a variable, include or for")
	}
}

func (r *renderer) expect(src *source, cur *token.Cursor, kind token.Kind, context string) error {
	_, err := r.take(src, cur, kind, context)
	return err
}

func (r *renderer) take(src *source, cur *token.Cursor, kind token.Kind, context string) (token.Token, error) {
	tok := token.Next(cur)
	if tok.Kind != kind {
		return tok, newSyntaxError(src, tok.Start, tok.Kind, kind, context)
	}
	return tok, nil
}

func (r *renderer) include(w io.Writer, src *source, cur *token.Cursor) error {
	pathTok, err := r.take(src, cur, token.Path, "include")
	if err != nil {
		return err
	}
	if err = r.expect(src, cur, token.ExprEnd, "include"); err != nil {
		return err
	}
	path := token.Unescape(cur.Text(pathTok))
	if r.dry > 0 {
		return nil
	}

	if r.depth >= r.config.MaxIncludeDepth {
		return &ResourceError{
			Path: path,
			Err:  fmt.Errorf("include depth exceeds %d, included from %s", r.config.MaxIncludeDepth, src.name),
		}
	}
	if r.load == nil {
		return &ResourceError{Path: path, Err: errors.New("includes are not available")}
	}
	buf, err := r.load(path)
	if err != nil {
		var re *ResourceError
		if errors.As(err, &re) {
			return err
		}
		return &ResourceError{Path: path, Err: err}
	}

	r.depth++
	defer func() { r.depth-- }()
	return r.renderFile(w, &source{name: path, buf: buf})
}

// loop evaluates "for <name> in <collection> [orderby_asc|orderby_desc <field>]"
// followed by its body and the closing {{endfor}}.
func (r *renderer) loop(w io.Writer, src *source, cur *token.Cursor) error {
	nameTok, err := r.take(src, cur, token.Identifier, "loop variable")
	if err != nil {
		return err
	}
	iter := cur.Text(nameTok)
	if err = r.expect(src, cur, token.In, "for"); err != nil {
		return err
	}
	collTok := token.Next(cur)
	if collTok.Kind != token.CollectionPage && collTok.Kind != token.CollectionPost {
		return newSyntaxError(src, collTok.Start, collTok.Kind, token.CollectionPage, "expected all_pages or all_posts")
	}
	if next := token.Peek(cur); next.Kind == token.OrderByAsc || next.Kind == token.OrderByDesc {
		token.Next(cur)
		fieldTok, err := r.take(src, cur, token.Identifier, "orderby field")
		if err != nil {
			return err
		}
		// A dry scan only locates {{endfor}}; it must not reorder anything.
		if r.dry == 0 {
			r.order(collTok.Kind, cur.Text(fieldTok), next.Kind == token.OrderByAsc)
		}
	}
	if err = r.expect(src, cur, token.ExprEnd, "for"); err != nil {
		return err
	}

	bodyStart := cur.Pos()
	scope := r.data.Vars.Scope(iter)
	defer scope.Close()

	var advance int
	count := len(r.data.Pages)
	if collTok.Kind == token.CollectionPost {
		count = len(r.data.Posts)
	}
	if count == 0 {
		// The body still has to be scanned to find the matching {{endfor}}.
		r.setUndefined(scope, collTok.Kind)
		r.dry++
		advance, err = r.process(io.Discard, src, bodyStart, cur.End())
		r.dry--
		if err != nil {
			return err
		}
	}
	for i := range count {
		if collTok.Kind == token.CollectionPost {
			setPost(scope, r.data.Posts[i], i)
		} else {
			setPage(scope, r.data.Pages[i], i)
		}
		if advance, err = r.process(w, src, bodyStart, cur.End()); err != nil {
			return err
		}
	}
	scope.Close()

	cur.Seek(bodyStart + advance)
	if err = r.expect(src, cur, token.ExprStart, "missing {{endfor}}"); err != nil {
		return err
	}
	if err = r.expect(src, cur, token.EndFor, "missing {{endfor}}"); err != nil {
		return err
	}
	return r.expect(src, cur, token.ExprEnd, "endfor")
}

func (r *renderer) order(kind token.Kind, field string, ascending bool) {
	if kind == token.CollectionPost {
		collection.OrderPostsBy(r.logger, r.data.Posts, field, ascending)
		return
	}
	collection.OrderPagesBy(r.logger, r.data.Pages, field, ascending)
}

var (
	pageFields = []string{"title", "url", "number"}
	postFields = []string{"title", "url", "layout", "year", "month", "day", "date", "month_name", "number"}
)

func (r *renderer) setUndefined(scope *Scope, kind token.Kind) {
	fields := pageFields
	if kind == token.CollectionPost {
		fields = postFields
	}
	for _, f := range fields {
		scope.Set(f, r.config.UndefinedPlaceholder)
	}
}

func setPage(scope *Scope, p collection.Page, n int) {
	scope.Set("title", p.Title)
	scope.Set("url", p.RelativeURL)
	scope.Set("number", strconv.Itoa(n))
}

func setPost(scope *Scope, p collection.Post, n int) {
	scope.Set("title", p.Title)
	scope.Set("url", p.RelativeURL)
	scope.Set("layout", p.Layout)
	scope.Set("year", p.Year())
	scope.Set("month", p.Month())
	scope.Set("day", p.Day())
	scope.Set("date", p.Date())
	scope.Set("month_name", p.MonthName)
	scope.Set("number", strconv.Itoa(n))
}
