package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/CTAG07/Sundew/pkg/collection"
	"github.com/CTAG07/Sundew/pkg/manifest"
	"github.com/CTAG07/Sundew/pkg/markdown"
	"github.com/CTAG07/Sundew/pkg/templating"
	"github.com/natefinch/atomic"
)

// AssetsDir is the template subdirectory copied verbatim to the output.
const AssetsDir = "assets"

// ErrNotBuilt is returned by preview methods before the first build.
var ErrNotBuilt = errors.New("site has not been built yet")

// Options configure a Builder.
type Options struct {
	SiteDir   string
	OutputDir string
	// Converter renders post sources. Nil selects the classic converter.
	Converter markdown.Converter
	// Templates configures the template engine. Nil uses the defaults.
	Templates *templating.TemplateConfig
	// Manifest records builds and outputs when set.
	Manifest      *manifest.Store
	CopyAssets    bool
	SkipUnchanged bool
}

// Report summarizes one build.
type Report struct {
	BuildID   int64         `json:"build_id,omitempty"`
	Pages     int           `json:"pages"`
	Posts     int           `json:"posts"`
	Assets    int           `json:"assets"`
	Written   int           `json:"written"`
	Unchanged int           `json:"unchanged"`
	Skipped   int           `json:"skipped"`
	Warnings  int           `json:"warnings"`
	Failed    int           `json:"failed"`
	Pruned    int           `json:"pruned"`
	Duration  time.Duration `json:"duration"`
}

// Builder renders a site directory into an output directory. Builds are
// serialized; a Builder may be shared between goroutines.
type Builder struct {
	logger *slog.Logger
	opts   Options
	tm     *templating.TemplateManager
	last   *Site
	mu     sync.Mutex
}

// NewBuilder returns a Builder for opts.
func NewBuilder(logger *slog.Logger, opts Options) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Converter == nil {
		opts.Converter = markdown.Classic{}
	}
	if opts.Templates == nil {
		opts.Templates = templating.DefaultConfig()
	}
	return &Builder{logger: logger, opts: opts}
}

// build holds the state of one Build call.
type build struct {
	*Builder
	ctx    context.Context
	site   *Site
	report *Report
	errs   []error
}

// Build renders every page and post once. Per-page failures do not stop the
// build; they are counted in the report and returned joined together. The
// context is checked between pages.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	s, err := Load(b.logger, b.opts.SiteDir, b.opts.OutputDir)
	if err != nil {
		b.logger.Error("Failed to load site", "dir", b.opts.SiteDir, "error", err)
		return nil, err
	}
	if err = os.MkdirAll(b.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err = b.templates(s.TemplateDir); err != nil {
		return nil, err
	}

	st := &build{
		Builder: b,
		ctx:     ctx,
		site:    s,
		report:  &Report{Skipped: len(s.Skipped), Warnings: len(s.Skipped)},
	}
	if b.opts.Manifest != nil {
		if st.report.BuildID, err = b.opts.Manifest.BeginBuild(ctx, start); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
	}

	err = st.run()

	st.report.Duration = time.Since(start)
	if b.opts.Manifest != nil {
		st.finishManifest(start)
	}
	b.last = s
	b.logger.Info("Build finished",
		"pages", st.report.Pages, "posts", st.report.Posts, "written", st.report.Written,
		"unchanged", st.report.Unchanged, "skipped", st.report.Skipped, "failed", st.report.Failed,
		"duration", st.report.Duration)

	if err != nil {
		st.errs = append(st.errs, err)
	}
	return st.report, errors.Join(st.errs...)
}

// templates creates the template manager, or refreshes it when the template
// directory is unchanged since the previous build.
func (b *Builder) templates(dir string) error {
	if b.tm != nil && b.tm.GetTemplateDir() == dir {
		b.tm.SetConfig(b.opts.Templates)
		return b.tm.Refresh()
	}
	tm, err := templating.NewTemplateManager(b.logger, b.opts.Templates, dir)
	if err != nil {
		return err
	}
	b.tm = tm
	return nil
}

// run converts the posts, then renders pages, posts and assets in that
// order. Only cancellation aborts it.
func (st *build) run() error {
	docs := st.convertPosts()
	data := &templating.Data{Vars: st.site.Vars, Pages: st.site.Pages, Posts: st.site.Posts}

	for _, page := range slices.Clone(st.site.Pages) {
		if err := st.ctx.Err(); err != nil {
			return err
		}
		st.renderPage(page, data)
	}
	for _, post := range slices.Clone(st.site.Posts) {
		if err := st.ctx.Err(); err != nil {
			return err
		}
		st.renderPost(post, docs[post.SourceFile], data)
	}
	if st.opts.CopyAssets {
		st.copyAssets()
	}
	return nil
}

func (st *build) fail(err error) {
	st.report.Failed++
	st.errs = append(st.errs, err)
}

// convertPosts converts every post source up front so title overrides are
// visible to loops on every page. Posts that cannot be converted are
// dropped from the collection.
func (st *build) convertPosts() map[string]markdown.Document {
	docs := make(map[string]markdown.Document, len(st.site.Posts))
	kept := st.site.Posts[:0]
	for _, post := range st.site.Posts {
		src, err := os.ReadFile(post.SourceFile)
		if err != nil {
			st.logger.Error("Failed to read post", "file", post.SourceFile, "error", err)
			st.fail(fmt.Errorf("post %s: %w", post.SourceFile, &templating.ResourceError{Path: post.SourceFile, Err: err}))
			continue
		}
		doc, err := st.opts.Converter.Convert(src)
		if err != nil {
			st.logger.Error("Failed to convert post", "file", post.SourceFile, "engine", st.opts.Converter.Name(), "error", err)
			st.fail(fmt.Errorf("post %s: %w", post.SourceFile, err))
			continue
		}
		if doc.HasTitle {
			post.Title = doc.Title
		}
		docs[post.SourceFile] = doc
		kept = append(kept, post)
	}
	st.site.Posts = kept
	st.site.Vars.Set(KeyNumPosts, fmt.Sprint(len(kept)))
	return docs
}

func (st *build) renderPage(page collection.Page, data *templating.Data) {
	vars := st.site.Vars
	vars.Set("page.title", page.Title)
	vars.Set("page.url", page.RelativeURL)

	name := filepath.Base(page.SourceFile)
	st.logger.Debug("Processing page", "file", page.SourceFile)
	var out bytes.Buffer
	if err := st.tm.Execute(&out, name, data); err != nil {
		st.fail(fmt.Errorf("page %s: %w", page.SourceFile, err))
		return
	}
	if st.writeOutput(page.OutputFile, page.SourceFile, manifest.KindPage, out.Bytes()) {
		st.report.Pages++
	}
}

func (st *build) renderPost(post collection.Post, doc markdown.Document, data *templating.Data) {
	vars := st.site.Vars
	vars.Set("post.title", post.Title)
	vars.Set("post.layout", post.Layout)
	vars.Set("post.url", post.RelativeURL)
	vars.Set("post.body", doc.HTML)
	vars.Set("post.year", post.Year())
	vars.Set("post.month", post.Month())
	vars.Set("post.day", post.Day())
	vars.Set("post.date", post.Date())
	vars.Set("post.month_name", post.MonthName)
	vars.Set("page.title", post.Title)
	vars.Set("page.url", post.RelativeURL)

	st.logger.Debug("Processing post", "file", post.SourceFile, "layout", post.Layout)
	var out bytes.Buffer
	if err := st.tm.Execute(&out, LayoutTemplate(post.Layout), data); err != nil {
		st.fail(fmt.Errorf("post %s: %w", post.SourceFile, err))
		return
	}
	if st.writeOutput(post.OutputFile, post.SourceFile, manifest.KindPost, out.Bytes()) {
		st.report.Posts++
	}
}

// writeOutput writes content to path atomically unless skip-unchanged is on
// and the file already holds the same content. It reports success.
func (st *build) writeOutput(path, source, kind string, content []byte) bool {
	hash := manifest.HashContent(content)

	if st.opts.SkipUnchanged && st.unchanged(path, hash) {
		st.report.Unchanged++
		st.record(path, source, kind, hash, len(content))
		return true
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		st.fail(fmt.Errorf("create dir for %s: %w", path, err))
		return false
	}
	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		st.logger.Error("Failed to write output", "file", path, "error", err)
		st.fail(fmt.Errorf("write %s: %w", path, err))
		return false
	}
	st.report.Written++
	st.record(path, source, kind, hash, len(content))
	return true
}

// unchanged reports whether path already holds content with hash. The
// manifest is consulted first; without one the file itself is hashed.
func (st *build) unchanged(path, hash string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if st.opts.Manifest != nil {
		o, ok, err := st.opts.Manifest.Lookup(st.ctx, path)
		if err != nil {
			st.logger.Warn("Manifest lookup failed", "file", path, "error", err)
			return false
		}
		return ok && o.ContentHash == hash
	}
	existing, err := os.ReadFile(path)
	return err == nil && manifest.HashContent(existing) == hash
}

func (st *build) record(path, source, kind, hash string, size int) {
	if st.opts.Manifest == nil {
		return
	}
	err := st.opts.Manifest.RecordOutput(st.ctx, manifest.Output{
		OutputPath:  path,
		SourcePath:  source,
		Kind:        kind,
		ContentHash: hash,
		Size:        int64(size),
		BuildID:     st.report.BuildID,
		RenderedAt:  time.Now(),
	})
	if err != nil {
		st.logger.Warn("Failed to record output", "file", path, "error", err)
		st.report.Warnings++
	}
}

// copyAssets mirrors <template dir>/assets into <output>/assets.
func (st *build) copyAssets() {
	src := filepath.Join(st.site.TemplateDir, AssetsDir)
	dst := filepath.Join(st.opts.OutputDir, AssetsDir)
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return
	}
	st.logger.Debug("Copying assets", "from", src, "to", dst)
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if st.writeOutput(filepath.Join(dst, rel), path, manifest.KindAsset, content) {
			st.report.Assets++
		}
		return nil
	})
	if err != nil {
		st.logger.Error("Failed to copy assets", "dir", src, "error", err)
		st.fail(fmt.Errorf("copy assets: %w", err))
	}
}

// finishManifest stores the build counters and, for a clean build, drops
// the records of outputs this build did not produce.
func (st *build) finishManifest(start time.Time) {
	m := st.opts.Manifest
	if st.report.Failed == 0 && st.ctx.Err() == nil {
		stale, err := m.PruneStale(st.ctx, st.report.BuildID)
		if err != nil {
			st.logger.Warn("Failed to prune manifest", "error", err)
		}
		st.report.Pruned = len(stale)
	}
	err := m.FinishBuild(context.WithoutCancel(st.ctx), manifest.Build{
		ID:         st.report.BuildID,
		StartedAt:  start,
		FinishedAt: start.Add(st.report.Duration),
		Pages:      st.report.Pages,
		Posts:      st.report.Posts,
		Written:    st.report.Written,
		Unchanged:  st.report.Unchanged,
		Failed:     st.report.Failed,
	})
	if err != nil {
		st.logger.Warn("Failed to finish manifest build", "build_id", st.report.BuildID, "error", err)
	}
}

// Preview renders content as a template against the variables and
// collections of the last build. The build state itself is not modified.
func (b *Builder) Preview(w io.Writer, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil || b.tm == nil {
		return ErrNotBuilt
	}
	data := &templating.Data{
		Vars:  b.last.Vars.Clone(),
		Pages: slices.Clone(b.last.Pages),
		Posts: slices.Clone(b.last.Posts),
	}
	return b.tm.ExecuteTemplateString(w, "preview.html", content, data)
}

// TemplateNames returns the templates loaded by the last build.
func (b *Builder) TemplateNames() ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tm == nil {
		return nil, ErrNotBuilt
	}
	return b.tm.GetTemplateNames(), nil
}

// OutputDir returns the directory builds write to.
func (b *Builder) OutputDir() string {
	return b.opts.OutputDir
}

// SiteDir returns the site directory builds read from.
func (b *Builder) SiteDir() string {
	return b.opts.SiteDir
}
