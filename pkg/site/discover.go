package site

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/CTAG07/Sundew/pkg/collection"
	"github.com/CTAG07/Sundew/pkg/templating"
)

// LayoutDir is the template subdirectory holding post layouts.
const LayoutDir = "layout"

// Site is a loaded site: its resolved directories, the environment built
// from its configuration and the pages and posts found on disk.
type Site struct {
	Dir         string
	OutputDir   string
	TemplateDir string
	PostsDir    string
	Vars        *templating.Variables
	Pages       []collection.Page
	Posts       []collection.Post
	// Skipped lists the post files that were ignored, with the reason.
	Skipped []SkippedPost
}

// SkippedPost names a post file that discovery ignored.
type SkippedPost struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// Load reads the configuration of the site in dir and discovers its pages
// and posts. Output paths are placed in outputDir.
func Load(logger *slog.Logger, dir, outputDir string) (*Site, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	vars, err := LoadConfig(dir)
	if err != nil {
		return nil, err
	}
	s := &Site{Dir: dir, OutputDir: outputDir, Vars: vars}
	s.TemplateDir, _ = vars.Get(KeyTemplateDir)
	s.PostsDir, _ = vars.Get(KeyPostsDir)

	if s.Pages, err = discoverPages(s.TemplateDir, outputDir); err != nil {
		return nil, err
	}
	if err = s.discoverPosts(logger); err != nil {
		return nil, err
	}

	vars.Set(KeyNumPages, strconv.Itoa(len(s.Pages)))
	vars.Set(KeyNumPosts, strconv.Itoa(len(s.Posts)))
	logger.Debug("Site discovered", "pages", len(s.Pages), "posts", len(s.Posts), "skipped", len(s.Skipped))
	return s, nil
}

// listFiles returns the names of regular files in dir with extension ext,
// sorted. A missing directory yields no files.
func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ext) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// discoverPages lists the .html files directly inside the template directory.
// A page's title is its file name up to the first dot.
func discoverPages(templateDir, outputDir string) ([]collection.Page, error) {
	names, err := listFiles(templateDir, ".html")
	if err != nil {
		return nil, fmt.Errorf("scan template dir: %w", err)
	}
	pages := make([]collection.Page, 0, len(names))
	for _, name := range names {
		title, _, _ := strings.Cut(name, ".")
		url := strings.ToLower(name)
		pages = append(pages, collection.Page{
			Title:       title,
			RelativeURL: url,
			SourceFile:  filepath.Join(templateDir, name),
			OutputFile:  filepath.Join(outputDir, url),
		})
	}
	return pages, nil
}

// postName holds the parts of a post file name: <layout>-<YYYYMMDD>-<title>.txt
type postName struct {
	layout, year, month, day, title string
}

func parsePostName(name string) (postName, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	layout, rest, ok := strings.Cut(base, "-")
	if !ok || layout == "" || len(rest) < 10 || rest[8] != '-' {
		return postName{}, false
	}
	stamp := rest[:8]
	for i := range len(stamp) {
		if stamp[i] < '0' || stamp[i] > '9' {
			return postName{}, false
		}
	}
	return postName{
		layout: layout,
		year:   stamp[0:4],
		month:  stamp[4:6],
		day:    stamp[6:8],
		title:  rest[9:],
	}, true
}

// discoverPosts lists the .txt files of the posts directory, newest first.
// Files with a malformed name, an invalid date or a missing layout are
// skipped with a warning.
func (s *Site) discoverPosts(logger *slog.Logger) error {
	names, err := listFiles(s.PostsDir, ".txt")
	if err != nil {
		return fmt.Errorf("scan posts dir: %w", err)
	}
	slices.Reverse(names)

	configFile := filepath.Join(s.Dir, ConfigFileName)
	for _, name := range names {
		source := filepath.Join(s.PostsDir, name)
		if sameFile(source, configFile) {
			continue
		}
		skip := func(reason string) {
			logger.Warn("Skipping post", "file", name, "reason", reason)
			s.Skipped = append(s.Skipped, SkippedPost{File: name, Reason: reason})
		}

		pn, ok := parsePostName(name)
		if !ok {
			skip("file name is not <layout>-<YYYYMMDD>-<title>.txt")
			continue
		}
		url := strings.ToLower(pn.year + pn.month + pn.day + "_" + pn.title + ".html")
		monthName, _ := s.Vars.Get("month_" + pn.month)
		post := collection.NewPost(collection.Page{
			Title:       pn.title,
			RelativeURL: url,
			SourceFile:  source,
			OutputFile:  filepath.Join(s.OutputDir, url),
		}, pn.layout, pn.year, pn.month, pn.day, monthName)

		if !post.ValidDate() {
			skip("invalid date " + post.Date())
			continue
		}
		if _, err := os.Stat(s.LayoutFile(pn.layout)); err != nil {
			skip("layout " + pn.layout + " not found")
			continue
		}
		s.Posts = append(s.Posts, post)
	}
	return nil
}

// LayoutFile returns the path of the layout template named layout.
func (s *Site) LayoutFile(layout string) string {
	return filepath.Join(s.TemplateDir, LayoutDir, layout+".html")
}

// LayoutTemplate returns the template name of layout, relative to the
// template directory.
func LayoutTemplate(layout string) string {
	return LayoutDir + "/" + layout + ".html"
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
