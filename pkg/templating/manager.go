package templating

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// TemplateManager owns the template directory of a site. It caches the
// template files, resolves includes against the directory, and renders
// pages and layouts. All methods are concurrent-safe; each render gets its
// own evaluator, but the Data passed to it must not be shared by two
// concurrent renders.
type TemplateManager struct {
	logger      *slog.Logger
	config      *TemplateConfig
	templateDir string
	files       map[string][]byte
	mu          sync.RWMutex
}

// NewTemplateManager creates a TemplateManager rooted at templateDir and
// performs an initial Refresh. A nil config uses DefaultConfig.
func NewTemplateManager(logger *slog.Logger, config *TemplateConfig, templateDir string) (*TemplateManager, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if config == nil {
		config = DefaultConfig()
	}
	tm := &TemplateManager{
		logger:      logger,
		config:      config,
		templateDir: templateDir,
		files:       map[string][]byte{},
	}
	if err := tm.Refresh(); err != nil {
		return nil, err
	}
	logger.Debug("Template manager initialized", "dir", templateDir)
	return tm, nil
}

// SetConfig applies a new configuration. Renders already running keep the
// configuration they started with.
func (tm *TemplateManager) SetConfig(config *TemplateConfig) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.config = config
}

// Refresh reloads every *.html file below the template directory. Files
// with other extensions are still reachable through include, but are read
// from disk on each use.
func (tm *TemplateManager) Refresh() error {
	files := map[string][]byte{}
	err := filepath.WalkDir(tm.templateDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".html") {
			return nil
		}
		rel, err := filepath.Rel(tm.templateDir, path)
		if err != nil {
			return err
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			return &ResourceError{Path: rel, Err: err}
		}
		files[filepath.ToSlash(rel)] = buf
		return nil
	})
	if err != nil {
		tm.logger.Error("Failed to load template files", "dir", tm.templateDir, "error", err)
		return err
	}

	tm.mu.Lock()
	tm.files = files
	tm.mu.Unlock()
	tm.logger.Debug("Loaded template files", "count", len(files))
	return nil
}

// Execute renders the template at name, a slash-separated path relative to
// the template directory, writing the output to w.
func (tm *TemplateManager) Execute(w io.Writer, name string, data *Data) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	buf, err := tm.loadLocked(name)
	if err != nil {
		return err
	}
	return tm.run(w, &source{name: name, buf: buf}, data)
}

// ExecuteTemplateString renders content as if it were a template file named
// name. Includes inside it resolve against the template directory.
func (tm *TemplateManager) ExecuteTemplateString(w io.Writer, name, content string, data *Data) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.run(w, &source{name: name, buf: []byte(content)}, data)
}

// run renders src into a scratch buffer and only copies it to w when the
// whole render succeeded, so a failed page never produces partial output.
func (tm *TemplateManager) run(w io.Writer, src *source, data *Data) error {
	r := newRenderer(tm.logger, *tm.config, data, tm.loadLocked)
	var out bytes.Buffer
	if err := r.renderFile(&out, src); err != nil {
		var se *SyntaxError
		var re *ResourceError
		switch {
		case errors.As(err, &se):
			tm.logger.Error("Template syntax error", "source", se.Source, "line", se.Line, "column", se.Column,
				"found", se.Found.String(), "expected", se.Expected.String())
		case errors.As(err, &re):
			tm.logger.Error("Template resource error", "source", src.name, "path", re.Path, "error", re.Err)
		}
		return fmt.Errorf("render %s: %w", src.name, err)
	}
	_, err := out.WriteTo(w)
	return err
}

// loadLocked returns the contents of a template path. The caller must hold
// at least a read lock.
func (tm *TemplateManager) loadLocked(name string) ([]byte, error) {
	clean := filepath.ToSlash(filepath.Clean(filepath.FromSlash(name)))
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return nil, &ResourceError{Path: name, Err: errors.New("path escapes the template directory")}
	}
	if buf, ok := tm.files[clean]; ok {
		return buf, nil
	}
	buf, err := os.ReadFile(filepath.Join(tm.templateDir, filepath.FromSlash(clean)))
	if err != nil {
		return nil, &ResourceError{Path: name, Err: err}
	}
	return buf, nil
}

// GetConfig returns a copy of the current configuration.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config
}

// GetTemplateNames returns the cached template paths in sorted order.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return slices.Sorted(maps.Keys(tm.files))
}

// GetTemplateDir returns the template directory that the TemplateManager uses.
func (tm *TemplateManager) GetTemplateDir() string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.templateDir
}
