// Package view renders read-only text views of drafts and customers with
// pongo2 templates. The templates ship embedded; a base directory can
// override them by name.
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formdraft/internal/model"
)

//go:embed templates/*.tpl
var embedded embed.FS

const templateExt = ".tpl"

// Option configures an Engine.
type Option func(*config)

type config struct {
	baseDir string
	files   fs.FS
	globals pongo2.Context
}

// WithBaseDir loads templates from dir before the embedded set.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS replaces the embedded templates.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.files = files
		}
	}
}

// WithGlobals seeds values visible to every template.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		for key, value := range data {
			if key = strings.TrimSpace(key); key != "" {
				cfg.globals[key] = value
			}
		}
	}
}

// Engine renders named templates.
type Engine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

var registerFilters sync.Once

// NewEngine builds an engine over the embedded templates.
func NewEngine(opts ...Option) (*Engine, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("view: embedded templates: %w", err)
	}
	cfg := &config{files: sub, globals: pongo2.Context{}}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("view: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	loaders = append(loaders, pongo2.NewFSLoader(cfg.files))

	set := pongo2.NewSet("formdraft", loaders...)
	set.Options.TrimBlocks = true
	set.Options.LStripBlocks = true
	if set.Globals == nil {
		set.Globals = make(pongo2.Context)
	}
	set.Globals.Update(cfg.globals)

	registerFilters.Do(func() {
		if !pongo2.FilterExists("pathlabel") {
			_ = pongo2.RegisterFilter("pathlabel", pathLabelFilter)
		}
	})

	return &Engine{set: set, templates: make(map[string]*pongo2.Template)}, nil
}

func pathLabelFilter(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(model.PathLabel(in.String())), nil
}

// Render executes template name with data and writes the result to every
// writer in out.
func (e *Engine) Render(name string, data map[string]any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("view: engine is nil")
	}
	if !strings.HasSuffix(name, templateExt) {
		name += templateExt
	}
	tmpl, err := e.template(name)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteWriter(pongo2.Context(data), &buf); err != nil {
		return "", fmt.Errorf("view: execute %q: %w", name, err)
	}
	rendered := buf.String()
	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (e *Engine) template(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("view: load template %q: %w", name, err)
	}
	e.templates[name] = tmpl
	return tmpl, nil
}
