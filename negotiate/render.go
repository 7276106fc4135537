// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package negotiate

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"
	"path"
	"slices"
	"strings"
)

// ErrTemplateNotFound is returned when rendering an unknown template.
var ErrTemplateNotFound = errors.New("negotiate: template not found")

//go:embed templates
var defaultTemplates embed.FS

// DefaultTemplates returns the built-in templates: a base layout and the
// error pages errors/default, errors/setup, errors/404 and errors/405.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(defaultTemplates, "templates")
	if err != nil {
		panic(err)
	}

	return sub
}

// Renderer renders a named view.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
	Has(name string) bool
}

// TemplateRenderer renders html/template views loaded from file systems.
//
// A template's name is its path without extension ("errors/404.html" is
// "errors/404"). Files under layouts/ and partials/ are shared by every
// page; each page is parsed into its own clone of the shared set so pages
// can override blocks such as "title" and "content" independently.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

var templateExtensions = []string{".html", ".tmpl", ".gohtml"}

// NewTemplateRenderer loads templates from each file system in turn. A
// file in a later file system replaces a file with the same name in an
// earlier one, so user templates layered over [DefaultTemplates] win.
func NewTemplateRenderer(fss ...fs.FS) (*TemplateRenderer, error) {
	sources := make(map[string]string)
	for _, fsys := range fss {
		err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			ext := path.Ext(p)
			if d.IsDir() || !slices.Contains(templateExtensions, ext) {
				return nil
			}
			b, err := fs.ReadFile(fsys, p)
			if err != nil {
				return err
			}
			sources[strings.TrimSuffix(p, ext)] = string(b)

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("negotiate: loading templates: %w", err)
		}
	}

	base := template.New("")
	var pages []string
	for _, name := range slices.Sorted(maps.Keys(sources)) {
		if !isShared(name) {
			pages = append(pages, name)
			continue
		}
		if _, err := base.New(name).Parse(sources[name]); err != nil {
			return nil, fmt.Errorf("negotiate: parsing %s: %w", name, err)
		}
	}

	r := &TemplateRenderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		set, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("negotiate: cloning layouts for %s: %w", name, err)
		}
		page, err := set.New(name).Parse(sources[name])
		if err != nil {
			return nil, fmt.Errorf("negotiate: parsing %s: %w", name, err)
		}
		r.pages[name] = page
	}

	return r, nil
}

func isShared(name string) bool {
	return strings.HasPrefix(name, "layouts/") || strings.HasPrefix(name, "partials/")
}

// Has reports whether a page named name exists.
func (r *TemplateRenderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Names returns the page names, sorted.
func (r *TemplateRenderer) Names() []string {
	return slices.Sorted(maps.Keys(r.pages))
}

// Render executes the page named name.
func (r *TemplateRenderer) Render(w io.Writer, name string, data any) error {
	page, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	return page.ExecuteTemplate(w, name, data)
}
