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

package app

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"

	"rivaas.dev/dispatch/route"
)

// colorWriter downsamples colors to what w supports. Production output
// never carries ANSI sequences.
func (a *App) colorWriter(w io.Writer) *colorprofile.Writer {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if a.settings.Environment == EnvironmentProduction {
		cpw.Profile = colorprofile.NoTTY
	}

	return cpw
}

func (a *App) printBanner(addr string) {
	w := a.colorWriter(a.opts.output)

	gradient := []string{"10", "11"}
	if a.settings.Development() {
		gradient = []string{"12", "14", "10", "11"}
	}

	var art strings.Builder
	for _, line := range figure.NewFigure(a.settings.Name, "", false).Slicify() {
		if strings.TrimSpace(line) != "" {
			for i, char := range line {
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
				art.WriteString(style.Render(string(char)))
			}
		}
		art.WriteString("\n")
	}

	category := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	disabled := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	if strings.HasPrefix(addr, ":") || strings.HasPrefix(addr, "[::]") {
		addr = "0.0.0.0" + addr[strings.LastIndex(addr, ":"):]
	}
	addr = "http://" + addr

	row := func(b *strings.Builder, name, v string, color string) {
		fmt.Fprintf(b, "%s  %s\n", label.Render(name+":"), value.Foreground(lipgloss.Color(color)).Render(v))
	}

	var out strings.Builder
	out.WriteString(category.Render("Service") + "\n")
	row(&out, "Version", a.settings.Version, "14")
	row(&out, "Environment", a.settings.Environment, "11")
	row(&out, "Address", addr, "10")

	out.WriteString("\n" + category.Render("Dispatch") + "\n")
	row(&out, "Router", a.settings.Router.Strategy, "12")
	row(&out, "Output", strings.Join(a.formats(), ", "), "12")
	if d := a.dispatcher; d != nil && len(d.Conditional()) > 0 {
		row(&out, "Middleware", strings.Join(d.Conditional(), ", "), "13")
	}
	if a.metrics != nil {
		row(&out, "Metrics", addr+a.settings.Middleware.Metrics.Path, "13")
	} else {
		fmt.Fprintf(&out, "%s  %s\n", label.Render("Metrics:"), disabled.Render("Disabled"))
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, art.String())
	fmt.Fprintln(w)
	fmt.Fprint(w, out.String())

	if a.settings.Development() && a.table.Len() > 0 {
		fmt.Fprintln(w)
		a.renderRoutes(w, 80)
	}
	fmt.Fprintln(w)
}

func (a *App) formats() []string {
	var formats []string
	if a.settings.Output.JSON {
		formats = append(formats, "json")
	}
	if a.settings.Output.HTML {
		formats = append(formats, "html")
	}

	return formats
}

var methodColors = map[string]string{
	http.MethodGet:     "10",
	http.MethodPost:    "12",
	http.MethodPut:     "11",
	http.MethodDelete:  "9",
	http.MethodPatch:   "13",
	http.MethodHead:    "14",
	http.MethodOptions: "7",
}

// PrintRoutes writes the route table to w.
//
//	╭────────┬──────────────────┬───────────────┬────────────────────╮
//	│ Method │ Path             │ Name          │ Middleware         │
//	├────────┼──────────────────┼───────────────┼────────────────────┤
//	│ GET    │ /widgets/{id}    │ widgets.show  │ rate-limit(5, 10)  │
//	╰────────┴──────────────────┴───────────────┴────────────────────╯
func (a *App) PrintRoutes(w io.Writer) {
	if a.table.Len() == 0 {
		fmt.Fprintln(w, "No routes registered")
		return
	}
	a.renderRoutes(a.colorWriter(w), 120)
}

func (a *App) renderRoutes(w io.Writer, width int) {
	colors := a.settings.Development()
	defs := a.table.All()

	rows := make([][]string, 0, len(defs))
	minWidth := 2 + 3 + 8
	widths := []int{len("Method"), len("Path"), len("Name"), len("Middleware")}
	for _, def := range defs {
		method := def.Method
		if c, ok := methodColors[method]; ok && colors {
			method = lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Bold(true).Render(method)
		}
		name := def.Name
		if name == "" {
			name = "-"
		}
		refs := joinRefs(def.Middlewares)

		cells := []string{def.Method, def.Path, name, refs}
		for i, cell := range cells {
			widths[i] = max(widths[i], len(cell))
		}
		rows = append(rows, []string{method, def.Path, name, refs})
	}
	for _, n := range widths {
		minWidth += n
	}

	limit := width
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			limit = tw
		}
	}
	tableWidth := max(60, min(max(minWidth, width), limit))

	border := lipgloss.NewStyle()
	if colors {
		border = border.Foreground(lipgloss.Color("240"))
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow && colors {
				style = style.Bold(true).Foreground(lipgloss.Color("230"))
			}
			return style
		}).
		Headers("Method", "Path", "Name", "Middleware").
		Rows(rows...).
		Width(tableWidth)

	fmt.Fprintln(w, t.Render())
}

func joinRefs(refs []route.Ref) string {
	if len(refs) == 0 {
		return "-"
	}
	parts := make([]string, len(refs))
	for i, ref := range refs {
		parts[i] = ref.String()
	}

	return strings.Join(parts, ", ")
}
