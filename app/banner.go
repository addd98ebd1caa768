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

	"rivaas.dev/apiversion/registry"
)

var methodStyles = map[string]lipgloss.Style{
	http.MethodGet:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	http.MethodPost:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	http.MethodPut:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	http.MethodDelete:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	http.MethodPatch:   lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
	http.MethodHead:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
	http.MethodOptions: lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Bold(true),
}

// NewColorWriter wraps w so ANSI styling is downsampled to what the
// terminal supports, and stripped when w is not a terminal.
func NewColorWriter(w io.Writer) *colorprofile.Writer {
	return colorprofile.NewWriter(w, os.Environ())
}

// printStartupBanner prints the service name as ASCII art followed by
// the listener, observability and route summary.
func (a *App) printStartupBanner(addr string) {
	if a.bannerOut == nil {
		return
	}
	w := NewColorWriter(a.bannerOut)

	gradient := []string{"12", "14", "10", "11"}
	var art strings.Builder
	for _, line := range figure.NewFigure(a.serviceName, "", false).Slicify() {
		if strings.TrimSpace(line) == "" {
			art.WriteString("\n")
			continue
		}
		for i, ch := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
			art.WriteString(style.Render(string(ch)))
		}
		art.WriteString("\n")
	}

	category := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	if strings.HasPrefix(addr, ":") || strings.HasPrefix(addr, "[::]:") {
		addr = "0.0.0.0:" + addr[strings.LastIndexByte(addr, ':')+1:]
	}

	var out strings.Builder
	line := func(l, v string) { out.WriteString(label.Render(l) + "  " + v + "\n") }

	out.WriteString(category.Render("Service") + "\n")
	line("Version:", value.Foreground(lipgloss.Color("14")).Render(a.serviceVersion))
	line("Address:", value.Foreground(lipgloss.Color("10")).Render("http://"+addr))

	out.WriteString("\n" + category.Render("Observability") + "\n")
	if a.metrics != nil {
		target := string(a.metrics.Provider())
		if a.metrics.ServerAddress() != "" {
			target = a.metrics.ServerAddress() + a.metrics.Path()
		}
		line("Metrics:", value.Foreground(lipgloss.Color("13")).Render(target)+"  "+dim.Render("["+string(a.metrics.Provider())+"]"))
	} else {
		line("Metrics:", dim.Render("Disabled"))
	}
	line("Tracing:", value.Foreground(lipgloss.Color("12")).Render(string(a.tracer.Provider())))

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, art.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, out.String())

	if routes := a.Registry().Routes(); len(routes) > 0 {
		_, _ = fmt.Fprintln(w)
		RenderRoutes(w, routes, 80)
	}
	_, _ = fmt.Fprintln(w)
}

// RenderRoutes writes a table of routes with their versions. width is the
// preferred table width; it shrinks to the terminal when w is one.
func RenderRoutes(w io.Writer, routes []registry.RouteInfo, width int) {
	if len(routes) == 0 {
		return
	}

	versionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	deprecatedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	headers := []string{"Method", "Pattern", "Versions", "Deprecated", "Default"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}

	rows := make([][]string, 0, len(routes))
	for _, r := range routes {
		plain := []string{r.Method, r.Pattern, r.Versions.String(), orDash(r.Deprecated.String()), orDash(r.Default.String())}
		for i, cell := range plain {
			widths[i] = max(widths[i], len(cell))
		}

		styled := append([]string(nil), plain...)
		if s, ok := methodStyles[r.Method]; ok {
			styled[0] = s.Render(r.Method)
		}
		styled[2] = versionStyle.Render(plain[2])
		if r.Deprecated.Len() > 0 {
			styled[3] = deprecatedStyle.Render(plain[3])
		}
		rows = append(rows, styled)
	}

	// Borders, separators and one cell of padding each side.
	minWidth := 2 + len(headers) - 1 + 2*len(headers)
	for _, n := range widths {
		minWidth += n
	}

	tableWidth := max(minWidth, width)
	target := w
	if cw, ok := w.(*colorprofile.Writer); ok {
		target = cw.Forward
	}
	if f, ok := target.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			tableWidth = min(tableWidth, tw)
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				s = s.Bold(true).Foreground(lipgloss.Color("230"))
			}
			return s
		}).
		Headers(headers...).
		Rows(rows...).
		Width(max(60, tableWidth))

	_, _ = fmt.Fprintln(w, t.Render())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
