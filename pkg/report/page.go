package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
)

const styleTagLen = len("</style>")

// Renderable is anything that writes itself as HTML, such as a go-echarts chart.
type Renderable interface {
	Render(w io.Writer) error
}

// Section is one titled chart on a page.
type Section struct {
	Title    string
	Subtitle string
	Notes    []string
	Chart    Renderable
}

// Page is a standalone HTML report.
type Page struct {
	Title       string
	Description string
	Theme       Theme
	Sections    []Section
}

// NewPage creates an empty page using DarkTheme.
func NewPage(title, description string) *Page {
	return &Page{Title: title, Description: description, Theme: DarkTheme}
}

// Add appends sections to the page.
func (p *Page) Add(sections ...Section) {
	p.Sections = append(p.Sections, sections...)
}

type sectionData struct {
	Title    string
	Subtitle string
	Notes    []string
	Chart    template.HTML
}

type pageData struct {
	Title       string
	Description string
	Theme       Theme
	Sections    []sectionData
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"></script>
<style>
body { background: {{.Theme.Background}}; color: {{.Theme.TextPrimary}}; font-family: system-ui, sans-serif; margin: 0; padding: 24px; }
header h1 { margin: 0 0 4px; color: {{.Theme.Accent}}; }
header p, .subtitle, .notes { color: {{.Theme.TextMuted}}; }
section { background: {{.Theme.Surface}}; border: 1px solid {{.Theme.Border}}; border-radius: 8px; margin: 24px 0; padding: 16px; }
section h2 { margin: 0 0 4px; }
.echart-box { width: 100%; }
</style>
</head>
<body>
<header><h1>{{.Title}}</h1>{{if .Description}}<p>{{.Description}}</p>{{end}}</header>
{{range .Sections}}<section>
<h2>{{.Title}}</h2>{{if .Subtitle}}<p class="subtitle">{{.Subtitle}}</p>{{end}}
{{.Chart}}
{{if .Notes}}<ul class="notes">{{range .Notes}}<li>{{.}}</li>{{end}}</ul>{{end}}
</section>
{{end}}</body>
</html>
`))

// Render writes the page as HTML.
func (p *Page) Render(w io.Writer) error {
	data := pageData{
		Title:       p.Title,
		Description: p.Description,
		Theme:       p.Theme,
		Sections:    make([]sectionData, 0, len(p.Sections)),
	}

	for _, s := range p.Sections {
		chart, err := renderChart(s.Chart)
		if err != nil {
			return fmt.Errorf("render section %q: %w", s.Title, err)
		}

		data.Sections = append(data.Sections, sectionData{
			Title:    s.Title,
			Subtitle: s.Subtitle,
			Notes:    s.Notes,
			//nolint:gosec // chart markup is produced by go-echarts, not user input.
			Chart: template.HTML(chart),
		})
	}

	err := pageTemplate.Execute(w, data)
	if err != nil {
		return fmt.Errorf("render page: %w", err)
	}

	return nil
}

func renderChart(chart Renderable) (string, error) {
	if chart == nil {
		return "", nil
	}

	var buf bytes.Buffer

	err := chart.Render(&buf)
	if err != nil {
		return "", fmt.Errorf("rendering chart: %w", err)
	}

	return extractChartContent(buf.String()), nil
}

// extractChartContent keeps the chart container and its init script from a
// full go-echarts page. Fragments pass through unchanged.
func extractChartContent(html string) string {
	trimmed := strings.TrimSpace(html)
	if !strings.HasPrefix(trimmed, "<!DOCTYPE") && !strings.HasPrefix(trimmed, "<html") {
		return html
	}

	start := strings.Index(html, `<div class="container">`)
	end := strings.Index(html, `</body>`)

	if start == -1 || end == -1 || end < start {
		return html
	}

	content := html[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)

	return removeStyleTags(content)
}

func removeStyleTags(content string) string {
	for {
		i := strings.Index(content, `<style>`)
		if i == -1 {
			return content
		}

		j := strings.Index(content[i:], `</style>`)
		if j == -1 {
			return content
		}

		content = content[:i] + content[i+j+styleTagLen:]
	}
}
