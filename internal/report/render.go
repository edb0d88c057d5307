package report

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"regexp"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var templatesFS embed.FS

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"#", `\#`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
)

var orderedPrefix = regexp.MustCompile(`^(\d+)\. `)

// escapeMarkdown neutralises markdown syntax in user supplied text. A
// leading "1. " is escaped so numbered lines do not become nested lists.
func escapeMarkdown(s string) string {
	return orderedPrefix.ReplaceAllString(markdownEscaper.Replace(s), `$1\. `)
}

var reportTemplate = template.Must(
	template.New("report.md").
		Funcs(template.FuncMap{"esc": escapeMarkdown}).
		ParseFS(templatesFS, "templates/report.md"),
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Markdown renders the report as a markdown document.
func Markdown(r Report) (string, error) {
	var b bytes.Buffer
	if err := reportTemplate.Execute(&b, r); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return b.String(), nil
}

// HTML renders the report as a standalone HTML page.
func HTML(r Report) (string, error) {
	src, err := Markdown(r)
	if err != nil {
		return "", err
	}
	var body bytes.Buffer
	if err := md.Convert([]byte(src), &body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(r.Title+" - "+r.Subtitle))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}

// Terminal renders the report for a terminal. An empty style picks one
// from the terminal background; "notty" produces plain text.
func Terminal(r Report, style string, width int) (string, error) {
	src, err := Markdown(r)
	if err != nil {
		return "", err
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := renderer.Render(src)
	if err != nil {
		return "", fmt.Errorf("render terminal: %w", err)
	}
	return out, nil
}
