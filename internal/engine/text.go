package engine

import (
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/John-Robertt/dashpanel/internal/markup"
	"github.com/John-Robertt/dashpanel/internal/model"
)

// TextProperty holds the markdown source of a text panel.
const TextProperty = "text"

// newMarkdown builds the text panel converter. Raw HTML in the source is
// dropped (goldmark's default).
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
}

func (e *Engine) renderText(p *model.Panel) (template.HTML, error) {
	src, _ := p.Property(TextProperty).(string)
	if strings.TrimSpace(src) == "" {
		return markup.Tag("div", markup.Attrs{"class": "info-view info-view-nodata"},
			markup.Tag("p", nil, "This text panel is empty.")), nil
	}
	var sb strings.Builder
	if err := e.markdown.Convert([]byte(src), &sb); err != nil {
		return "", err
	}
	return markup.Tag("div", markup.Attrs{"class": "dashboard-text-panel"}, template.HTML(sb.String())), nil
}
