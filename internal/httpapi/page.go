package httpapi

import (
	"bytes"
	"embed"
	"html/template"
)

//go:embed page/panel.html page/panel.css
var pageFS embed.FS

var panelPageTemplate = template.Must(template.New("panel.html").Funcs(template.FuncMap{
	"stylesheet": func() template.CSS {
		css, err := pageFS.ReadFile("page/panel.css")
		if err != nil {
			return ""
		}
		return template.CSS(css)
	},
}).ParseFS(pageFS, "page/panel.html"))

type panelPage struct {
	Title    string
	EditMode bool
	Body     template.HTML
}

func renderPanelPage(p panelPage) (template.HTML, error) {
	var buf bytes.Buffer
	if err := panelPageTemplate.Execute(&buf, p); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
