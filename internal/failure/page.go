package failure

import (
	"embed"
	"html/template"
)

//go:embed page/exception.html page/exception.css
var pageFS embed.FS

var pageTemplate = template.Must(template.New("exception.html").Funcs(template.FuncMap{
	"stylesheet": func() template.CSS {
		css, err := pageFS.ReadFile("page/exception.css")
		if err != nil {
			return ""
		}
		return template.CSS(css)
	},
}).ParseFS(pageFS, "page/exception.html"))
