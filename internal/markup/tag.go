// Package markup builds HTML fragments from tags, attributes and children.
//
// Children are escaped unless they are already template.HTML, so callers
// can mix user content and trusted markup without double escaping.
package markup

import (
	"encoding/json"
	"fmt"
	"html/template"
	"sort"
	"strings"
)

// Attrs are tag attributes. Empty values are omitted from the output.
type Attrs map[string]string

var voidTags = map[string]bool{
	"br":   true,
	"hr":   true,
	"img":  true,
	"link": true,
	"meta": true,
}

// Tag renders <name attrs...>children</name>.
//
// Supported children: template.HTML (trusted), string (escaped),
// fmt.Stringer (escaped), []template.HTML, []any, and nil (skipped).
func Tag(name string, attrs Attrs, children ...any) template.HTML {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(name)
	writeAttrs(&b, attrs)
	if voidTags[name] {
		b.WriteString(" />")
		return template.HTML(b.String())
	}
	b.WriteByte('>')
	for _, c := range children {
		writeChild(&b, c)
	}
	b.WriteString("</")
	b.WriteString(name)
	b.WriteByte('>')
	return template.HTML(b.String())
}

// Join concatenates fragments.
func Join(parts ...template.HTML) template.HTML {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(string(p))
	}
	return template.HTML(b.String())
}

// Escape escapes s for use as HTML text.
func Escape(s string) template.HTML {
	return template.HTML(template.HTMLEscapeString(s))
}

// EscapeNewlines escapes s and turns each newline into a <br /> tag.
func EscapeNewlines(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = template.HTMLEscapeString(l)
	}
	return template.HTML(strings.Join(lines, "<br />\n"))
}

// Classes joins non-empty class names with spaces.
func Classes(names ...string) string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return strings.Join(out, " ")
}

// Meta encodes v as JSON for a data-meta attribute. Encoding failures
// yield "{}" so a broken payload cannot break the page.
func Meta(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func writeAttrs(b *strings.Builder, attrs Attrs) {
	if len(attrs) == 0 {
		return
	}
	keys := make([]string, 0, len(attrs))
	for k, v := range attrs {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(template.HTMLEscapeString(attrs[k]))
		b.WriteByte('"')
	}
}

func writeChild(b *strings.Builder, c any) {
	switch v := c.(type) {
	case nil:
	case template.HTML:
		b.WriteString(string(v))
	case string:
		b.WriteString(template.HTMLEscapeString(v))
	case []template.HTML:
		for _, h := range v {
			b.WriteString(string(h))
		}
	case []any:
		for _, x := range v {
			writeChild(b, x)
		}
	case fmt.Stringer:
		b.WriteString(template.HTMLEscapeString(v.String()))
	default:
		b.WriteString(template.HTMLEscapeString(fmt.Sprint(v)))
	}
}
