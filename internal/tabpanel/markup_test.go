package tabpanel

import (
	"html"
	"html/template"
	"io"
	"strings"
	"testing"

	"github.com/wavetermdev/htmltoken"
)

// element is a flattened view of one rendered tag.
type element struct {
	Tag   string
	Attrs map[string]string
	Text  string
}

func (e *element) hasClass(c string) bool {
	for _, f := range strings.Fields(e.Attrs["class"]) {
		if f == c {
			return true
		}
	}
	return false
}

// parseElements tokenizes a fragment and returns its elements in document
// order; each element's Text holds all text nested inside it.
func parseElements(t *testing.T, h template.HTML) []*element {
	t.Helper()
	z := htmltoken.NewTokenizer(strings.NewReader(string(h)))
	var all, stack []*element
	for {
		tt := z.Next()
		tok := z.Token()
		switch tt {
		case htmltoken.ErrorToken:
			if z.Err() != io.EOF {
				t.Fatalf("tokenize: %v", z.Err())
			}
			if len(stack) != 0 {
				t.Fatalf("unclosed tags: %d", len(stack))
			}
			return all
		case htmltoken.StartTagToken, htmltoken.SelfClosingTagToken:
			e := &element{Tag: tok.Data, Attrs: map[string]string{}}
			for _, a := range tok.Attr {
				e.Attrs[a.Key] = html.UnescapeString(a.Val)
			}
			all = append(all, e)
			if tt == htmltoken.StartTagToken {
				stack = append(stack, e)
			}
		case htmltoken.EndTagToken:
			if len(stack) == 0 || stack[len(stack)-1].Tag != tok.Data {
				t.Fatalf("unbalanced end tag %q", tok.Data)
			}
			stack = stack[:len(stack)-1]
		case htmltoken.TextToken:
			text := html.UnescapeString(tok.Data)
			for _, e := range stack {
				e.Text += text
			}
		}
	}
}

func findAll(els []*element, match func(*element) bool) []*element {
	var out []*element
	for _, e := range els {
		if match(e) {
			out = append(out, e)
		}
	}
	return out
}

func withClass(c string) func(*element) bool {
	return func(e *element) bool { return e.hasClass(c) }
}
