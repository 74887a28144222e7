package markup

import (
	"html/template"
	"strings"
	"testing"
)

func TestTag_EscapesTextAndAttributes(t *testing.T) {
	got := Tag("a", Attrs{"href": `/x?a=1&b="2"`, "class": ""}, "<b>hi</b>")
	want := template.HTML(`<a href="/x?a=1&amp;b=&#34;2&#34;">&lt;b&gt;hi&lt;/b&gt;</a>`)
	if got != want {
		t.Fatalf("Tag()=%q, want %q", got, want)
	}
}

func TestTag_TrustedChildrenAndOrdering(t *testing.T) {
	inner := Tag("span", nil, "x")
	got := Tag("div", Attrs{"id": "n1", "class": "c"}, inner, nil, []template.HTML{"<i></i>"})
	want := template.HTML(`<div class="c" id="n1"><span>x</span><i></i></div>`)
	if got != want {
		t.Fatalf("Tag()=%q, want %q", got, want)
	}
}

func TestTag_VoidElement(t *testing.T) {
	if got := Tag("br", nil); got != "<br />" {
		t.Fatalf("Tag(br)=%q", got)
	}
}

func TestEscapeNewlines(t *testing.T) {
	got := string(EscapeNewlines("a < b\r\nc & d\ne"))
	want := "a &lt; b<br />\nc &amp; d<br />\ne"
	if got != want {
		t.Fatalf("EscapeNewlines()=%q, want %q", got, want)
	}
}

func TestClasses(t *testing.T) {
	if got := Classes("a", "", " b ", "c"); got != "a b c" {
		t.Fatalf("Classes()=%q", got)
	}
}

func TestMeta(t *testing.T) {
	got := Meta(map[string]any{"panels": map[int]string{0: "UQ0", 1: "UQ1"}})
	if got != `{"panels":{"0":"UQ0","1":"UQ1"}}` {
		t.Fatalf("Meta()=%q", got)
	}
	if got := Meta(make(chan int)); got != "{}" {
		t.Fatalf("Meta(unencodable)=%q, want {}", got)
	}
}

func TestNodeIDs(t *testing.T) {
	a, b := UniqueNodeID(), UniqueNodeID()
	if a == b || !strings.HasPrefix(a, "UQ") || len(a) != 14 {
		t.Fatalf("UniqueNodeID() a=%q b=%q", a, b)
	}
	next := SequentialNodeIDs("n")
	if got := []string{next(), next(), next()}; strings.Join(got, ",") != "n0,n1,n2" {
		t.Fatalf("SequentialNodeIDs=%v", got)
	}
}
