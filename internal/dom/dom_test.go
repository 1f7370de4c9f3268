package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func parse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestClassHelpers(t *testing.T) {
	doc := parse(t, `<section id="a" class="card">x</section>`)
	n := FindByID(doc, "a")
	if n == nil {
		t.Fatal("expected to find #a")
	}

	AddClass(n, "active")
	if v, _ := Attr(n, "class"); v != "card active" {
		t.Errorf("expected %q, got %q", "card active", v)
	}

	// Adding twice keeps a single entry.
	AddClass(n, "active")
	if v, _ := Attr(n, "class"); v != "card active" {
		t.Errorf("expected no duplicate class, got %q", v)
	}

	RemoveClass(n, "active")
	if HasClass(n, "active") {
		t.Error("expected active class removed")
	}
	if !HasClass(n, "card") {
		t.Error("expected unrelated class kept")
	}

	RemoveClass(n, "card")
	if _, ok := Attr(n, "class"); ok {
		t.Error("expected empty class attribute to be dropped")
	}
}

func TestFindAll_DocumentOrder(t *testing.T) {
	doc := parse(t, `<main><section id="1"></section><div><section id="2"></section></div><section id="3"></section></main>`)
	got := FindAll(doc, ByTag("section"))
	if len(got) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(got))
	}
	for i, n := range got {
		id, _ := Attr(n, "id")
		if id != string(rune('1'+i)) {
			t.Errorf("section[%d]: expected id %q, got %q", i, string(rune('1'+i)), id)
		}
	}
}

func TestFindByID_Missing(t *testing.T) {
	doc := parse(t, `<p id="x"></p>`)
	if FindByID(doc, "y") != nil {
		t.Error("expected nil for missing id")
	}
}

func TestTitleAndTextContent(t *testing.T) {
	doc := parse(t, `<html><head><title> Landing </title></head><body><p>Hello <b>world</b></p></body></html>`)
	if got := Title(doc); got != "Landing" {
		t.Errorf("expected title %q, got %q", "Landing", got)
	}
	p := Find(doc, ByTag("p"))
	if got := TextContent(p); got != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", got)
	}
}

func TestRemoveChildrenAndRender(t *testing.T) {
	ul := Element(atom.Ul)
	li := Element(atom.Li)
	li.AppendChild(Text("<b>"))
	ul.AppendChild(li)

	out, err := RenderString(ul)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<ul><li>&lt;b&gt;</li></ul>" {
		t.Errorf("expected escaped text, got %q", out)
	}

	RemoveChildren(ul)
	if ul.FirstChild != nil {
		t.Error("expected no children after RemoveChildren")
	}
}
