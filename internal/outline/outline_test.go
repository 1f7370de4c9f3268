package outline

import (
	"strings"
	"testing"

	"github.com/dgallion1/scrollnav/internal/dom"
)

func TestRender_Skeleton(t *testing.T) {
	o := &Outline{
		Title: "Handbook",
		Sections: []*Section{
			{Body: "<p>Preamble</p>"},
			{Label: "Intro", Body: "<h2>Intro</h2><p>Hi</p>"},
			{Label: "Contact", Body: Paragraphs("Mail us.")},
		},
	}
	doc, err := o.Render(RenderOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dom.Title(doc) != "Handbook" {
		t.Errorf("expected title Handbook, got %q", dom.Title(doc))
	}
	menu := dom.FindByID(doc, "navbar__list")
	if menu == nil || menu.FirstChild != nil {
		t.Fatal("expected an empty menu container")
	}

	sections := dom.FindAll(doc, dom.ByTag("section"))
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	if _, ok := dom.Attr(sections[0], "data-nav"); ok {
		t.Error("expected preamble section to be unlabelled")
	}
	if v, _ := dom.Attr(sections[1], "data-nav"); v != "Intro" {
		t.Errorf("expected Intro label, got %q", v)
	}
	if dom.Find(sections[1], dom.ByTag("h2")) == nil {
		t.Error("expected section body to be parsed into elements")
	}
}

func TestRender_CustomMarkup(t *testing.T) {
	o := &Outline{Sections: []*Section{{Label: "A"}}}
	doc, err := o.Render(RenderOptions{Attr: "data-title", Tag: "article", MenuID: "toc"})
	if err != nil {
		t.Fatal(err)
	}
	if dom.FindByID(doc, "toc") == nil {
		t.Error("expected custom menu id")
	}
	art := dom.Find(doc, dom.ByTag("article"))
	if art == nil {
		t.Fatal("expected article block")
	}
	if v, _ := dom.Attr(art, "data-title"); v != "A" {
		t.Errorf("expected custom label attribute, got %q", v)
	}
}

func TestParagraphs(t *testing.T) {
	got := Paragraphs("one & two\n\n\n\nthree <b>")
	want := "<p>one &amp; two</p>\n<p>three &lt;b&gt;</p>\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if Paragraphs("   ") != "" {
		t.Error("expected empty output for blank text")
	}
}

func TestHeading_ClampsLevel(t *testing.T) {
	if got := Heading(9, "x"); !strings.HasPrefix(got, "<h6>") {
		t.Errorf("expected h6, got %q", got)
	}
	if got := Heading(0, "x"); !strings.HasPrefix(got, "<h1>") {
		t.Errorf("expected h1, got %q", got)
	}
}

func TestRender_SourcePage(t *testing.T) {
	o := &Outline{Sections: []*Section{
		{Label: "Page 1", Body: "<p>a</p>", Page: 1},
		{Label: "Notes", Body: "<p>b</p>"},
	}}
	doc, err := o.Render(RenderOptions{})
	if err != nil {
		t.Fatal(err)
	}
	sections := dom.FindAll(doc, dom.ByTag("section"))
	if v, _ := dom.Attr(sections[0], "data-page"); v != "1" {
		t.Errorf("expected data-page 1, got %q", v)
	}
	if _, ok := dom.Attr(sections[1], "data-page"); ok {
		t.Error("expected no data-page on an unpaged section")
	}
}
