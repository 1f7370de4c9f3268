package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dgallion1/scrollnav/internal/nav"
	"gopkg.in/yaml.v3"
)

func sampleMenu() Menu {
	return Menu{
		Title: "Landing",
		Entries: []nav.Entry{
			{Index: 1, Anchor: "section1", Href: "#section1", Label: "Section 1"},
			{Index: 2, Anchor: "section2", Href: "#section2", Label: "Section 2"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", JSON},
		{"JSON", JSON},
		{"yml", YAML},
		{"md", Markdown},
		{"html", HTML},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, JSON, sampleMenu(), nil); err != nil {
		t.Fatal(err)
	}
	var got Menu
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Entries) != 2 || got.Entries[1].Href != "#section2" {
		t.Errorf("unexpected entries %+v", got.Entries)
	}
}

func TestWrite_JSONEmptyEntriesIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, JSON, Menu{Title: "x"}, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"entries": []`) {
		t.Errorf("expected empty array, got %s", buf.String())
	}
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, YAML, sampleMenu(), nil); err != nil {
		t.Fatal(err)
	}
	var got Menu
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid yaml: %v", err)
	}
	if got.Title != "Landing" || len(got.Entries) != 2 || got.Entries[0].Label != "Section 1" {
		t.Errorf("unexpected menu %+v", got)
	}
}

func TestWrite_Markdown(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Markdown, sampleMenu(), nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "# Landing") {
		t.Errorf("expected heading, got %q", out)
	}
	if !strings.Contains(out, "[Section 2](#section2)") {
		t.Errorf("expected link list, got %q", out)
	}
}

type fakeDoc string

func (d fakeDoc) Render(w io.Writer) error {
	_, err := io.WriteString(w, string(d))
	return err
}

func TestWrite_HTML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, HTML, sampleMenu(), fakeDoc("<html></html>")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "<html></html>" {
		t.Errorf("expected document passthrough, got %q", buf.String())
	}
	if err := Write(&buf, HTML, sampleMenu(), nil); err == nil {
		t.Error("expected error without a document")
	}
}
