package webconfig

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// Link is a <link> element of the HTML template. Missing attributes are
// empty.
type Link struct {
	Rel   string `json:"rel,omitempty" yaml:"rel,omitempty"`
	Media string `json:"media,omitempty" yaml:"media,omitempty"`
	Href  string `json:"href,omitempty" yaml:"href,omitempty"`
	Sizes string `json:"sizes,omitempty" yaml:"sizes,omitempty"`
}

// Meta is a <meta> element of the HTML template.
type Meta struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Template is the scanned index.html.
type Template struct {
	Links []Link
	Meta  []Meta
}

// ReadTemplate scans the HTML template at path.
func ReadTemplate(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening template: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := ParseTemplate(f)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", path, err)
	}
	return t, nil
}

// ParseTemplate collects the link and meta elements of an HTML document
// in document order.
func ParseTemplate(r io.Reader) (*Template, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	t := &Template{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "link":
				t.Links = append(t.Links, Link{
					Rel:   attr(n, "rel"),
					Media: attr(n, "media"),
					Href:  attr(n, "href"),
					Sizes: attr(n, "sizes"),
				})
			case "meta":
				t.Meta = append(t.Meta, Meta{
					Name:    attr(n, "name"),
					Content: attr(n, "content"),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return t, nil
}

// ManifestLink returns the first link whose rel list contains
// "manifest".
func (t *Template) ManifestLink() (Link, bool) {
	for _, l := range t.Links {
		if slices.Contains(strings.Fields(strings.ToLower(l.Rel)), "manifest") {
			return l, true
		}
	}
	return Link{}, false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
