package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Site narrows a page to the part that holds its statements
type Site interface {
	Name() string

	// CanHandle checks if this site layout applies to the page URL
	CanHandle(pageURL string) bool

	// Content returns the subtree to read; nil means the whole document
	Content(doc *html.Node) *html.Node

	// Skip reports whether a subtree carries no prose (navigation, boxes, footnotes)
	Skip(n *html.Node) bool
}

// Registry picks a Site for a URL, falling back to the generic layout
type Registry struct {
	sites   []Site
	generic Site
}

// NewRegistry creates a registry with the built-in layouts
func NewRegistry() *Registry {
	r := &Registry{generic: genericSite{}}
	r.Register(wikipediaSite{})
	return r
}

// Register adds a site layout, checked before the ones already registered
func (r *Registry) Register(s Site) {
	r.sites = append([]Site{s}, r.sites...)
}

// Find returns the layout for pageURL
func (r *Registry) Find(pageURL string) Site {
	for _, s := range r.sites {
		if s.CanHandle(pageURL) {
			return s
		}
	}
	return r.generic
}

// skippedElements never contain article prose
var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
	"nav": true, "footer": true, "header": true, "aside": true,
	"form": true, "button": true, "svg": true, "template": true,
}

type genericSite struct{}

func (genericSite) Name() string { return "generic" }

func (genericSite) CanHandle(string) bool { return true }

func (genericSite) Content(doc *html.Node) *html.Node {
	if n := findFirst(doc, isElement("article")); n != nil {
		return n
	}
	if n := findFirst(doc, isElement("main")); n != nil {
		return n
	}
	return findFirst(doc, isElement("body"))
}

func (genericSite) Skip(n *html.Node) bool {
	return attr(n, "role") == "navigation" || attr(n, "aria-hidden") == "true"
}

type wikipediaSite struct{}

func (wikipediaSite) Name() string { return "wikipedia" }

func (wikipediaSite) CanHandle(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

func (wikipediaSite) Content(doc *html.Node) *html.Node {
	return findFirst(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" &&
			(hasClass(n, "mw-parser-output") || attr(n, "id") == "mw-content-text")
	})
}

func (wikipediaSite) Skip(n *html.Node) bool {
	switch {
	case n.Data == "sup" && hasClass(n, "reference"):
		return true
	case n.Data == "table":
		// Infoboxes, navboxes and data tables are not prose
		return true
	case hasClass(n, "mw-editsection"), hasClass(n, "reflist"), hasClass(n, "references"),
		hasClass(n, "navbox"), hasClass(n, "hatnote"), hasClass(n, "thumb"), hasClass(n, "toc"):
		return true
	}
	return false
}

func isElement(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == tag
	}
}

func hasClass(n *html.Node, className string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, class := range strings.Fields(attr(n, "class")) {
		if class == className {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func findFirst(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, predicate); found != nil {
			return found
		}
	}
	return nil
}
