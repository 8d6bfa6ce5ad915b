package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/pkg/utils"
)

// parsePage extracts a documentation page and its outgoing links from HTML.
// The returned page is nil when the document has no main content area; links
// are still returned so crawling can continue through index pages.
func parsePage(pageURL string, r io.Reader) (*models.Page, []string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse html: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid page url: %w", err)
	}

	links := collectLinks(doc, base)
	content := findByID(doc, "main-content")
	if content == nil {
		return nil, links, nil
	}

	fullText, sections := splitSections(content)
	page := &models.Page{
		URL:        pageURL,
		Title:      findTitle(doc),
		Breadcrumb: findBreadcrumb(doc),
		FullText:   fullText,
		Sections:   sections,
	}
	return page, links, nil
}

// findTitle prefers the first h1 over the document title, which on wiki
// pages usually carries a space name suffix.
func findTitle(doc *html.Node) string {
	if h1 := findElement(doc, "h1"); h1 != nil {
		if t := textOf(h1); t != "" {
			return t
		}
	}
	if title := findElement(doc, "title"); title != nil {
		return textOf(title)
	}
	return ""
}

func findBreadcrumb(doc *html.Node) []string {
	crumbs := []string{}
	container := findByID(doc, "breadcrumbs")
	if container == nil {
		return crumbs
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" {
			if t := textOf(n); t != "" {
				crumbs = append(crumbs, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(container)
	return crumbs
}

// collectLinks resolves every anchor href against the page URL and strips
// fragments. Duplicates within one page are dropped; scope filtering is the
// crawler's concern.
func collectLinks(doc *html.Node, base *url.URL) []string {
	var links []string
	seen := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attrValue(n, "href"); href != "" {
				if resolved := resolveLink(base, href); resolved != "" && !seen[resolved] {
					seen[resolved] = true
					links = append(links, resolved)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func resolveLink(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// splitSections walks the content area in document order. h2 and h3 headings
// open a new section; text before the first heading becomes the page's full
// text. Headings with no body are dropped.
func splitSections(content *html.Node) (string, []models.Section) {
	sections := []models.Section{}
	var (
		fullText string
		header   string
		buf      strings.Builder
	)
	flush := func() {
		text := utils.CollapseWhitespace(buf.String())
		buf.Reset()
		if header == "" {
			fullText = text
			return
		}
		if text != "" {
			sections = append(sections, models.Section{Header: header, Content: text})
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "h2", "h3":
				flush()
				header = textOf(n)
				return
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(content)
	flush()
	return fullText, sections
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attrValue(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return utils.CollapseWhitespace(buf.String())
}
