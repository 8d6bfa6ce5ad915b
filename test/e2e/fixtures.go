package e2e

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

// PageSlug converts a page title to its path segment, wiki style.
func PageSlug(title string) string {
	return strings.ReplaceAll(title, " ", "+")
}

// WikiHTML renders a corpus page the way the documentation wiki serves it:
// breadcrumbs, an h1 title, section headers and paragraphs inside the main
// content container, and navigation links outside it.
func WikiHTML(page models.Page, links []string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head><title>")
	b.WriteString(page.Title)
	b.WriteString(" - QuickBuild 14 - Confluence</title></head>\n<body>\n")

	b.WriteString("<ol id=\"breadcrumbs\">\n")
	for _, crumb := range page.Breadcrumb {
		fmt.Fprintf(&b, "<li><a href=\"/display/QB14\">%s</a></li>\n", crumb)
	}
	b.WriteString("</ol>\n")

	fmt.Fprintf(&b, "<h1 id=\"title-text\">%s</h1>\n", page.Title)

	b.WriteString("<div id=\"main-content\">\n")
	if len(page.Sections) > 0 {
		for _, sec := range page.Sections {
			fmt.Fprintf(&b, "<h2>%s</h2>\n<p>%s</p>\n", sec.Header, sec.Content)
		}
	} else {
		fmt.Fprintf(&b, "<p>%s</p>\n", page.FullText)
	}
	b.WriteString("</div>\n")

	if len(links) > 0 {
		b.WriteString("<div class=\"page-navigation\">\n")
		for _, link := range links {
			fmt.Fprintf(&b, "<a href=\"%s\">%s</a>\n", link, link)
		}
		b.WriteString("</div>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// NewWikiServer serves the corpus as a small documentation wiki. The space
// home page at /display/QB14 links to every topic page, and each topic page
// links back to the home page. Callers must Close the returned server.
func NewWikiServer(c *Corpus) *httptest.Server {
	topicLinks := make([]string, 0, len(c.Pages))
	for _, page := range c.Pages {
		topicLinks = append(topicLinks, "/display/QB14/"+PageSlug(page.Title))
	}

	home := models.Page{
		Title:      "QuickBuild 14",
		Breadcrumb: []string{"QuickBuild 14"},
		FullText:   "QuickBuild 14 documentation covers installation, configuration, and daily operation of the server.",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/display/QB14", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, WikiHTML(home, topicLinks))
	})
	for i, page := range c.Pages {
		page := page
		mux.HandleFunc(topicLinks[i], func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, WikiHTML(page, []string{"/display/QB14"}))
		})
	}
	return httptest.NewServer(mux)
}
