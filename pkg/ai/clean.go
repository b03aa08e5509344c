package ai

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CleanHTML strips scripts, styles, stylesheet links, iframes, hidden and
// ad/tracking elements, non-essential meta tags, and comments. First rung
// of the token-budget ladder.
func CleanHTML(in string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in))
	if err != nil {
		return in
	}
	doc.Find("script, style, link, iframe").Remove()
	doc.Find("[style*='display:none']").Remove()
	doc.Find("[id*='ad'], [class*='ad'], [id*='tracking'], [class*='tracking']").Remove()
	pruneMeta(doc, "title", "description")
	removeComments(doc)
	return render(doc, in)
}

// CleanHTMLSlim additionally drops svg, noscript, canvas, video, and
// base64-inlined images.
func CleanHTMLSlim(in string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in))
	if err != nil {
		return in
	}
	doc.Find("script, style, svg, noscript, link, iframe, canvas, video").Remove()
	doc.Find("img, picture").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && strings.HasPrefix(src, "data:image") {
			s.Remove()
		}
	})
	doc.Find("[style*='display:none']").Remove()
	doc.Find("[id*='ad'], [class*='ad'], [id*='tracking'], [class*='tracking']").Remove()
	pruneMeta(doc, "title", "description")
	removeComments(doc)
	return render(doc, in)
}

// CleanHTMLFull is the last rung: navigation and footers go, and every
// attribute except id, class, and data-* is dropped.
func CleanHTMLFull(in string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in))
	if err != nil {
		return in
	}
	doc.Find("nav, footer").Remove()
	pruneMeta(doc, "viewport", "charset")
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if a.Key == "id" || a.Key == "class" || strings.HasPrefix(a.Key, "data-") {
					kept = append(kept, a)
				}
			}
			n.Attr = kept
		}
	})
	removeComments(doc)
	return render(doc, in)
}

// pruneMeta removes meta tags whose name is not in the allow list.
func pruneMeta(doc *goquery.Document, allow ...string) {
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok {
			s.Remove()
			return
		}
		for _, a := range allow {
			if strings.EqualFold(name, a) {
				return
			}
		}
		s.Remove()
	})
}

func removeComments(doc *goquery.Document) {
	for _, root := range doc.Nodes {
		stripCommentNodes(root)
	}
}

func stripCommentNodes(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			stripCommentNodes(c)
		}
		c = next
	}
}

func render(doc *goquery.Document, fallback string) string {
	out, err := doc.Html()
	if err != nil {
		return fallback
	}
	return out
}
