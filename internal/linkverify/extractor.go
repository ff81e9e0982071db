package linkverify

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Link represents an extracted link from rendered HTML content.
type Link struct {
	URL       string // The URL or path
	Text      string // Link text / alt text
	Tag       string // HTML tag (a, img)
	Attribute string // Attribute containing the link (href, src)
}

// ExtractLinksFromReader extracts anchor and image links from an HTML reader.
func ExtractLinksFromReader(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []Link
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href := getAttr(n, "href"); href != "" {
					links = append(links, Link{URL: href, Text: extractText(n), Tag: "a", Attribute: "href"})
				}
			case "img":
				if src := getAttr(n, "src"); src != "" {
					links = append(links, Link{URL: src, Text: getAttr(n, "alt"), Tag: "img", Attribute: "src"})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)
	return links, nil
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func extractText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// isExternal reports whether dest points outside the docs tree
// (scheme-qualified or protocol-relative URLs).
func isExternal(dest string) bool {
	if strings.HasPrefix(dest, "//") {
		return true
	}
	u, err := url.Parse(dest)
	if err != nil {
		return false
	}
	return u.Scheme != "" || u.Host != ""
}
