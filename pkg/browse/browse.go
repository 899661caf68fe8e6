/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package browse

import (
	"io"
	"net/url"
	"strings"

	"github.com/yomguy/servestream-sub001/pkg/transport"
	"golang.org/x/net/html"
)

// Link is an anchor found on a web page.
type Link struct {
	URL         string `json:"url"`
	Name        string `json:"name"`
	ContentType string `json:"content_type,omitempty"`
}

// Parse reads an HTML document and returns its a[href] links resolved
// against base, in document order. A <base href> in the document takes
// precedence over base.
func Parse(base *url.URL, r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	if href := findBase(doc); href != "" {
		if ref, err := url.Parse(href); err == nil {
			if base != nil {
				base = base.ResolveReference(ref)
			} else {
				base = ref
			}
		}
	}

	links := make([]Link, 0)
	seen := make(map[string]bool)
	for _, node := range findLinks(doc) {
		target, ok := resolveHref(base, extractHref(node))
		if !ok || seen[target] {
			continue
		}
		seen[target] = true

		name := extractText(node)
		if name == "" {
			name = target
		}
		links = append(links, Link{URL: target, Name: name, ContentType: contentType(target)})
	}
	return links, nil
}

// findLinks traverses the HTML document and returns all anchor (<a>) tags.
func findLinks(doc *html.Node) []*html.Node {
	var linkNodes []*html.Node

	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "a" {
			linkNodes = append(linkNodes, node)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}

	traverse(doc)

	return linkNodes
}

func findBase(doc *html.Node) string {
	var href string
	var traverse func(*html.Node) bool
	traverse = func(node *html.Node) bool {
		if node.Type == html.ElementNode && node.Data == "base" {
			href = extractHref(node)
			return href != ""
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if traverse(child) {
				return true
			}
		}
		return false
	}
	traverse(doc)
	return href
}

func extractHref(node *html.Node) string {
	for _, attr := range node.Attr {
		if attr.Key == "href" {
			return strings.TrimSpace(attr.Val)
		}
	}
	return ""
}

// extractText returns the visible text of node with whitespace collapsed.
func extractText(node *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(node)
	return strings.Join(strings.Fields(b.String()), " ")
}

func resolveHref(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(ref.Scheme) {
	case "javascript", "mailto", "tel", "data":
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	ref.Fragment = ""
	target := ref.String()
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	return target, true
}

// contentType guesses the type of a link from its extension. Directory
// style links are pages.
func contentType(target string) string {
	path := target
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if strings.HasSuffix(path, "/") {
		return transport.MimeTypeHTML
	}
	return transport.SniffExtension(path)
}
