package bancheck

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Profile page markers. Matching is DOM-based so it survives attribute
// reordering and whitespace changes.
const (
	banInfoClass       = "profile_ban_info"
	privateInfoClass   = "profile_private_info"
	publicPersonaClass = "profile_header_centered_persona"
)

// classifyBody inspects a profile page body and returns the raw
// status. Priority is ban > private > public > unexpected.
// Parameters:
//   - body: HTML response body
//
// Returns:
//   - string: Raw status
func classifyBody(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return rawUnexpected
	}

	if span := findByClass(doc, "span", banInfoClass); span != nil {
		return rawBannedPrefix + strings.TrimSpace(innerText(span))
	}
	if findByClass(doc, "div", privateInfoClass) != nil {
		return rawPrivate
	}
	if findByClass(doc, "div", publicPersonaClass) != nil {
		return rawPublic
	}

	return rawUnexpected
}

// findByClass returns the first element with the given tag carrying
// the class, in document order.
// Parameters:
//   - n: Root node to search from
//   - tag: Element tag name
//   - class: Class the element must carry
//
// Returns:
//   - *html.Node: Matching node, or nil
func findByClass(n *html.Node, tag, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag && hasClass(n, class) {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, tag, class); found != nil {
			return found
		}
	}
	return nil
}

// hasClass reports whether a node's class attribute contains the given
// class token.
func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, token := range strings.Fields(attr.Val) {
			if token == class {
				return true
			}
		}
	}
	return false
}

// innerText concatenates the text content of a node's subtree.
// Parameters:
//   - n: Root node
//
// Returns:
//   - string: Concatenated text
func innerText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return b.String()
}
