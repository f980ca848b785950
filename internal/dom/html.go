package dom

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Node adapts a parsed golang.org/x/net/html element node.
type Node struct {
	n    *html.Node
	base *url.URL
}

// FromHTML wraps n. base, when non-nil, resolves relative hrefs the way a
// browser's element.href does. Returns nil unless n is an element node.
func FromHTML(n *html.Node, base *url.URL) *Node {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return &Node{n: n, base: base}
}

// HTMLNode returns the wrapped node.
func (e *Node) HTMLNode() *html.Node { return e.n }

func (e *Node) TagName() string {
	return strings.ToUpper(e.n.Data)
}

func (e *Node) Attr(name string) (string, bool) {
	for _, a := range e.n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func (e *Node) ParentElement() Element {
	for p := e.n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return &Node{n: p, base: e.base}
		}
		if p.Type == html.DocumentNode {
			return nil
		}
	}
	return nil
}

func (e *Node) PreviousElementSibling() Element {
	for s := e.n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return &Node{n: s, base: e.base}
		}
	}
	return nil
}

func (e *Node) TextContent() string {
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
	walk(e.n)
	return b.String()
}

func (e *Node) Value() string {
	switch e.n.Data {
	case "textarea":
		return e.TextContent()
	case "select":
		return selectedOption(e.n)
	}
	v, _ := e.Attr("value")
	return v
}

func (e *Node) Href() string {
	switch e.n.Data {
	case "a", "area", "link":
	default:
		return ""
	}
	raw, ok := e.Attr("href")
	if !ok {
		return ""
	}
	if e.base == nil {
		return raw
	}
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return e.base.ResolveReference(ref).String()
}

func (e *Node) InputType() string {
	switch e.n.Data {
	case "input":
		t, _ := e.Attr("type")
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			return "text"
		}
		return t
	case "button":
		t, _ := e.Attr("type")
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "reset" || t == "button" {
			return t
		}
		return "submit"
	case "textarea":
		return "textarea"
	case "select":
		if _, multiple := e.Attr("multiple"); multiple {
			return "select-multiple"
		}
		return "select-one"
	}
	return ""
}

func selectedOption(sel *html.Node) string {
	var first, selected *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if selected != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "option" {
			if first == nil {
				first = n
			}
			for _, a := range n.Attr {
				if a.Key == "selected" {
					selected = n
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(sel)
	if selected == nil {
		selected = first
	}
	if selected == nil {
		return ""
	}
	opt := &Node{n: selected}
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.TextContent())
}
