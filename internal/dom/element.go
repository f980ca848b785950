// Package dom models the parts of a DOM element that recording needs:
// attributes and tree position for selector inference, and the live
// properties (text, value, href, type) copied into recorded actions.
package dom

import "strings"

// Element is a read-only view of a DOM element node.
type Element interface {
	// TagName returns the element's tag as the DOM reports it
	// (upper-case for HTML documents).
	TagName() string
	Attr(name string) (string, bool)
	// ParentElement returns nil when the element has no element parent.
	ParentElement() Element
	// PreviousElementSibling returns nil for the first element child.
	PreviousElementSibling() Element

	TextContent() string
	Value() string
	Href() string
	InputType() string
}

// IsBody reports whether e is the document body.
func IsBody(e Element) bool {
	return e != nil && strings.EqualFold(e.TagName(), "body")
}

// SameTag compares tag names the way the DOM does for HTML elements.
func SameTag(a, b Element) bool {
	return strings.EqualFold(a.TagName(), b.TagName())
}
