// Package selector infers a replayable locator for a DOM element.
//
// Attribute locators are preferred because they survive sibling
// reordering; the positional path is the fallback for elements with no
// usable id, name or class.
package selector

import (
	"regexp"
	"strconv"
	"strings"

	"sessionrecorder/backend/internal/dom"
)

// identifier matches tokens that are safe to embed in a CSS selector
// without escaping.
var identifier = regexp.MustCompile(`^[a-zA-Z][\w-]*$`)

// PathPrefix marks a positional (XPath) locator.
const PathPrefix = "//"

// IsPath reports whether sel is a positional locator.
func IsPath(sel string) bool {
	return strings.HasPrefix(sel, PathPrefix)
}

// IsIdentifier reports whether s matches the identifier pattern.
func IsIdentifier(s string) bool {
	return identifier.MatchString(s)
}

// Resolve returns exactly one locator for e, first match wins:
//
//	#id                 id matches the identifier pattern
//	[name="name"]       name matches the identifier pattern
//	.class              first class token matching the pattern
//	//tag[n]/tag[n]     positional path up to, excluding, body
func Resolve(e dom.Element) string {
	if id, ok := e.Attr("id"); ok && IsIdentifier(id) {
		return "#" + id
	}
	if name, ok := e.Attr("name"); ok && IsIdentifier(name) {
		return `[name="` + name + `"]`
	}
	if class, ok := e.Attr("class"); ok {
		for _, token := range strings.Fields(class) {
			if IsIdentifier(token) {
				return "." + token
			}
		}
	}
	return Path(e)
}

// Path builds the positional locator for e. Each segment is the
// lower-cased tag plus the 1-based ordinal among preceding siblings with
// the same tag. A detached element is pathed up to the root it has.
func Path(e dom.Element) string {
	var segments []string
	for cur := e; cur != nil && !dom.IsBody(cur); cur = cur.ParentElement() {
		segments = append(segments, strings.ToLower(cur.TagName())+"["+strconv.Itoa(ordinal(cur))+"]")
	}
	if len(segments) == 0 {
		return PathPrefix + "body"
	}
	for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
		segments[i], segments[j] = segments[j], segments[i]
	}
	return PathPrefix + strings.Join(segments, "/")
}

func ordinal(e dom.Element) int {
	n := 1
	for s := e.PreviousElementSibling(); s != nil; s = s.PreviousElementSibling() {
		if dom.SameTag(s, e) {
			n++
		}
	}
	return n
}
