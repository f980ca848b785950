package selector

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"sessionrecorder/backend/internal/dom"
)

const page = `<!DOCTYPE html>
<html><head><title>t</title></head>
<body>
  <div class="wrap">
    <form>
      <input id="email" name="user_email" class="field wide" type="email">
      <input id="1bad" name="q" class="field">
      <input id="x y" name="9name" class="  9a  b-ok c">
      <button class="0x !!">Go</button>
    </form>
  </div>
  <div>
    <p>first</p>
    <span>s</span>
    <p>second <a href="/next">next</a></p>
  </div>
</body></html>`

func parse(t *testing.T) *html.Node {
	t.Helper()
	doc, err := htmlquery.Parse(strings.NewReader(page))
	require.NoError(t, err)
	return doc
}

func find(t *testing.T, doc *html.Node, xpath string) *dom.Node {
	t.Helper()
	n := htmlquery.FindOne(doc, xpath)
	require.NotNil(t, n, "no node for %s", xpath)
	return dom.FromHTML(n, nil)
}

func TestResolvePriority(t *testing.T) {
	doc := parse(t)

	tests := []struct {
		name  string
		xpath string
		want  string
	}{
		{"id wins over name and class", "//input[@id='email']", "#email"},
		{"invalid id falls through to name", "//input[@id='1bad']", `[name="q"]`},
		{"invalid id and name fall through to class", "//input[@id='x y']", ".b-ok"},
		{"no qualifying class falls back to path", "//button", "//div[1]/form[1]/button[1]"},
		{"positional path counts same-tag siblings only", "//p[2]", "//div[2]/p[2]"},
		{"nested path", "//a", "//div[2]/p[2]/a[1]"},
		{"class attribute on container", "//div[@class='wrap']", ".wrap"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(find(t, doc, tt.xpath)))
		})
	}
}

func TestResolveIDIgnoresOtherAttributes(t *testing.T) {
	for _, markup := range []string{
		`<div id="main" name="other" class="c1 c2"></div>`,
		`<div class="c1" id="main"></div>`,
		`<div name="n" id="main"></div>`,
	} {
		doc, err := htmlquery.Parse(strings.NewReader("<html><body>" + markup + "</body></html>"))
		require.NoError(t, err)
		assert.Equal(t, "#main", Resolve(find(t, doc, "//div")))
	}
}

func TestPathLocatorRefindsElement(t *testing.T) {
	doc := parse(t)
	target := find(t, doc, "//a")

	loc := Resolve(target)
	require.True(t, IsPath(loc))

	matches := htmlquery.Find(doc, loc)
	assert.Contains(t, matches, target.HTMLNode())
	// one segment per ancestor level below body
	assert.Len(t, strings.Split(strings.TrimPrefix(loc, PathPrefix), "/"), 3)
}

func TestAttributeLocatorRefindsElement(t *testing.T) {
	doc := parse(t)
	gq := goquery.NewDocumentFromNode(doc)

	for _, xpath := range []string{"//input[@id='email']", "//input[@id='1bad']", "//input[@id='x y']"} {
		target := find(t, doc, xpath)
		loc := Resolve(target)
		require.False(t, IsPath(loc))

		sel := gq.Find(loc)
		require.Positive(t, sel.Length(), "locator %s matched nothing", loc)
		assert.Equal(t, target.HTMLNode(), sel.Get(0), "locator %s", loc)
	}
}

func TestResolveBodyAndDetached(t *testing.T) {
	doc := parse(t)
	assert.Equal(t, "//body", Resolve(find(t, doc, "//body")))
	assert.Equal(t, "//html[1]/head[1]/title[1]", Resolve(find(t, doc, "//title")))

	frag := &html.Node{Type: html.ElementNode, Data: "section"}
	child := &html.Node{Type: html.ElementNode, Data: "em"}
	frag.AppendChild(child)
	assert.Equal(t, "//section[1]/em[1]", Resolve(dom.FromHTML(child, nil)))
}

func TestResolveSnapshot(t *testing.T) {
	snap := &dom.Snapshot{
		Tag:       "SPAN",
		Attrs:     map[string]string{"class": "123"},
		Preceding: []string{"SPAN", "B", "SPAN"},
		Parent: &dom.Snapshot{
			Tag:       "LI",
			Preceding: []string{"LI"},
			Parent: &dom.Snapshot{
				Tag:    "UL",
				Parent: &dom.Snapshot{Tag: "BODY"},
			},
		},
	}
	assert.Equal(t, "//ul[1]/li[2]/span[3]", Resolve(snap))

	snap.Attrs["name"] = "qty"
	assert.Equal(t, `[name="qty"]`, Resolve(snap))
}

func TestIsIdentifier(t *testing.T) {
	assert.True(t, IsIdentifier("a"))
	assert.True(t, IsIdentifier("btn_primary-2"))
	assert.False(t, IsIdentifier(""))
	assert.False(t, IsIdentifier("2col"))
	assert.False(t, IsIdentifier("-x"))
	assert.False(t, IsIdentifier("a:b"))
	assert.False(t, IsIdentifier("ä"))
}
