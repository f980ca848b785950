package dom

import (
	"github.com/tidwall/gjson"
)

// Snapshot is an element serialized by the in-page capture script at the
// moment an event fired. It carries just enough of the tree (the parent
// chain and the tag names of preceding element siblings at each level)
// for the selector resolver to run outside the page.
type Snapshot struct {
	Tag       string            `json:"tag"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Text      string            `json:"text,omitempty"`
	Val       string            `json:"value,omitempty"`
	Link      string            `json:"href,omitempty"`
	Type      string            `json:"type,omitempty"`
	Preceding []string          `json:"preceding,omitempty"`
	Parent    *Snapshot         `json:"parent,omitempty"`
}

// ParseSnapshot decodes a snapshot payload. It returns nil when the
// payload carries no tag.
func ParseSnapshot(r gjson.Result) *Snapshot {
	tag := r.Get("tag").String()
	if tag == "" {
		return nil
	}
	s := &Snapshot{
		Tag:  tag,
		Text: r.Get("text").String(),
		Val:  r.Get("value").String(),
		Link: r.Get("href").String(),
		Type: r.Get("type").String(),
	}
	if attrs := r.Get("attrs"); attrs.IsObject() {
		s.Attrs = make(map[string]string)
		attrs.ForEach(func(k, v gjson.Result) bool {
			s.Attrs[k.String()] = v.String()
			return true
		})
	}
	for _, p := range r.Get("preceding").Array() {
		s.Preceding = append(s.Preceding, p.String())
	}
	if parent := r.Get("parent"); parent.IsObject() {
		s.Parent = ParseSnapshot(parent)
	}
	return s
}

func (s *Snapshot) TagName() string { return s.Tag }

func (s *Snapshot) Attr(name string) (string, bool) {
	v, ok := s.Attrs[name]
	return v, ok
}

func (s *Snapshot) ParentElement() Element {
	if s.Parent == nil {
		return nil
	}
	return s.Parent
}

// PreviousElementSibling returns a tag-only placeholder: siblings are
// recorded by tag name alone.
func (s *Snapshot) PreviousElementSibling() Element {
	n := len(s.Preceding)
	if n == 0 {
		return nil
	}
	return &Snapshot{Tag: s.Preceding[n-1], Preceding: s.Preceding[:n-1]}
}

func (s *Snapshot) TextContent() string { return s.Text }
func (s *Snapshot) Value() string       { return s.Val }
func (s *Snapshot) Href() string        { return s.Link }
func (s *Snapshot) InputType() string   { return s.Type }
