package recorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionrecorder/backend/internal/selector"
)

const drained = `[
  {"kind":"click","pageUrl":"https://shop.test/p/1","time":1700000000123,
   "target":{"tag":"SPAN","attrs":{"class":"9x"},"preceding":["SPAN"],"text":"Buy",
     "parent":{"tag":"BUTTON","attrs":{},"preceding":[],
       "parent":{"tag":"BODY","attrs":{}}}}},
  {"kind":"input","pageUrl":"https://shop.test/p/1","time":1700000000456,
   "target":{"tag":"INPUT","attrs":{"name":"qty"},"value":"2","type":"number",
     "parent":{"tag":"BODY","attrs":{}}}},
  {"kind":"change","target":{}},
  {"kind":"change","target":{"tag":"SELECT","attrs":{"id":"color"},"value":"red","type":"select-one"}}
]`

func TestDecodeEvents(t *testing.T) {
	events := decodeEvents(drained)
	require.Len(t, events, 3)

	click := events[0]
	assert.Equal(t, eventClick, click.kind)
	assert.Equal(t, "https://shop.test/p/1", click.event.PageURL)
	assert.Equal(t, int64(1700000000123), click.event.Time.UnixMilli())
	assert.Equal(t, "Buy", click.event.Target.TextContent())
	assert.Equal(t, "//button[1]/span[2]", selector.Resolve(click.event.Target))

	input := events[1]
	assert.Equal(t, eventInput, input.kind)
	assert.Equal(t, "2", input.event.Target.Value())
	assert.Equal(t, "number", input.event.Target.InputType())
	assert.Equal(t, `[name="qty"]`, selector.Resolve(input.event.Target))

	change := events[2]
	assert.Equal(t, eventChange, change.kind)
	assert.True(t, change.event.Time.IsZero())
	assert.Equal(t, "#color", selector.Resolve(change.event.Target))
}

func TestDecodeEventsEmpty(t *testing.T) {
	assert.Empty(t, decodeEvents(`[]`))
	assert.Empty(t, decodeEvents(``))
}

func TestDispatchRoutesByKind(t *testing.T) {
	s := &ChromeEventSource{handlers: make(map[string]Handler)}

	var clicks, inputs int
	removeClick := s.OnClick(func(Event) { clicks++ })
	s.OnInput(func(Event) { inputs++ })

	s.dispatch(decodeEvents(drained))
	assert.Equal(t, 1, clicks)
	assert.Equal(t, 1, inputs)
	assert.Equal(t, "https://shop.test/p/1", s.lastURL)

	removeClick()
	s.dispatch(decodeEvents(drained))
	assert.Equal(t, 1, clicks)
	assert.Equal(t, 2, inputs)
}
