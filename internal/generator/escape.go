package generator

import (
	"bytes"
	"encoding/xml"
	"strings"
)

var pyReplacer = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// pyString escapes s for use inside a double-quoted Python literal.
func pyString(s string) string {
	return pyReplacer.Replace(s)
}

// xmlText escapes s as XML character data.
func xmlText(s string) string {
	var buf bytes.Buffer
	// EscapeText only fails when the writer does
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
