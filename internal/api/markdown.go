// ABOUTME: Renders journal notes from Markdown to HTML
// ABOUTME: goldmark's default renderer escapes raw HTML in the source

package api

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// renderNotes converts notes to HTML. Rendering failures are logged and
// produce an empty string; the raw notes are always returned alongside.
func (a *API) renderNotes(notes string) string {
	if notes == "" {
		return ""
	}
	var htmlBuf bytes.Buffer
	if err := goldmark.Convert([]byte(notes), &htmlBuf); err != nil {
		a.logger.Error("failed to convert markdown", "error", err)
		return ""
	}
	return htmlBuf.String()
}
