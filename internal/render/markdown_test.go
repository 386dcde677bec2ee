package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown_ToHTML(t *testing.T) {
	m := NewMarkdown()

	out, err := m.ToHTML("**Printer** is ~~fine~~ broken")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>Printer</strong>")
	assert.Contains(t, out, "<del>fine</del>")
}

func TestMarkdown_StripsScripts(t *testing.T) {
	m := NewMarkdown()

	out, err := m.ToHTML("hello <script>alert(1)</script> [x](javascript:alert(1))")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, string(m.Template("plain")), "plain")
}
