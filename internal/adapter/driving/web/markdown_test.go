package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderNotice_EmptyInput(t *testing.T) {
	assert.Equal(t, "", RenderNotice(""))
	assert.Equal(t, "", RenderNotice("  \n"))
}

func TestRenderNotice_Bold(t *testing.T) {
	result := RenderNotice("**Maintenance** on Sunday")
	assert.Contains(t, result, "<strong>Maintenance</strong>")
}

func TestRenderNotice_Link(t *testing.T) {
	result := RenderNotice("[status page](https://status.example.com)")
	assert.Contains(t, result, `href="https://status.example.com"`)
	assert.Contains(t, result, `rel="nofollow`)
	assert.Contains(t, result, `target="_blank"`)
	assert.Contains(t, result, "status page</a>")
}

func TestRenderNotice_SanitizesScript(t *testing.T) {
	result := RenderNotice(`<script>alert("xss")</script>`)
	assert.NotContains(t, result, "<script>")
}

func TestRenderNotice_SanitizesEventHandlers(t *testing.T) {
	result := RenderNotice(`<img src="x.png" onerror="alert(1)">`)
	assert.NotContains(t, result, "onerror")
}

func TestRenderNotice_GFMStrikethrough(t *testing.T) {
	result := RenderNotice("~~old plan~~")
	assert.Contains(t, result, "<del>old plan</del>")
}

func TestRenderNotice_List(t *testing.T) {
	result := RenderNotice("- reboot window\n- new kernel")
	assert.Contains(t, result, "<li>reboot window</li>")
	assert.Contains(t, result, "<li>new kernel</li>")
}
