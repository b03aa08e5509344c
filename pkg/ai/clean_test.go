package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const samplePage = `<html><head>
<meta name="description" content="docs">
<meta name="robots" content="noindex">
<link rel="stylesheet" href="/app.css">
<style>body { color: red; }</style>
</head><body>
<!-- build marker -->
<script>evil()</script>
<div id="ad-banner">buy now</div>
<p>hi</p>
<img src="data:image/png;base64,AAAA">
<svg><circle r="1"/></svg>
<nav><a href="/">home</a></nav>
<footer>bye</footer>
</body></html>`

func TestCleanHTMLStripsScriptsAndAds(t *testing.T) {
	out := CleanHTML(samplePage)

	assert.NotContains(t, out, "evil()")
	assert.NotContains(t, out, "color: red")
	assert.NotContains(t, out, "app.css")
	assert.NotContains(t, out, "buy now")
	assert.NotContains(t, out, "build marker")
	assert.NotContains(t, out, "noindex")
	assert.Contains(t, out, "<p>hi</p>")
	assert.Contains(t, out, "docs")
}

func TestCleanHTMLSlimDropsMediaAndInlineImages(t *testing.T) {
	out := CleanHTMLSlim(samplePage)

	assert.NotContains(t, out, "data:image")
	assert.NotContains(t, out, "<svg")
	assert.Contains(t, out, "<p>hi</p>")
}

func TestCleanHTMLFullDropsChromeAndAttributes(t *testing.T) {
	in := `<html><body><nav>menu</nav><div class="main" style="color:blue" data-ref="x" onclick="go()">text</div><footer>f</footer></body></html>`
	out := CleanHTMLFull(in)

	assert.NotContains(t, out, "<nav")
	assert.NotContains(t, out, "<footer")
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "color:blue")
	assert.Contains(t, out, `class="main"`)
	assert.Contains(t, out, `data-ref="x"`)
	assert.Contains(t, out, "text")
}

func TestCleanHTMLMalformedInputComesBack(t *testing.T) {
	in := "<p>unterminated"
	out := CleanHTML(in)
	assert.Contains(t, out, "unterminated")
}

func TestCleanLadderShrinksMonotonically(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 50; i++ {
		b.WriteString(`<div class="row" style="margin:0" aria-label="row"><script>t()</script><p>content</p></div>`)
	}
	b.WriteString("</body></html>")

	base := CleanHTML(b.String())
	slim := CleanHTMLSlim(base)
	full := CleanHTMLFull(slim)

	assert.LessOrEqual(t, len(slim), len(base))
	assert.LessOrEqual(t, len(full), len(slim))
	assert.Contains(t, full, "content")
}
