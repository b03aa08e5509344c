package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiktoken-go/tokenizer"
)

const ladderHTML = `<html><head><script>evil()</script><style>p{}</style></head>` +
	`<body><nav>menu</nav><p class="x" onclick="no()">hi</p><svg>s</svg><footer>f</footer></body></html>`

func TestFitResourceStopsAtFirstFittingRung(t *testing.T) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	require.NoError(t, err)
	b := &Bridge{codec: codec}

	cfg := &Config{Model: "gpt-4o", MaxTokens: 256}
	out, maxOut := b.fitResource(cfg, ladderHTML, "extract the text")

	assert.Equal(t, 256, maxOut)
	assert.Equal(t, CleanHTML(ladderHTML), out)
}

func TestFitResourceFallsToMostStripped(t *testing.T) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	require.NoError(t, err)
	b := &Bridge{codec: codec}

	// Leave essentially no room for the resource: every rung fails the
	// budget check and the harshest output is sent regardless.
	cfg := &Config{Model: "gpt-4", MaxTokens: 8190}
	out, _ := b.fitResource(cfg, ladderHTML, "extract the text")

	assert.Equal(t, CleanHTMLFull(CleanHTMLSlim(CleanHTML(ladderHTML))), out)
	assert.NotContains(t, out, "<nav>")
	assert.NotContains(t, out, "onclick")
}

func TestFitResourceDefaultsMaxTokens(t *testing.T) {
	b := &Bridge{}
	_, maxOut := b.fitResource(&Config{Model: "gpt-4o"}, "<p>x</p>", "")
	assert.Equal(t, 1024, maxOut)
}
