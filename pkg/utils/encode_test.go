package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentEncode(t *testing.T) {
	assert.Equal(t, "abcXYZ019", PercentEncode("abcXYZ019"))
	assert.Equal(t, "https%3A%2F%2Fexample%2Ecom%2Fa%20b", PercentEncode("https://example.com/a b"))
	assert.Equal(t, "", PercentEncode(""))
}

func TestPercentEncodeIsFilenameSafe(t *testing.T) {
	encoded := PercentEncode("https://example.com/path?q=1&x=../../etc")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "?")
	assert.NotContains(t, encoded, "..")
}

func TestOutputPathCreatesParent(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "out")
	p, err := OutputPath(base, "https://example.com/page", ".png")
	require.NoError(t, err)

	info, statErr := os.Stat(filepath.Dir(p))
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join(base, PercentEncode("https://example.com/page")+".png"), p)
}
