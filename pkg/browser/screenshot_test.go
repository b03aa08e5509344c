package browser

import (
	"testing"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureParamsDefaultsToPng(t *testing.T) {
	req := captureParams(&ScreenShotConfig{})
	assert.Equal(t, proto.PageCaptureScreenshotFormatPng, req.Format)
	assert.Nil(t, req.Quality)
	assert.Nil(t, req.Clip)
	assert.False(t, req.CaptureBeyondViewport)
}

func TestCaptureParamsQualityAppliesToLossyFormatsOnly(t *testing.T) {
	req := captureParams(&ScreenShotConfig{Format: "jpeg", Quality: 45})
	assert.Equal(t, proto.PageCaptureScreenshotFormatJpeg, req.Format)
	require.NotNil(t, req.Quality)
	assert.Equal(t, 45, *req.Quality)

	req = captureParams(&ScreenShotConfig{Format: "webp", Quality: 80})
	assert.Equal(t, proto.PageCaptureScreenshotFormatWebp, req.Format)
	require.NotNil(t, req.Quality)
	assert.Equal(t, 80, *req.Quality)

	// The protocol rejects quality for png captures.
	req = captureParams(&ScreenShotConfig{Quality: 45})
	assert.Equal(t, proto.PageCaptureScreenshotFormatPng, req.Format)
	assert.Nil(t, req.Quality)
}

func TestCaptureParamsClipAndSurface(t *testing.T) {
	clip := &proto.PageViewport{X: 10, Y: 20, Width: 300, Height: 200, Scale: 1}
	req := captureParams(&ScreenShotConfig{
		Clip:           clip,
		FromSurface:    true,
		BeyondViewport: true,
	})
	assert.Equal(t, clip, req.Clip)
	assert.True(t, req.FromSurface)
	assert.True(t, req.CaptureBeyondViewport)
}

func TestFileExtensionFollowsFormat(t *testing.T) {
	assert.Equal(t, ".png", fileExtension(""))
	assert.Equal(t, ".png", fileExtension("png"))
	assert.Equal(t, ".jpeg", fileExtension("jpg"))
	assert.Equal(t, ".jpeg", fileExtension("jpeg"))
	assert.Equal(t, ".webp", fileExtension("webp"))
}
