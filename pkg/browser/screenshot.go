package browser

import (
	"context"
	"os"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"

	"github.com/Sriram-PR/page-engine/pkg/config"
	"github.com/Sriram-PR/page-engine/pkg/utils"
)

// ScreenShotConfig describes a per-fetch screenshot request. Unset
// pointer fields fall back to environment variables, then to true.
type ScreenShotConfig struct {
	FullPage       *bool
	OmitBackground *bool
	Format         string              // png, jpeg, or webp; empty means png
	Quality        int                 // Compression quality 0-100, jpeg/webp only
	Clip           *proto.PageViewport // Capture a region instead of the viewport
	FromSurface    bool                // Capture from the surface rather than the view
	BeyondViewport bool                // Capture beyond the viewport
	Bytes          bool                // Return the capture on the response
	Save           bool                // Persist the capture under OutputDir
	OutputDir      string              // Falls back to SCREENSHOT_DIRECTORY, then ./storage/
}

// Screenshot captures the page per cfg. When cfg.Save is set the file is
// written under the resolved output directory, named after the
// percent-encoded page URL. The bytes are returned when cfg.Bytes is set.
func Screenshot(ctx context.Context, page *rod.Page, pageURL string, cfg *ScreenShotConfig, logger *log.Entry) ([]byte, error) {
	if cfg == nil {
		return nil, nil
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	scoped := page.Context(ctx)

	if config.ResolveScreenshotOmitBackground(cfg.OmitBackground) {
		alpha := 0.0
		override := proto.EmulationSetDefaultBackgroundColorOverride{
			Color: &proto.DOMRGBA{R: 0, G: 0, B: 0, A: &alpha},
		}
		if err := override.Call(scoped); err != nil {
			logger.WithError(err).Debug("Transparent background override failed")
		} else {
			defer func() {
				_ = proto.EmulationSetDefaultBackgroundColorOverride{}.Call(scoped)
			}()
		}
	}

	fullPage := config.ResolveScreenshotFullPage(cfg.FullPage)
	data, err := scoped.Screenshot(fullPage, captureParams(cfg))
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrScreenshot, "capturing %s: %v", pageURL, err)
	}

	if cfg.Save {
		dir := config.ResolveScreenshotDir(cfg.OutputDir)
		path, err := utils.OutputPath(dir, pageURL, fileExtension(cfg.Format))
		if err != nil {
			logger.WithError(err).Warn("Could not prepare screenshot path")
		} else if err := os.WriteFile(path, data, 0o644); err != nil {
			logger.WithError(err).WithField("path", path).Warn("Could not save screenshot")
		} else {
			logger.WithField("path", path).Debug("Screenshot saved")
		}
	}

	if !cfg.Bytes {
		return nil, nil
	}
	return data, nil
}

// captureParams translates a ScreenShotConfig into the CDP capture request.
// Quality only applies to lossy formats; the protocol rejects it for png.
func captureParams(cfg *ScreenShotConfig) *proto.PageCaptureScreenshot {
	req := &proto.PageCaptureScreenshot{
		Format:                proto.PageCaptureScreenshotFormatPng,
		Clip:                  cfg.Clip,
		FromSurface:           cfg.FromSurface,
		CaptureBeyondViewport: cfg.BeyondViewport,
	}
	switch strings.ToLower(cfg.Format) {
	case "jpeg", "jpg":
		req.Format = proto.PageCaptureScreenshotFormatJpeg
	case "webp":
		req.Format = proto.PageCaptureScreenshotFormatWebp
	}
	if cfg.Quality > 0 && req.Format != proto.PageCaptureScreenshotFormatPng {
		q := cfg.Quality
		req.Quality = &q
	}
	return req
}

func fileExtension(format string) string {
	switch strings.ToLower(format) {
	case "jpeg", "jpg":
		return ".jpeg"
	case "webp":
		return ".webp"
	default:
		return ".png"
	}
}
