package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/page-engine/pkg/ai"
	"github.com/Sriram-PR/page-engine/pkg/browser"
	"github.com/Sriram-PR/page-engine/pkg/cache"
	"github.com/Sriram-PR/page-engine/pkg/config"
	"github.com/Sriram-PR/page-engine/pkg/control"
	"github.com/Sriram-PR/page-engine/pkg/fetch"
	"github.com/Sriram-PR/page-engine/pkg/utils"
	"github.com/Sriram-PR/page-engine/pkg/waitfor"
)

func main() {
	// --- Early Initialization & Flags ---
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel) // Default level

	configFileFlag := flag.String("config", "", "Path to YAML config file (optional)")
	backendFlag := flag.String("backend", "", "Backend override: raw, spill, or browser")
	logLevelFlag := flag.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")
	outputDirFlag := flag.String("output", "", "Directory to save fetched pages (default: print size to stdout)")
	screenshotFlag := flag.Bool("screenshot", false, "Capture and save a screenshot per page (browser backend)")
	waitSelectorFlag := flag.String("wait-selector", "", "CSS selector to wait for before capture")
	waitDelayFlag := flag.Duration("wait-delay", 0, "Fixed delay before capture")
	waitIdleFlag := flag.Bool("wait-idle", false, "Wait for network idle before capture")
	waitTimeoutFlag := flag.Duration("wait-timeout", 10*time.Second, "Bound for selector/idle waits")
	aiModelFlag := flag.String("ai-model", "", "Model for AI augmentation (empty to disable)")
	aiPromptFlag := flag.String("ai-prompt", "", "Prompt to run against each fetched page")
	flag.Parse()

	// --- Logger Configuration ---
	level, err := logrus.ParseLevel(*logLevelFlag)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", *logLevelFlag, err)
	} else {
		log.SetLevel(level)
	}

	urls := flag.Args()
	if len(urls) == 0 {
		log.Fatal("Usage: page-engine [flags] URL [URL...]")
	}

	// --- Load Application Configuration ---
	appCfg := &config.AppConfig{}
	if *configFileFlag != "" {
		log.Infof("Loading configuration from %s", *configFileFlag)
		appCfg, err = config.LoadConfig(*configFileFlag)
		if err != nil {
			log.Fatalf("Config error: %v", err)
		}
	}
	if *backendFlag != "" {
		appCfg.Backend = config.BackendMode(*backendFlag)
	}
	backend := config.GetEffectiveBackend(appCfg)
	log.Infof("Using backend: %s", backend)

	// ===========================================================
	// == Setup Global Context & Signal Handling ==
	// ===========================================================
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	crawlID := control.NewCrawlID()
	target := control.Target(crawlID, "cli")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		control.Shutdown(target)
		cancel()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	// ===========================================================
	// == Initialize Components ==
	// ===========================================================
	log.Info("Initializing components...")

	httpClient := fetch.NewClient(appCfg.HTTPClientSettings, log)

	var store *cache.Store
	if appCfg.Cache.Enabled {
		store, err = cache.NewStore(config.GetEffectiveStateDir(appCfg), logrus.NewEntry(log))
		if err != nil {
			log.Fatalf("Failed to initialize hybrid cache: %v", err)
		}
		defer store.Close()
		go store.RunGC(ctx, 10*time.Minute)
	}

	var mgr *browser.Manager
	if backend == config.BackendBrowser {
		mgr = browser.NewManager(appCfg.Browser, logrus.NewEntry(log))
		if err := mgr.Start(ctx); err != nil {
			log.Fatalf("Failed to start browser: %v", err)
		}
		defer mgr.Close()
	}

	var bridge *ai.Bridge
	if *aiModelFlag != "" {
		cfg := ai.NewConfig(*aiModelFlag, 1024, *aiPromptFlag)
		bridge, err = ai.NewBridge(cfg, waitfor.NewEngine(logrus.NewEntry(log)), logrus.NewEntry(log))
		if err != nil {
			log.Fatalf("Failed to initialize AI bridge: %v", err)
		}
	}

	engine := fetch.NewEngine(appCfg, httpClient, mgr, store, bridge, logrus.NewEntry(log))

	opts := &fetch.Options{
		WaitFor: buildWaitFor(*waitTimeoutFlag, *waitDelayFlag, *waitIdleFlag, *waitSelectorFlag),
	}
	if *screenshotFlag {
		opts.Screenshot = &browser.ScreenShotConfig{Save: true, OutputDir: appCfg.Screenshot.OutputDir}
	}

	// ===========================================================
	// == Fetch Loop ==
	// ===========================================================
	rcv := control.Subscribe()
	exitCode := 0

	for _, pageURL := range urls {
		if !awaitRunnable(ctx, rcv, target, log) {
			log.Warn("Shutdown requested, stopping")
			break
		}

		started := time.Now()
		resp := engine.Fetch(ctx, pageURL, opts)
		elapsed := time.Since(started)

		entry := log.WithFields(logrus.Fields{
			"url":     pageURL,
			"status":  resp.StatusCode,
			"bytes":   len(resp.Content),
			"elapsed": elapsed.Round(time.Millisecond),
		})
		if resp.FinalURL != "" {
			entry = entry.WithField("final_url", resp.FinalURL)
		}
		if resp.ErrorForStatus != nil {
			entry.Warnf("Fetched with HTTP error: %v", resp.ErrorForStatus)
			exitCode = 1
		} else {
			entry.Info("Fetched")
		}

		for i, usage := range resp.AICreditsUsed {
			log.Infof("AI prompt %d used %d tokens", i+1, usage.TotalTokens)
		}

		if *outputDirFlag != "" && len(resp.Content) > 0 {
			path, err := utils.OutputPath(*outputDirFlag, pageURL, ".html")
			if err == nil {
				err = os.WriteFile(path, resp.Content, 0o644)
			}
			if err != nil {
				log.Errorf("Failed to save %s: %v", pageURL, err)
				exitCode = 1
			} else {
				log.Infof("Saved %s", path)
			}
		} else if len(resp.Content) > 0 {
			fmt.Printf("%s\t%d\t%d bytes\n", pageURL, resp.StatusCode, len(resp.Content))
		}
	}

	os.Exit(exitCode)
}

// buildWaitFor assembles the readiness spec from CLI flags. Returns nil
// when no wait was requested.
func buildWaitFor(timeout, delay time.Duration, idle bool, selector string) *waitfor.WaitFor {
	selector = strings.TrimSpace(selector)
	if !idle && selector == "" && delay <= 0 {
		return nil
	}
	var d *waitfor.Delay
	if delay > 0 {
		d = waitfor.NewDelay(&delay)
	}
	return waitfor.New(&timeout, d, false, idle, selector)
}

// awaitRunnable blocks while the control bus holds a pause for the target,
// and reports whether fetching may continue.
func awaitRunnable(ctx context.Context, rcv *control.Receiver, target string, log *logrus.Logger) bool {
	for {
		entry := rcv.Latest()
		if entry.Target != target {
			return ctx.Err() == nil
		}
		switch entry.Signal {
		case control.SignalShutdown:
			return false
		case control.SignalPause:
			log.Info("Paused, waiting for resume...")
			if err := rcv.Changed(ctx); err != nil {
				return false
			}
		default:
			return ctx.Err() == nil
		}
	}
}
