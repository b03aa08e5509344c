package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-rod/rod"
	log "github.com/sirupsen/logrus"
	"github.com/tiktoken-go/tokenizer"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"

	"github.com/Sriram-PR/page-engine/pkg/browser"
	"github.com/Sriram-PR/page-engine/pkg/models"
	"github.com/Sriram-PR/page-engine/pkg/utils"
	"github.com/Sriram-PR/page-engine/pkg/waitfor"
)

const (
	actionsSystemPrompt = `You are controlling a web browser on a rendered page. ` +
		`Given the page URL and HTML, respond only with valid JavaScript that performs the requested actions in the browser. ` +
		`Do not include markdown fences or commentary.`

	extraDataSystemPrompt = `Respond with a JSON object of the shape ` +
		`{"content": [], "js": "", "error": ""}. Put extracted text in content, ` +
		`any JavaScript to run in js, and a message in error if the request cannot be satisfied.`

	// Scripts at most this long that navigate the page trigger a fresh
	// document capture instead of trusting the script's return value.
	relocateScriptLimit = 400
)

// requestSlots bounds concurrent model calls process-wide.
var requestSlots = semaphore.NewWeighted(requestSlotCount())

func requestSlotCount() int64 {
	n := runtime.NumCPU()
	limit := n * n / 3
	if limit < 20 {
		limit = 20
	}
	return int64(limit)
}

// jsonResponse is the JSON-mode payload returned by the model.
type jsonResponse struct {
	Content []string `json:"content"`
	JS      string   `json:"js"`
	Error   string   `json:"error,omitempty"`
}

// Bridge runs AI augmentation requests against a configured model.
type Bridge struct {
	cfg   *Config
	llm   llms.Model
	codec tokenizer.Codec
	wait  *waitfor.Engine
	log   *log.Entry
}

// NewBridge creates a Bridge from cfg. The API key falls back to the
// client's ambient environment when unset.
func NewBridge(cfg *Config, waitEngine *waitfor.Engine, logger *log.Entry) (*Bridge, error) {
	if cfg == nil || cfg.Model == "" {
		return nil, utils.WrapErrorf(utils.ErrConfigValidation, "ai model is required")
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	opts := []openai.Option{openai.WithModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	codec, err := codecForModel(cfg.Model)
	if err != nil {
		logger.WithError(utils.WrapErrorf(utils.ErrTokenBudget, "tokenizer for %s: %v", cfg.Model, err)).
			Warn("Tokenizer unavailable, token budgeting disabled")
	}

	return &Bridge{cfg: cfg, llm: llm, codec: codec, wait: waitEngine, log: logger}, nil
}

// Augment runs the configured prompts for source against resp.Content,
// executes any returned scripts on page, and records usage and extracted
// data on resp. Augmentation never fails the fetch; problems are logged
// and surfaced through the result's Error field.
func (b *Bridge) Augment(ctx context.Context, page *rod.Page, source string, wf *waitfor.WaitFor, resp *models.PageResponse) {
	b.AugmentWith(ctx, page, source, wf, b.cfg, resp)
}

// AugmentWith is Augment with a per-fetch config override. The override
// routes through its own prompt-URL map; model and key still come from
// the bridge's client.
func (b *Bridge) AugmentWith(ctx context.Context, page *rod.Page, source string, wf *waitfor.WaitFor, override *Config, resp *models.PageResponse) {
	cfg := override.ForURL(source)
	if cfg == nil || cfg.Model == "" {
		return
	}

	ok := len(resp.Content) > 0

	for _, prompt := range cfg.Prompt {
		var answer string
		var usage models.AIUsage
		var reqErr string
		if ok {
			answer, usage, reqErr = b.request(ctx, cfg, string(resp.Content), source, prompt)
		}
		resp.AddAIUsage(usage)

		var res jsonResponse
		if cfg.ExtraAIData {
			if err := json.Unmarshal([]byte(answer), &res); err != nil {
				b.log.WithField("url", source).Debugf("%v", utils.WrapErrorf(utils.ErrParsing, "model JSON answer: %v", err))
				res = jsonResponse{Error: "An issue occured with serialization."}
			}
		} else {
			res.JS = answer
		}

		if res.JS != "" && page != nil {
			b.runScript(ctx, page, wf, res.JS, resp)
		}

		if cfg.ExtraAIData {
			var shot []byte
			if cfg.Screenshot && res.JS != "" {
				shot = b.screenshot(ctx, page, source)
			}
			contents := make([]string, 0, len(res.Content))
			for _, c := range res.Content {
				contents = append(contents, strings.TrimLeft(c, " \t\r\n"))
			}
			errText := reqErr
			if errText == "" {
				errText = res.Error
			}
			resp.AddAIResult(models.AIResult{
				Input:            prompt,
				JSOutput:         res.JS,
				ContentOutput:    contents,
				ScreenshotOutput: shot,
				Error:            errText,
			})
		}
	}
}

// request performs one bounded model call and returns the raw answer.
func (b *Bridge) request(ctx context.Context, cfg *Config, resource, source, prompt string) (string, models.AIUsage, string) {
	var usage models.AIUsage

	if err := requestSlots.Acquire(ctx, 1); err != nil {
		return "", usage, err.Error()
	}
	defer requestSlots.Release(1)

	resource, maxOut := b.fitResource(cfg, resource, prompt)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, actionsSystemPrompt),
	}
	if cfg.ExtraAIData {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, extraDataSystemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeAI, "URL: "+source+"\nHTML: "+resource))
	if prompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
	}

	opts := []llms.CallOption{
		llms.WithModel(cfg.Model),
		llms.WithMaxTokens(maxOut),
	}
	if cfg.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*cfg.Temperature))
	}
	if cfg.TopP != nil {
		opts = append(opts, llms.WithTopP(*cfg.TopP))
	}
	if cfg.ExtraAIData {
		opts = append(opts, llms.WithJSONMode())
	}

	result, err := b.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		b.log.WithError(err).WithField("url", source).Error("Model request failed")
		return "", usage, err.Error()
	}
	if len(result.Choices) == 0 {
		return "", usage, ""
	}

	choice := result.Choices[0]
	usage = usageFromInfo(choice.GenerationInfo)
	return choice.Content, usage, ""
}

// cleanLadder orders the stripping strategies from gentlest to harshest.
// Each rung feeds the next, so later rungs compound the earlier ones.
var cleanLadder = []func(string) string{CleanHTML, CleanHTMLSlim, CleanHTMLFull}

// fitResource walks the cleaning ladder, re-checking the model's context
// window after every rung, and returns the cleaned resource plus the output
// token allowance for the call. When even the harshest rung does not fit,
// its output is sent anyway.
func (b *Bridge) fitResource(cfg *Config, resource, prompt string) (string, int) {
	maxOut := cfg.MaxTokens
	if maxOut <= 0 {
		maxOut = 1024
	}

	budget := contextWindowFor(cfg.Model) - maxOut - countTokens(b.codec, actionsSystemPrompt)

	fits := func(r string) bool {
		used := countTokens(b.codec, r) + countTokens(b.codec, prompt)
		return used >= 0 && used <= budget
	}

	for _, clean := range cleanLadder {
		resource = clean(resource)
		if fits(resource) {
			break
		}
	}
	return resource, maxOut
}

// runScript executes a model-provided script on the page and refreshes the
// response content from whatever the page looks like afterwards.
func (b *Bridge) runScript(ctx context.Context, page *rod.Page, wf *waitfor.WaitFor, script string, resp *models.PageResponse) {
	wrapped := "async () => { " + script + "; return document.documentElement.outerHTML; }"
	res, err := page.Context(ctx).Eval(wrapped)
	if err != nil {
		b.log.WithError(err).Debug("Model script execution failed")
		return
	}

	if b.wait != nil {
		b.wait.Apply(ctx, page, wf)
	}

	if len(script) <= relocateScriptLimit && strings.Contains(script, "window.location") {
		if fresh, err := browser.Capture(ctx, page); err == nil {
			resp.Content = fresh
		}
		return
	}
	resp.Content = []byte(res.Value.Str())
}

func (b *Bridge) screenshot(ctx context.Context, page *rod.Page, source string) []byte {
	if page == nil {
		return nil
	}
	fullPage := true
	omit := false
	shot, err := browser.Screenshot(ctx, page, source, &browser.ScreenShotConfig{
		FullPage:       &fullPage,
		OmitBackground: &omit,
		Quality:        45,
		Bytes:          true,
	}, b.log)
	if err != nil {
		b.log.WithError(err).WithField("url", source).Error("Post-script screenshot failed")
		return nil
	}
	b.log.WithField("url", source).Debug("Took post-script screenshot")
	return shot
}

func usageFromInfo(info map[string]any) models.AIUsage {
	var u models.AIUsage
	u.PromptTokens = intFromInfo(info, "PromptTokens")
	u.CompletionTokens = intFromInfo(info, "CompletionTokens")
	u.TotalTokens = intFromInfo(info, "TotalTokens")
	return u
}

func intFromInfo(info map[string]any, key string) int {
	if info == nil {
		return 0
	}
	switch v := info[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
