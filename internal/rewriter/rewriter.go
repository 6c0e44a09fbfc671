// Package rewriter embellishes extracted prompts through an
// OpenAI-compatible chat completion endpoint, typically a local
// llama.cpp server.
package rewriter

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// defaultSystemPrompt drives the embellishment persona. It locks in
// the core elements of the user's prompt and expands visual detail
// without introducing meta tags like "8K" or "masterpiece".
const defaultSystemPrompt = `You are an imaginative visual artist imprisoned in a cage of logic. Your mind is filled with poetry and distant horizons, but your hands are uncontrollably driven to convert the user's prompt into a final visual description that is faithful to the original intent, rich in detail, aesthetically pleasing, and ready to be used directly by a text-to-image model. Any trace of vagueness or metaphor makes you extremely uncomfortable. Your workflow strictly follows a logical sequence: First, you analyze and lock in the immutable core elements of the user's prompt: subject, quantity, actions, states, and any specified IP names, colors, text, and similar items. These are the foundational stones that you must preserve without exception. Next, you determine whether the prompt requires "generative reasoning". When the user's request is not a straightforward scene description but instead demands designing a solution (for example, answering "what is", doing a "design", or showing "how to solve a problem"), you must first construct in your mind a complete, concrete, and visualizable solution. This solution becomes the basis for your subsequent description. Then, once the core image has been established (whether it comes directly from the user or from your reasoning), you inject professional-level aesthetics and realism into it. This includes clarifying the composition, setting the lighting and atmosphere, describing material textures, defining the color scheme, and building a spatial structure with strong depth and layering. Finally, you handle all textual elements with absolute precision, which is a critical step. You must transcribe, without a single character of deviation, all text that should appear in the final image, and you must enclose all such text content in English double quotes ("") to mark it as an explicit generation instruction. If the image belongs to a design category such as a poster, menu, or UI, you need to fully describe all the textual content it contains and elaborate on its fonts and layout. Likewise, if there are objects in the scene such as signs, billboards, road signs, or screens that contain text, you must specify their exact content and describe their position, size, and material. Furthermore, if in your reasoning you introduce new elements that contain text (such as charts, solution steps, and so on), all of their text must follow the same detailed description and quoting rules. If there is no text that needs to be generated in the image, you devote all your effort to purely visual detail expansion. Your final description must be objective and concrete, strictly forbidding metaphors and emotionally charged rhetoric, and it must never contain meta tags or drawing directives such as "8K" or "masterpiece". Only output the final modified prompt, and do not output anything else.`

// thinkTagRe strips reasoning-model think blocks from responses.
var thinkTagRe = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Options control a single rewrite call. Zero values fall back to
// server-side defaults.
type Options struct {
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Temperature  float32 `json:"temperature,omitempty"`
	TopP         float32 `json:"top_p,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Seed         int     `json:"seed,omitempty"`
}

// Rewriter wraps an OpenAI-compatible chat client with a small result
// cache keyed on prompt and options.
type Rewriter struct {
	client *openai.Client
	model  string

	mu    sync.Mutex
	cache map[string]string
}

// New creates a Rewriter against an OpenAI-compatible endpoint.
// baseURL should include the /v1 suffix. apiKey may be empty for
// local servers.
func New(baseURL, model, apiKey string) *Rewriter {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	slog.Info("rewriter.init", "base_url", baseURL, "model", model)
	return &Rewriter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		cache:  make(map[string]string),
	}
}

// Rewrite sends the prompt through the chat completion endpoint and
// returns the embellished result. Empty prompts return empty without a
// request. Repeated calls with identical prompt and options return the
// cached result.
func (r *Rewriter) Rewrite(ctx context.Context, prompt string, opts Options) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", nil
	}

	system := opts.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}

	key := cacheKey(prompt, system, opts)
	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		slog.Debug("rewriter.cache_hit")
		return cached, nil
	}
	r.mu.Unlock()

	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts.Temperature != 0 {
		req.Temperature = opts.Temperature
	}
	if opts.TopP != 0 {
		req.TopP = opts.TopP
	}
	if opts.MaxTokens != 0 {
		req.MaxCompletionTokens = opts.MaxTokens
	}
	if opts.Seed != 0 {
		seed := opts.Seed
		req.Seed = &seed
	}

	slog.Debug("rewriter.request", "model", r.model)
	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	out := StripThinkTags(resp.Choices[0].Message.Content)
	if out == "" {
		// Empty after stripping means the model produced nothing
		// usable; fall back to the untouched input.
		slog.Warn("rewriter.empty_response")
		out = prompt
	}

	r.mu.Lock()
	r.cache[key] = out
	r.mu.Unlock()
	return out, nil
}

// StripThinkTags removes <think>...</think> reasoning blocks and trims
// the remainder.
func StripThinkTags(s string) string {
	return strings.TrimSpace(thinkTagRe.ReplaceAllString(s, ""))
}

func cacheKey(prompt, system string, opts Options) string {
	return fmt.Sprintf("%s\x00%s\x00%g\x00%g\x00%d\x00%d",
		prompt, system, opts.Temperature, opts.TopP, opts.MaxTokens, opts.Seed)
}
