package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/signal"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
)

// OpenAIAdvisor asks a chat-completions model for a trading opinion and
// reduces the reply to the narrow numeric contract the aggregator
// consumes: a recommendation string for the trace and a confidence in
// [-1,1]. The engine's determinism never depends on the text.
type OpenAIAdvisor struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIAdvisor creates an advisor. The HTTP client timeout is a
// backstop; the per-bar deadline comes from the aggregator's context.
func NewOpenAIAdvisor(apiKey string) *OpenAIAdvisor {
	return &OpenAIAdvisor{
		apiKey:  apiKey,
		model:   defaultModel,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithModel overrides the model name.
func (a *OpenAIAdvisor) WithModel(model string) *OpenAIAdvisor {
	a.model = model
	return a
}

// WithBaseURL overrides the endpoint, for proxies and tests.
func (a *OpenAIAdvisor) WithBaseURL(url string) *OpenAIAdvisor {
	a.baseURL = url
	return a
}

// Advise requests an opinion for the bar. Any transport, API or parse
// failure is returned as an error; the aggregator records it in the
// signal breakdown and degrades the bar.
func (a *OpenAIAdvisor) Advise(ctx context.Context, sc signal.AdvisoryContext) (signal.Advice, error) {
	prompt := buildPrompt(sc)

	payload := map[string]interface{}{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": 0,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return signal.Advice{}, fmt.Errorf("failed to encode advisory request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(body))
	if err != nil {
		return signal.Advice{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return signal.Advice{}, fmt.Errorf("advisory request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return signal.Advice{}, fmt.Errorf("failed to read advisory response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return signal.Advice{}, fmt.Errorf("advisory API returned status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	return parseAdvice(raw)
}

const systemPrompt = "You are a crypto trading advisor. Reply with a single JSON object: " +
	`{"recommendation": "<one sentence>", "confidence": <number in [-1,1], positive = long, negative = short>}. ` +
	"No other text."

func buildPrompt(sc signal.AdvisoryContext) string {
	indicators, _ := json.Marshal(sc.Indicators)
	return fmt.Sprintf("Symbol: %s\nBar time: %s\nClose: %.4f\nIndicator scores: %s",
		sc.Symbol, sc.BarTime.Format(time.RFC3339), sc.Close, indicators)
}

// parseAdvice extracts the JSON contract from the completion text. The
// model occasionally wraps the object in prose or code fences; gjson
// tolerates both as long as a confidence number is present.
func parseAdvice(raw []byte) (signal.Advice, error) {
	content := gjson.GetBytes(raw, "choices.0.message.content")
	if !content.Exists() {
		return signal.Advice{}, fmt.Errorf("advisory response missing completion content")
	}

	text := content.String()
	confidence := gjson.Get(text, "confidence")
	if !confidence.Exists() {
		// Retry against the first embedded JSON object, for fenced replies.
		if start := bytes.IndexByte([]byte(text), '{'); start >= 0 {
			if end := bytes.LastIndexByte([]byte(text), '}'); end > start {
				inner := text[start : end+1]
				confidence = gjson.Get(inner, "confidence")
				text = inner
			}
		}
	}
	if !confidence.Exists() {
		return signal.Advice{}, fmt.Errorf("advisory reply has no numeric confidence: %s", truncate(text, 200))
	}

	conf := confidence.Float()
	if conf > 1 {
		conf = 1
	} else if conf < -1 {
		conf = -1
	}

	return signal.Advice{
		Recommendation: gjson.Get(text, "recommendation").String(),
		Confidence:     conf,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
