package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"cryptodash/internal/dashboard"
	"cryptodash/internal/logger"
	"cryptodash/internal/metrics"
)

// Insight asks an OpenAI-compatible chat endpoint (the Hugging Face router
// by default) for a short personalized daily insight.
type Insight struct {
	client *openai.Client
	model  string
}

func NewInsight(token, baseURL, model string, httpClient *http.Client) *Insight {
	in := &Insight{model: model}
	if token == "" {
		return in
	}
	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	in.client = openai.NewClientWithConfig(cfg)
	return in
}

func (in *Insight) Fetch(ctx context.Context, prof dashboard.Profile) dashboard.Payload {
	if in.client == nil {
		metrics.ProviderFetch("ai", metrics.OutcomeFallback)
		return in.payload("AI insight unavailable (missing Hugging Face token).", "")
	}

	resp, err := in.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: in.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: insightPrompt(prof)},
		},
		Temperature: 0.7,
		MaxTokens:   180,
	})
	if err != nil {
		logger.Warn("insight fetch failed", logger.ErrorField(err))
		metrics.ProviderFetch("ai", metrics.OutcomeFallback)
		return in.payload("AI insight unavailable (provider error).", describeError(err))
	}

	var text string
	if len(resp.Choices) > 0 {
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if text == "" {
		metrics.ProviderFetch("ai", metrics.OutcomeFallback)
		return in.payload("AI insight unavailable (empty response).", "")
	}

	metrics.ProviderFetch("ai", metrics.OutcomeOK)
	return in.payload(text, "")
}

func (in *Insight) payload(text, errText string) dashboard.InsightPayload {
	return dashboard.InsightPayload{Text: text, Source: "huggingface", Model: in.model, Error: errText}
}

func insightPrompt(p dashboard.Profile) string {
	investor := p.InvestorType
	if investor == "" {
		investor = "crypto investor"
	}
	assets := "general crypto"
	if len(p.Assets) > 0 {
		assets = strings.Join(p.Assets, ", ")
	}
	content := "market news"
	if len(p.ContentTypes) > 0 {
		content = strings.Join(p.ContentTypes, ", ")
	}

	return "Write ONE short daily crypto insight (2-4 sentences). " +
		"Be practical and NOT financial advice. " +
		"User type: " + investor + ". " +
		"Interested assets: " + assets + ". " +
		"Preferred content: " + content + ". " +
		"Include one simple risk-management tip."
}

func describeError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%d: %s", apiErr.HTTPStatusCode, truncate(apiErr.Message, 500))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("%d: %s", reqErr.HTTPStatusCode, truncate(reqErr.Error(), 500))
	}
	return truncate(err.Error(), 200)
}
