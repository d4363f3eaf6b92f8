package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"losslens/internal/core"
)

const (
	defaultModel   = "claude-sonnet-4-5-20250929"
	defaultTimeout = 15 * time.Second
)

// Claude generates insight prose through the Anthropic Messages API,
// feeding it a structured summary of the aggregate view.
type Claude struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

var _ Generator = (*Claude)(nil)

func NewClaude(apiKey, model string, timeout time.Duration) *Claude {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Claude{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
	}
}

func (c *Claude) Generate(ctx context.Context, view core.AggregateView, mode Mode) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(view, mode))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude call: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", fmt.Errorf("empty response")
	}
	return out, nil
}

func buildPrompt(view core.AggregateView, mode Mode) string {
	var b strings.Builder

	if mode == ModeAdvice {
		b.WriteString("You are a helpful budgeting coach. Based on the data below, " +
			"give 2-3 actionable, practical tips to reduce regretful spending. " +
			"Avoid technical jargon and keep it simple.\n\n")
	} else {
		b.WriteString("You are a friendly financial reflection assistant. " +
			"Write a clear, 3-4 sentence summary of this person's spending habits and regrets " +
			"in plain, simple English.\n\n")
	}

	fmt.Fprintf(&b, "Rated purchases: %d, total spend $%s, total regret $%s.\n\n",
		view.RatedCount, view.TotalSpend.String(), view.TotalRegret.String())

	b.WriteString("Category regret totals:\n")
	for _, c := range view.ByCategory {
		fmt.Fprintf(&b, "- %s: $%s across %d purchases\n", c.Category, c.Regret.String(), c.Count)
	}

	b.WriteString("\nTop purchases (merchant | amount | happiness | regret):\n")
	for _, t := range view.Top {
		fmt.Fprintf(&b, "- %s | $%s | happiness %d | regret $%s\n",
			t.Merchant, t.Amount.String(), t.Happiness, t.Regret.String())
	}
	return b.String()
}
