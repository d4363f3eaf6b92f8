package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/sync/errgroup"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultTimeout   = 15 * time.Second
	merchantsPerCall = 40
	maxParallelCalls = 4
)

// Claude labels merchants through the Anthropic Messages API. Each call
// carries a batch of merchant names and asks for a JSON merchant→
// category mapping restricted to the known category set.
type Claude struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

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

// LabelAll classifies the merchants in parallel batches. Any batch
// failure fails the whole call; the Service falls back locally.
func (c *Claude) LabelAll(ctx context.Context, merchants []string) (map[string]string, error) {
	labels := make(map[string]string, len(merchants))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCalls)

	for start := 0; start < len(merchants); start += merchantsPerCall {
		end := start + merchantsPerCall
		if end > len(merchants) {
			end = len(merchants)
		}
		batch := merchants[start:end]
		g.Go(func() error {
			got, err := c.labelBatch(gctx, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			for m, cat := range got {
				labels[m] = cat
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return labels, nil
}

func (c *Claude) labelBatch(ctx context.Context, merchants []string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 2048,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(merchants))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude call: %w", err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return parseLabels(text.String())
}

func buildPrompt(merchants []string) string {
	var b strings.Builder
	b.WriteString("Map each merchant name to exactly one of these categories: ")
	b.WriteString(strings.Join(Categories, ", "))
	b.WriteString(".\n\nRespond ONLY with a JSON array like:\n")
	b.WriteString(`[{"merchant": "Starbucks", "category": "Dining"}]`)
	b.WriteString("\n\nMerchant names:\n")
	for _, m := range merchants {
		b.WriteString("- ")
		b.WriteString(m)
		b.WriteString("\n")
	}
	b.WriteString("\nOutput valid JSON only.")
	return b.String()
}

// parseLabels extracts the JSON array from the response, tolerating
// markdown fences around it. Labels outside the known category set are
// dropped so the keyword fallback can fill them.
func parseLabels(text string) (map[string]string, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var entries []struct {
		Merchant string `json:"merchant"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &entries); err != nil {
		return nil, fmt.Errorf("parse response JSON: %w", err)
	}

	allowed := make(map[string]struct{}, len(Categories))
	for _, c := range Categories {
		allowed[c] = struct{}{}
	}

	labels := make(map[string]string, len(entries))
	for _, e := range entries {
		cat := strings.TrimSpace(e.Category)
		if _, ok := allowed[cat]; !ok {
			continue
		}
		labels[strings.TrimSpace(e.Merchant)] = cat
	}
	return labels, nil
}
