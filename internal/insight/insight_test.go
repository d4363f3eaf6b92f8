package insight

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"losslens/internal/core"
)

func sampleView(t *testing.T) core.AggregateView {
	t.Helper()
	uber := core.Transaction{Date: core.NewDate(2024, 1, 1), Merchant: "Uber", Category: "Transport", Amount: core.Money{Cents: 2000}}
	if err := uber.Rate(1); err != nil {
		t.Fatal(err)
	}
	netflix := core.Transaction{Date: core.NewDate(2024, 1, 2), Merchant: "Netflix", Category: "Entertainment", Amount: core.Money{Cents: 1500}}
	if err := netflix.Rate(5); err != nil {
		t.Fatal(err)
	}
	return core.BuildAggregate([]core.Transaction{uber, netflix}, 5)
}

func TestLocalSummaryDeterministic(t *testing.T) {
	view := sampleView(t)
	first, err := Local{}.Generate(context.Background(), view, ModeSummary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := Local{}.Generate(context.Background(), view, ModeSummary)
	if first != second {
		t.Fatal("local summary is not deterministic")
	}
	for _, want := range []string{"Transport", "Uber", "16.00"} {
		if !strings.Contains(first, want) {
			t.Fatalf("summary %q missing %q", first, want)
		}
	}
}

func TestLocalAdviceNamesTopCategory(t *testing.T) {
	text, err := Local{}.Generate(context.Background(), sampleView(t), ModeAdvice)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Transport") {
		t.Fatalf("advice %q does not mention top regret category", text)
	}
}

func TestLocalEmptyView(t *testing.T) {
	text, err := Local{}.Generate(context.Background(), core.AggregateView{}, ModeSummary)
	if err != nil || text == "" {
		t.Fatalf("empty view: text=%q err=%v", text, err)
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, core.AggregateView, Mode) (string, error) {
	return "", errors.New("simulated timeout")
}

type emptyGenerator struct{}

func (emptyGenerator) Generate(context.Context, core.AggregateView, Mode) (string, error) {
	return "   ", nil
}

func TestServiceFallbackEquivalence(t *testing.T) {
	view := sampleView(t)
	ctx := context.Background()

	disabled := NewService(nil).Generate(ctx, view, ModeSummary)
	failing := NewService(failingGenerator{}).Generate(ctx, view, ModeSummary)
	empty := NewService(emptyGenerator{}).Generate(ctx, view, ModeSummary)

	if failing != disabled {
		t.Fatalf("failing remote output %q != disabled remote output %q", failing, disabled)
	}
	if empty != disabled {
		t.Fatalf("empty remote output %q != disabled remote output %q", empty, disabled)
	}
}

func TestServiceLogsEmptyRemoteReason(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	NewService(emptyGenerator{}).Generate(context.Background(), sampleView(t), ModeSummary)

	if !strings.Contains(buf.String(), "empty response") {
		t.Fatalf("degradation log should name the reason: %q", buf.String())
	}
}

type cannedGenerator struct{ text string }

func (g cannedGenerator) Generate(context.Context, core.AggregateView, Mode) (string, error) {
	return g.text, nil
}

func TestServicePrefersRemoteSuccess(t *testing.T) {
	got := NewService(cannedGenerator{text: "remote prose"}).
		Generate(context.Background(), sampleView(t), ModeSummary)
	if got != "remote prose" {
		t.Fatalf("got %q, want remote prose", got)
	}
}
