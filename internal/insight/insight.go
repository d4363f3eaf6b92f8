// Package insight turns an aggregate view into a short prose summary.
//
// Mirrors the categorizer split: a remote Claude variant and a local
// templated variant behind one contract, selected purely by whether the
// remote call succeeds.
package insight

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"losslens/internal/core"
)

// Mode selects the flavor of text to generate.
type Mode string

const (
	ModeSummary Mode = "summary"
	ModeAdvice  Mode = "advice"
)

// Generator produces a prose insight from an aggregate snapshot.
type Generator interface {
	Generate(ctx context.Context, view core.AggregateView, mode Mode) (string, error)
}

// Service wraps an optional remote generator with the local fallback.
// The fallback rule is the only branching: no configuration flag ever
// suppresses insights.
type Service struct {
	remote Generator
	local  Local
}

func NewService(remote Generator) *Service {
	return &Service{remote: remote}
}

// Generate returns a summary for the given view. It never fails: any
// remote error, including an empty response, degrades to the local
// templates.
func (s *Service) Generate(ctx context.Context, view core.AggregateView, mode Mode) string {
	if s.remote != nil {
		text, err := s.remote.Generate(ctx, view, mode)
		if err == nil {
			if strings.TrimSpace(text) != "" {
				return text
			}
			err = errors.New("empty response")
		}
		slog.WarnContext(ctx, "Remote insight generation failed, using local templates",
			"error", err, "mode", string(mode))
	}
	text, _ := s.local.Generate(ctx, view, mode)
	return text
}
