package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/logging"
)

// Text analysis modes accepted by the text pipeline.
const (
	TextModeSummary   = "summary"
	TextModeSentiment = "sentiment"
	TextModeTopics    = "topics"
	TextModeInsights  = "insights"
)

var textPrompts = map[string]string{
	TextModeSummary:   "Provide a concise summary of the following text:\n\n%s",
	TextModeSentiment: "Analyze the sentiment of the following text. State whether it is positive, negative, or neutral, and briefly explain why:\n\n%s",
	TextModeTopics:    "List the main topics discussed in the following text:\n\n%s",
	TextModeInsights:  "Provide the key insights and notable observations from the following text:\n\n%s",
}

// ValidTextMode reports whether mode names a supported analysis.
func ValidTextMode(mode string) bool {
	_, ok := textPrompts[mode]
	return ok
}

// TextModes lists the supported analysis modes.
func TextModes() []string {
	return []string{TextModeSummary, TextModeSentiment, TextModeTopics, TextModeInsights}
}

// TextSource is the model fallback chain text prompts are sent to.
type TextSource interface {
	Generate(ctx context.Context, prompt string) (text string, model string, err error)
}

// TextResult is the output of one text analysis.
type TextResult struct {
	Mode     string `json:"mode"`
	Analysis string `json:"analysis"`
	Model    string `json:"model"`
}

// TextAnalyzer runs mode-specific prompts through the text chain.
type TextAnalyzer struct {
	source TextSource
	log    zerolog.Logger
}

func NewTextAnalyzer(source TextSource) *TextAnalyzer {
	return &TextAnalyzer{
		source: source,
		log:    logging.WithComponent("text"),
	}
}

func (a *TextAnalyzer) Analyze(ctx context.Context, text, mode string) (*TextResult, error) {
	template, ok := textPrompts[mode]
	if !ok {
		return nil, fmt.Errorf("unknown text analysis mode %q", mode)
	}

	out, model, err := a.source.Generate(ctx, fmt.Sprintf(template, text))
	if err != nil {
		return nil, fmt.Errorf("text analysis: %w", err)
	}

	a.log.Info().Str("mode", mode).Str("model", model).Msg("text analysis complete")
	return &TextResult{
		Mode:     mode,
		Analysis: strings.TrimSpace(out),
		Model:    model,
	}, nil
}
