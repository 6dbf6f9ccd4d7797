package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/logging"
)

// ErrNoTextModels is returned when the text chain has no models.
var ErrNoTextModels = errors.New("no text models configured")

// TextModel generates free text from a prompt.
type TextModel interface {
	Name() string
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// TextChain tries a fixed list of text models in order, mirroring the
// vision chain: first success wins, total failure joins every error.
type TextChain struct {
	models     []TextModel
	onFallback func(model string)
	log        zerolog.Logger
}

func NewTextChain(models ...TextModel) *TextChain {
	return &TextChain{
		models: models,
		log:    logging.WithComponent("ai"),
	}
}

// OnFallback registers a hook invoked with the failing model's name
// each time the chain moves past a model.
func (c *TextChain) OnFallback(fn func(model string)) {
	c.onFallback = fn
}

// Models lists the model names in fallback order.
func (c *TextChain) Models() []string {
	names := make([]string, len(c.models))
	for i, m := range c.models {
		names[i] = m.Name()
	}
	return names
}

func (c *TextChain) Generate(ctx context.Context, prompt string) (text string, model string, err error) {
	if len(c.models) == 0 {
		return "", "", ErrNoTextModels
	}

	var failures []error
	for _, m := range c.models {
		out, err := m.GenerateText(ctx, prompt)
		if err != nil {
			c.log.Warn().Err(err).Str("model", m.Name()).Msg("text model failed, trying next")
			if c.onFallback != nil {
				c.onFallback(m.Name())
			}
			failures = append(failures, fmt.Errorf("%s: %w", m.Name(), err))
			continue
		}
		return out, m.Name(), nil
	}
	return "", "", fmt.Errorf("all text models failed: %w", errors.Join(failures...))
}

// Summarize condenses per-frame descriptions into one video synopsis.
// The numbered-frame prompt keeps models from treating the sequence as
// unrelated captions.
func (c *TextChain) Summarize(ctx context.Context, descriptions []string) (string, error) {
	var b strings.Builder
	b.WriteString("The following are descriptions of consecutive frames sampled from one video. ")
	b.WriteString("Write a single coherent paragraph summarizing what happens in the video.\n\n")
	for i, d := range descriptions {
		fmt.Fprintf(&b, "Frame %d: %s\n", i+1, d)
	}

	summary, _, err := c.Generate(ctx, b.String())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(summary), nil
}
