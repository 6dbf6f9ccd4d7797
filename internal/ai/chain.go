package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medialens/medialens/internal/logging"
)

// Chain tries a fixed list of vision providers in order and returns
// the first successful description along with the model that produced
// it. All failures are joined into the returned error when every
// provider fails.
type Chain struct {
	describers []Describer
	onFallback func(model string)
	log        zerolog.Logger
}

func NewChain(describers ...Describer) *Chain {
	return &Chain{
		describers: describers,
		log:        logging.WithComponent("ai"),
	}
}

// OnFallback registers a hook invoked with the failing model's name
// each time the chain moves past a provider.
func (c *Chain) OnFallback(fn func(model string)) {
	c.onFallback = fn
}

// Providers lists the model names in fallback order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.describers))
	for i, d := range c.describers {
		names[i] = d.Name()
	}
	return names
}

func (c *Chain) DescribeImage(ctx context.Context, imageData []byte, format string, prompt string) (description string, model string, err error) {
	if len(c.describers) == 0 {
		return "", "", ErrNoDescribers
	}

	var failures []error
	for _, d := range c.describers {
		desc, err := d.DescribeImage(ctx, imageData, format, prompt)
		if err != nil {
			c.log.Warn().Err(err).Str("model", d.Name()).Msg("vision provider failed, trying next")
			if c.onFallback != nil {
				c.onFallback(d.Name())
			}
			failures = append(failures, fmt.Errorf("%s: %w", d.Name(), err))
			continue
		}
		return desc, d.Name(), nil
	}
	return "", "", fmt.Errorf("all vision providers failed: %w", errors.Join(failures...))
}
