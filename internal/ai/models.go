package ai

import (
	"context"
	"errors"
)

const (
	// Bedrock model identifiers for the default vision chain.
	ModelNovaPro  = "amazon.nova-pro-v1:0"
	ModelNovaLite = "amazon.nova-lite-v1:0"

	DefaultImagePrompt = "Describe this image in detail. Include the setting, any people or " +
		"objects present, visible text, colors, and the overall mood or context."

	DefaultFramePrompt = "Describe what is happening in this video frame. Focus on the scene, " +
		"any people or objects, actions in progress, and visible text."
)

// ErrNoDescribers is returned by a chain configured with no providers.
var ErrNoDescribers = errors.New("no vision providers configured")

// Describer produces a natural-language description for a single image.
// Implementations wrap one concrete model.
type Describer interface {
	Name() string
	DescribeImage(ctx context.Context, imageData []byte, format string, prompt string) (string, error)
}
