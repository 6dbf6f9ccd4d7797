package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockClient wraps one Bedrock model behind the Describer interface.
// Credentials come from the standard AWS credential chain.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

func NewBedrockClient(ctx context.Context, region, modelID string) (*BedrockClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &BedrockClient{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: modelID,
	}, nil
}

func (c *BedrockClient) Name() string {
	return c.modelID
}

func (c *BedrockClient) DescribeImage(ctx context.Context, imageData []byte, format string, prompt string) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberImage{
						Value: types.ImageBlock{
							Format: imageFormat(format),
							Source: &types.ImageSourceMemberBytes{Value: imageData},
						},
					},
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(1024),
		},
	}

	resp, err := c.client.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("bedrock converse (%s): %w", c.modelID, err)
	}

	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("bedrock returned unexpected output type %T", resp.Output)
	}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok && text.Value != "" {
			return text.Value, nil
		}
	}
	return "", fmt.Errorf("bedrock response from %s contained no text", c.modelID)
}

func (c *BedrockClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens: aws.Int32(1024),
		},
	}

	resp, err := c.client.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("bedrock converse (%s): %w", c.modelID, err)
	}

	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("bedrock returned unexpected output type %T", resp.Output)
	}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok && text.Value != "" {
			return text.Value, nil
		}
	}
	return "", fmt.Errorf("bedrock response from %s contained no text", c.modelID)
}

func imageFormat(format string) types.ImageFormat {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "png":
		return types.ImageFormatPng
	case "gif":
		return types.ImageFormatGif
	case "webp":
		return types.ImageFormatWebp
	default:
		return types.ImageFormatJpeg
	}
}
