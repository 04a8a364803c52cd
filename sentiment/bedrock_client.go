package sentiment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"tickerpulse/models"
	"tickerpulse/observability"
	"tickerpulse/services"
)

const breakerBedrock = services.BreakerBedrock

type claudeRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// BedrockSentimentClient analyzes article sentiment via a Claude model
// invoked through AWS Bedrock.
type BedrockSentimentClient struct {
	client           *bedrockruntime.Client
	model            string
	maxTokens        int
	anthropicVersion string
	prompts          PromptTemplates
}

func NewBedrockSentimentClient(ctx context.Context, region, modelID string, maxTokens int, anthropicVersion string) (*BedrockSentimentClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	if anthropicVersion == "" {
		anthropicVersion = "bedrock-2023-05-31"
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &BedrockSentimentClient{
		client:           bedrockruntime.NewFromConfig(cfg),
		model:            modelID,
		maxTokens:        maxTokens,
		anthropicVersion: anthropicVersion,
	}, nil
}

func (c *BedrockSentimentClient) AnalyzeSentiment(ctx context.Context, article models.Article, symbol, prompt string) (Result, error) {
	if prompt == "" {
		prompt = c.prompts.GetSentimentPrompt(article, symbol, symbol)
	}

	metrics := observability.GetMetrics()
	metrics.RecordSentimentCall("bedrock")
	timer := metrics.NewTimer()

	text, err := services.WithCircuitBreaker(ctx, breakerBedrock, func() (string, error) {
		request := claudeRequest{
			AnthropicVersion: c.anthropicVersion,
			MaxTokens:        c.maxTokens,
			System:           c.prompts.SystemPrompt(),
			Messages:         []claudeMessage{{Role: "user", Content: prompt}},
		}

		body, err := json.Marshal(request)
		if err != nil {
			return "", fmt.Errorf("marshal bedrock request: %w", err)
		}

		output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(c.model),
			Body:        body,
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrLLMUnavailable, err)
		}

		var response claudeResponse
		if err := json.Unmarshal(output.Body, &response); err != nil {
			return "", fmt.Errorf("%w: unmarshal bedrock response: %v", models.ErrLLMParseError, err)
		}
		if len(response.Content) == 0 {
			return "", fmt.Errorf("%w: empty response from bedrock", models.ErrLLMUnavailable)
		}
		return response.Content[0].Text, nil
	})

	timer.ObserveSentiment(symbol, statusFor(err))
	if err != nil {
		observability.WithProvider("bedrock").Error("sentiment call failed", "symbol", symbol, "error", err)
		return Result{}, err
	}

	return parseSentimentResponse(text)
}
