package sentiment

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/tidwall/gjson"

	"tickerpulse/models"
	"tickerpulse/observability"
	"tickerpulse/services"
)

const breakerOpenAI = services.BreakerOpenAI

// chatCompleter is the subset of the OpenAI client this package depends on,
// so tests can substitute a fake.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

type openaiClientWrapper struct {
	client openai.Client
}

func (w *openaiClientWrapper) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return w.client.Chat.Completions.New(ctx, params)
}

// OpenAISentimentClient analyzes article sentiment via an OpenAI chat model.
type OpenAISentimentClient struct {
	client    chatCompleter
	model     string
	maxTokens int
	prompts   PromptTemplates
}

func NewOpenAISentimentClient(apiKey, model string, maxTokens int) (*OpenAISentimentClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAISentimentClient{
		client:    &openaiClientWrapper{client: client},
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func newOpenAISentimentClientWithChatCompleter(client chatCompleter, model string, maxTokens int) *OpenAISentimentClient {
	return &OpenAISentimentClient{client: client, model: model, maxTokens: maxTokens}
}

func (c *OpenAISentimentClient) AnalyzeSentiment(ctx context.Context, article models.Article, symbol, prompt string) (Result, error) {
	if prompt == "" {
		prompt = c.prompts.GetSentimentPrompt(article, symbol, symbol)
	}

	metrics := observability.GetMetrics()
	metrics.RecordSentimentCall("openai")
	timer := metrics.NewTimer()

	text, err := services.WithCircuitBreaker(ctx, breakerOpenAI, func() (string, error) {
		params := openai.ChatCompletionNewParams{
			Model:     shared.ChatModel(c.model),
			MaxTokens: openai.Int(int64(c.maxTokens)),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(c.prompts.SystemPrompt()),
				openai.UserMessage(prompt),
			},
		}

		completion, err := c.client.CreateChatCompletion(ctx, params)
		if err != nil {
			return "", fmt.Errorf("%w: %v", models.ErrLLMUnavailable, err)
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("%w: empty response from openai", models.ErrLLMUnavailable)
		}
		return completion.Choices[0].Message.Content, nil
	})

	timer.ObserveSentiment(symbol, statusFor(err))
	if err != nil {
		observability.WithProvider("openai").Error("sentiment call failed", "symbol", symbol, "error", err)
		return Result{}, err
	}

	return parseSentimentResponse(text)
}

func statusFor(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// parseSentimentResponse extracts the sentiment_score/sentiment_label/
// confidence/reasoning object from the raw model reply. gjson tolerates a
// reply wrapped in prose or a markdown code fence (it just needs the
// JSON object substring to be well-formed), which is the common failure
// mode of chat completions asked to "return JSON". Only when no recognisable
// JSON object is present at all does this fall back to a bare regex scan.
func parseSentimentResponse(raw string) (Result, error) {
	if obj, ok := extractJSONObject(raw); ok {
		result := gjson.Parse(obj)
		if result.Get("sentiment_score").Exists() {
			return parseSentimentJSON(result), nil
		}
	}
	return regexFallback(raw)
}

func extractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

func parseSentimentJSON(result gjson.Result) Result {
	score := result.Get("sentiment_score").Float()
	label := models.SentimentLabel(strings.ToLower(result.Get("sentiment_label").String()))
	if label == "" {
		label = models.LabelForScore(score)
	}
	confidence := result.Get("confidence").Float()
	return Result{
		Score:      clamp(score, -1, 1),
		Label:      label,
		Confidence: clamp(confidence, 0, 1),
		Reasoning:  result.Get("reasoning").String(),
	}
}

var (
	scoreRe      = regexp.MustCompile(`(?i)"?sentiment_score"?\s*[:=]\s*(-?[0-9]*\.?[0-9]+)`)
	labelRe      = regexp.MustCompile(`(?i)"?sentiment_label"?\s*[:=]\s*"?(positive|neutral|negative)"?`)
	confidenceRe = regexp.MustCompile(`(?i)"?confidence"?\s*[:=]\s*([0-9]*\.?[0-9]+)`)
)

func regexFallback(raw string) (Result, error) {
	scoreMatch := scoreRe.FindStringSubmatch(raw)
	if scoreMatch == nil {
		return Result{}, fmt.Errorf("%w: could not extract sentiment from response", models.ErrLLMParseError)
	}
	score, err := strconv.ParseFloat(scoreMatch[1], 64)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", models.ErrLLMParseError, err)
	}

	confidence := 0.5
	if m := confidenceRe.FindStringSubmatch(raw); m != nil {
		if parsed, err := strconv.ParseFloat(m[1], 64); err == nil {
			confidence = parsed
		}
	}

	label := models.LabelForScore(score)
	if m := labelRe.FindStringSubmatch(raw); m != nil {
		label = models.SentimentLabel(strings.ToLower(m[1]))
	}

	return Result{Score: score, Label: label, Confidence: confidence, Reasoning: "extracted via regex fallback"}, nil
}
