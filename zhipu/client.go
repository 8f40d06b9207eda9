package zhipu

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	zhipuBaseURL = "https://open.bigmodel.cn/api/paas/v4"

	// DefaultModel is used when the config leaves the model empty.
	DefaultModel = "glm-4-flash"

	// DefaultMaxRetries is the total number of API attempts per classification.
	DefaultMaxRetries = 3

	requestTimeout = 30 * time.Second
)

// NotRelatedMarker is the literal reply token the model is instructed to
// produce for non-stock content. Relevance is decided by a substring match
// against it, see IsRelated.
const NotRelatedMarker = "不相关"

const classifySystemPrompt = "你是一个专业的股票内容识别助手。"

const classifyPromptTemplate = `请判断以下微博内容是否与股票、证券、投资相关。
如果相关，请简要说明涉及的股票信息（如股票代码、公司名称、投资观点等）；
如果不相关，只回复"不相关"。

微博内容：
%s

请直接回答，不要有多余的解释。`

// Config holds the Zhipu client settings.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string // defaults to the Zhipu open platform endpoint
	MaxRetries int
}

// Client is the Zhipu GLM API client using the OpenAI-compatible interface.
type Client struct {
	client     *openai.Client
	model      string
	maxRetries int
	logger     *zap.Logger
}

// NewClient creates a new Zhipu client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = zhipuBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &Client{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// IsRelated reports whether a model reply classifies the content as stock
// related. Any reply containing the exact "不相关" token counts as not
// related; everything else counts as related.
func IsRelated(reply string) bool {
	return !strings.Contains(reply, NotRelatedMarker)
}

// Classify judges whether the weibo text concerns stocks, securities or
// investment. It retries immediately on any transport or API fault, up to
// maxRetries attempts total, and returns the last error once exhausted.
func (c *Client) Classify(ctx context.Context, text string) (bool, string, error) {
	prompt := fmt.Sprintf(classifyPromptTemplate, text)

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		analysis, err := c.chat(ctx, classifySystemPrompt, prompt)
		if err != nil {
			lastErr = err
			c.logger.Error("股票内容识别失败",
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		related := IsRelated(analysis)
		c.logger.Info("股票识别结果",
			zap.Bool("related", related),
			zap.String("analysis", analysis))
		return related, analysis, nil
	}

	return false, "", fmt.Errorf("classify: %d attempts failed: %w", c.maxRetries, lastErr)
}

func (c *Client) chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.3, // 降低温度以获得更确定的结果
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
