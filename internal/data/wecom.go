package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nicwh1988/weibo-stock-alert/internal/biz/domain"
	"github.com/nicwh1988/weibo-stock-alert/internal/biz/repo"
)

const wecomTimeout = 10 * time.Second

// WeComNotifier pushes stock alerts to a WeCom group-bot webhook.
type WeComNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWeComNotifier creates a WeCom webhook notifier. An empty webhookURL is
// allowed; Push then warns and reports failure.
func NewWeComNotifier(webhookURL string, logger *zap.Logger) repo.NotifierRepo {
	return &WeComNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: wecomTimeout},
		logger:     logger,
	}
}

// 企业微信群机器人消息格式
type wecomMessage struct {
	MsgType string    `json:"msgtype"`
	Text    wecomText `json:"text"`
}

type wecomText struct {
	Content string `json:"content"`
}

type wecomResult struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Push sends a human-readable alert for the post. Success requires HTTP 200
// and errcode 0 from WeCom; there are no retries at this layer.
func (n *WeComNotifier) Push(ctx context.Context, post *domain.Post) bool {
	if n.webhookURL == "" {
		n.logger.Warn("未配置企业微信推送地址")
		return false
	}

	body, err := json.Marshal(wecomMessage{
		MsgType: "text",
		Text:    wecomText{Content: n.buildMessage(post)},
	})
	if err != nil {
		n.logger.Error("推送到企业微信失败", zap.Error(err))
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, wecomTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("推送到企业微信失败", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Error("推送到企业微信失败", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		n.logger.Error("企业微信推送失败",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)))
		return false
	}

	var result wecomResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		n.logger.Error("企业微信推送失败", zap.Error(err))
		return false
	}
	if result.ErrCode != 0 {
		n.logger.Error("企业微信推送失败",
			zap.Int("errcode", result.ErrCode),
			zap.String("errmsg", result.ErrMsg))
		return false
	}

	n.logger.Info("成功推送股票相关微博到企业微信", zap.String("id", string(post.ID)))
	return true
}

// buildMessage assembles the alert text: an optional posted-at line, the
// raw weibo text and an optional permalink.
func (n *WeComNotifier) buildMessage(post *domain.Post) string {
	var parts []string

	if post.CreatedAt != "" {
		beijing, err := toBeijingTime(post.CreatedAt)
		if err != nil {
			n.logger.Warn("时间转换失败，使用原始时间",
				zap.String("created_at", post.CreatedAt),
				zap.Error(err))
			beijing = post.CreatedAt
		}
		parts = append(parts, fmt.Sprintf("发博时间: %s", beijing))
	}

	parts = append(parts, "\n"+post.Text)

	if post.UserID != "" && post.ID != "" {
		parts = append(parts, fmt.Sprintf("\n\n链接: https://weibo.com/%s/%s", post.UserID, post.ID))
	}

	return strings.Join(parts, "")
}
