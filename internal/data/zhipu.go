package data

import (
	"context"

	"github.com/nicwh1988/weibo-stock-alert/internal/biz/repo"
	"github.com/nicwh1988/weibo-stock-alert/zhipu"
)

// zhipuRepo implements the stock classifier on the Zhipu client.
type zhipuRepo struct {
	client *zhipu.Client
}

// NewZhipuRepo creates a Zhipu classifier repository. Returns nil when no
// client is configured (feature disabled or missing API key), which the
// usecase treats as a permanent not-related fast path.
func NewZhipuRepo(client *zhipu.Client) repo.ClassifierRepo {
	if client == nil {
		return nil
	}
	return &zhipuRepo{client: client}
}

// Classify judges whether the text is stock related. Exhausted retries
// degrade to (false, "").
func (r *zhipuRepo) Classify(ctx context.Context, text string) (bool, string) {
	related, analysis, err := r.client.Classify(ctx, text)
	if err != nil {
		return false, ""
	}
	return related, analysis
}
