package repo

import (
	"context"

	"github.com/nicwh1988/weibo-stock-alert/internal/biz/domain"
)

// NotifierRepo delivers a formatted alert for a post.
type NotifierRepo interface {
	// Push returns true only on an acknowledged delivery.
	Push(ctx context.Context, post *domain.Post) bool
}
