package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/nicwh1988/weibo-stock-alert/internal/biz/domain"
	"github.com/nicwh1988/weibo-stock-alert/internal/biz/repo"
)

// AnalyzerUsecase runs the classify-then-push pipeline for one post at a
// time. Not safe for concurrent use; the surrounding run loop is
// single-threaded.
type AnalyzerUsecase struct {
	enabled    bool
	classifier repo.ClassifierRepo
	notifier   repo.NotifierRepo
	delivered  repo.DeliveredRepo
	logger     *zap.Logger
}

// NewAnalyzerUsecase creates the analyzer usecase. classifier may be nil
// when classification is not configured; every post then degrades to not
// related.
func NewAnalyzerUsecase(
	enabled bool,
	classifier repo.ClassifierRepo,
	notifier repo.NotifierRepo,
	delivered repo.DeliveredRepo,
	logger *zap.Logger,
) *AnalyzerUsecase {
	return &AnalyzerUsecase{
		enabled:    enabled,
		classifier: classifier,
		notifier:   notifier,
		delivered:  delivered,
		logger:     logger,
	}
}

// AnalyzeAndPush classifies a post and pushes it to the webhook when stock
// related. The analysis result is attached onto the post; the same post
// pointer is returned. No fault escapes to the caller, every degraded path
// is logged and absorbed.
func (uc *AnalyzerUsecase) AnalyzeAndPush(ctx context.Context, post *domain.Post) *domain.Post {
	if !uc.enabled {
		return post
	}
	if post.Text == "" {
		return post
	}

	if post.ID != "" {
		seen, err := uc.delivered.Contains(ctx, string(post.ID))
		if err != nil {
			// Treat an unreadable store as "not yet delivered"; worst
			// case is one duplicate push, same as a process restart.
			uc.logger.Warn("去重存储查询失败", zap.String("id", string(post.ID)), zap.Error(err))
			seen = false
		}
		if seen {
			uc.logger.Debug("微博已经推送过，跳过", zap.String("id", string(post.ID)))
			if post.StockAnalysis == nil {
				post.StockAnalysis = &domain.StockAnalysis{
					IsStockRelated: true,
					Analysis:       domain.DuplicateAnalysis,
				}
			}
			return post
		}
	}

	related, analysis := false, ""
	if uc.classifier != nil {
		related, analysis = uc.classifier.Classify(ctx, post.Text)
	}

	post.StockAnalysis = &domain.StockAnalysis{
		IsStockRelated: related,
		Analysis:       analysis,
	}

	if related && post.ID != "" {
		if uc.notifier.Push(ctx, post) {
			if err := uc.delivered.Add(ctx, string(post.ID)); err != nil {
				// Only costs a re-classification should the same ID come
				// around again.
				uc.logger.Warn("去重存储写入失败", zap.String("id", string(post.ID)), zap.Error(err))
			} else {
				uc.logger.Info("微博推送成功，已添加到去重列表", zap.String("id", string(post.ID)))
			}
		}
	}

	return post
}
