package usecase

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/nicwh1988/weibo-stock-alert/internal/biz/domain"
)

type fakeClassifier struct {
	calls    int
	related  bool
	analysis string
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (bool, string) {
	f.calls++
	return f.related, f.analysis
}

type fakeNotifier struct {
	calls int
	ok    bool
}

func (f *fakeNotifier) Push(ctx context.Context, post *domain.Post) bool {
	f.calls++
	return f.ok
}

type fakeDelivered struct {
	ids map[string]struct{}
}

func newFakeDelivered(ids ...string) *fakeDelivered {
	f := &fakeDelivered{ids: make(map[string]struct{})}
	for _, id := range ids {
		f.ids[id] = struct{}{}
	}
	return f
}

func (f *fakeDelivered) Contains(ctx context.Context, id string) (bool, error) {
	_, ok := f.ids[id]
	return ok, nil
}

func (f *fakeDelivered) Add(ctx context.Context, id string) error {
	f.ids[id] = struct{}{}
	return nil
}

func newTestAnalyzer(enabled bool, c *fakeClassifier, n *fakeNotifier, d *fakeDelivered) *AnalyzerUsecase {
	return NewAnalyzerUsecase(enabled, c, n, d, zap.NewNop())
}

func TestAnalyzeAndPushDisabled(t *testing.T) {
	classifier := &fakeClassifier{related: true, analysis: "相关"}
	notifier := &fakeNotifier{ok: true}
	uc := newTestAnalyzer(false, classifier, notifier, newFakeDelivered())

	post := &domain.Post{ID: "1", Text: "茅台涨停"}
	uc.AnalyzeAndPush(context.Background(), post)

	if post.StockAnalysis != nil {
		t.Error("disabled pipeline must not attach analysis")
	}
	if classifier.calls != 0 || notifier.calls != 0 {
		t.Errorf("disabled pipeline invoked classifier %d times, notifier %d times", classifier.calls, notifier.calls)
	}
}

func TestAnalyzeAndPushEmptyText(t *testing.T) {
	classifier := &fakeClassifier{related: true}
	uc := newTestAnalyzer(true, classifier, &fakeNotifier{}, newFakeDelivered())

	post := &domain.Post{ID: "1"}
	uc.AnalyzeAndPush(context.Background(), post)

	if post.StockAnalysis != nil {
		t.Error("empty-text post must not get analysis attached")
	}
	if classifier.calls != 0 {
		t.Errorf("classifier invoked %d times for empty text", classifier.calls)
	}
}

func TestAnalyzeAndPushAlreadyDelivered(t *testing.T) {
	classifier := &fakeClassifier{related: true, analysis: "相关"}
	notifier := &fakeNotifier{ok: true}
	uc := newTestAnalyzer(true, classifier, notifier, newFakeDelivered("5112233"))

	post := &domain.Post{ID: "5112233", Text: "茅台涨停"}
	uc.AnalyzeAndPush(context.Background(), post)

	if classifier.calls != 0 || notifier.calls != 0 {
		t.Errorf("short-circuit invoked classifier %d times, notifier %d times", classifier.calls, notifier.calls)
	}
	if post.StockAnalysis == nil {
		t.Fatal("sentinel analysis should be attached")
	}
	if !post.StockAnalysis.IsStockRelated || post.StockAnalysis.Analysis != domain.DuplicateAnalysis {
		t.Errorf("sentinel = %+v", post.StockAnalysis)
	}
}

func TestAnalyzeAndPushAlreadyDeliveredKeepsExistingAnalysis(t *testing.T) {
	uc := newTestAnalyzer(true, &fakeClassifier{}, &fakeNotifier{}, newFakeDelivered("1"))

	existing := &domain.StockAnalysis{IsStockRelated: true, Analysis: "相关，茅台"}
	post := &domain.Post{ID: "1", Text: "茅台涨停", StockAnalysis: existing}
	uc.AnalyzeAndPush(context.Background(), post)

	if post.StockAnalysis != existing {
		t.Error("existing analysis must not be overwritten by the sentinel")
	}
}

func TestAnalyzeAndPushRelatedDelivers(t *testing.T) {
	classifier := &fakeClassifier{related: true, analysis: "相关，茅台"}
	notifier := &fakeNotifier{ok: true}
	delivered := newFakeDelivered()
	uc := newTestAnalyzer(true, classifier, notifier, delivered)

	post := &domain.Post{ID: "5112233", Text: "茅台涨停"}
	uc.AnalyzeAndPush(context.Background(), post)

	if notifier.calls != 1 {
		t.Errorf("notifier invoked %d times, want 1", notifier.calls)
	}
	if seen, _ := delivered.Contains(context.Background(), "5112233"); !seen {
		t.Error("id should be recorded after acknowledged delivery")
	}

	// A repeat call short-circuits on the sentinel rule.
	repeat := &domain.Post{ID: "5112233", Text: "茅台涨停"}
	uc.AnalyzeAndPush(context.Background(), repeat)
	if classifier.calls != 1 || notifier.calls != 1 {
		t.Errorf("repeat call invoked classifier %d times, notifier %d times, want 1 each", classifier.calls, notifier.calls)
	}
	if repeat.StockAnalysis == nil || repeat.StockAnalysis.Analysis != domain.DuplicateAnalysis {
		t.Errorf("repeat analysis = %+v", repeat.StockAnalysis)
	}
}

func TestAnalyzeAndPushFailedDeliveryNotRecorded(t *testing.T) {
	notifier := &fakeNotifier{ok: false}
	delivered := newFakeDelivered()
	uc := newTestAnalyzer(true, &fakeClassifier{related: true, analysis: "相关"}, notifier, delivered)

	post := &domain.Post{ID: "1", Text: "茅台涨停"}
	uc.AnalyzeAndPush(context.Background(), post)

	if notifier.calls != 1 {
		t.Errorf("notifier invoked %d times, want 1", notifier.calls)
	}
	if seen, _ := delivered.Contains(context.Background(), "1"); seen {
		t.Error("id must not be recorded when delivery failed")
	}
}

func TestAnalyzeAndPushNotRelated(t *testing.T) {
	notifier := &fakeNotifier{ok: true}
	uc := newTestAnalyzer(true, &fakeClassifier{related: false, analysis: "不相关"}, notifier, newFakeDelivered())

	post := &domain.Post{ID: "1", Text: "今天天气不错"}
	uc.AnalyzeAndPush(context.Background(), post)

	if notifier.calls != 0 {
		t.Errorf("notifier invoked %d times for unrelated post", notifier.calls)
	}
	if post.StockAnalysis == nil || post.StockAnalysis.IsStockRelated {
		t.Errorf("analysis = %+v, want attached not-related result", post.StockAnalysis)
	}
	if post.StockAnalysis.Analysis != "不相关" {
		t.Errorf("analysis text = %q", post.StockAnalysis.Analysis)
	}
}

func TestAnalyzeAndPushRelatedWithoutID(t *testing.T) {
	notifier := &fakeNotifier{ok: true}
	uc := newTestAnalyzer(true, &fakeClassifier{related: true, analysis: "相关"}, notifier, newFakeDelivered())

	post := &domain.Post{Text: "茅台涨停"}
	uc.AnalyzeAndPush(context.Background(), post)

	if notifier.calls != 0 {
		t.Errorf("notifier invoked %d times for post without id", notifier.calls)
	}
	if post.StockAnalysis == nil || !post.StockAnalysis.IsStockRelated {
		t.Errorf("analysis = %+v, want attached related result", post.StockAnalysis)
	}
}

func TestAnalyzeAndPushNilClassifier(t *testing.T) {
	notifier := &fakeNotifier{ok: true}
	uc := NewAnalyzerUsecase(true, nil, notifier, newFakeDelivered(), zap.NewNop())

	post := &domain.Post{ID: "1", Text: "茅台涨停"}
	uc.AnalyzeAndPush(context.Background(), post)

	if post.StockAnalysis == nil {
		t.Fatal("analysis should still be attached when classification is unconfigured")
	}
	if post.StockAnalysis.IsStockRelated || post.StockAnalysis.Analysis != "" {
		t.Errorf("analysis = %+v, want (false, \"\")", post.StockAnalysis)
	}
	if notifier.calls != 0 {
		t.Errorf("notifier invoked %d times", notifier.calls)
	}
}
