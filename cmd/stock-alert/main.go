package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nicwh1988/weibo-stock-alert/internal/biz/domain"
	"github.com/nicwh1988/weibo-stock-alert/internal/biz/repo"
	"github.com/nicwh1988/weibo-stock-alert/internal/biz/usecase"
	"github.com/nicwh1988/weibo-stock-alert/internal/conf"
	"github.com/nicwh1988/weibo-stock-alert/internal/data"
	"github.com/nicwh1988/weibo-stock-alert/internal/logging"
	"github.com/nicwh1988/weibo-stock-alert/zhipu"
)

// Reads the crawler's JSONL post stream, classifies each post for stock
// relevance and pushes matches to the WeCom webhook. Annotated posts are
// written back out as JSONL.

var (
	cfgPath    string
	inputPath  string
	outputPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stock-alert",
		Short: "微博股票内容识别和企业微信推送",
		Long: `stock-alert consumes a JSONL stream of crawled weibo posts,
classifies each post for stock relevance with Zhipu GLM and pushes
matches to a WeCom group-bot webhook, deduplicating by post ID.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "YAML config file")
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSONL input file (default stdin)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "JSONL output file (default stdout)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// 加载 .env 文件
	_ = godotenv.Load()

	cfg, err := conf.Load(cfgPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	delivered, closeStore, err := buildDeliveredStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var client *zhipu.Client
	if cfg.Stock.Enabled && cfg.Stock.ZhipuAPIKey != "" {
		client = zhipu.NewClient(zhipu.Config{
			APIKey:     cfg.Stock.ZhipuAPIKey,
			Model:      cfg.Stock.Model,
			BaseURL:    cfg.Stock.APIBase,
			MaxRetries: cfg.Stock.MaxRetries,
		}, logger)
	}

	analyzer := usecase.NewAnalyzerUsecase(
		cfg.Stock.Enabled,
		data.NewZhipuRepo(client),
		data.NewWeComNotifier(cfg.Stock.WebhookURL, logger),
		delivered,
		logger,
	)

	if cfg.Stock.Enabled {
		logger.Info("股票内容识别器初始化完成",
			zap.String("model", cfg.Stock.Model),
			zap.String("webhook_url", cfg.Stock.WebhookURL),
			zap.String("dedup_store", cfg.Stock.DedupStore))
	} else {
		logger.Info("股票内容识别器未启用")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, out, closeIO, err := openStreams()
	if err != nil {
		return err
	}
	defer closeIO()

	return process(ctx, analyzer, in, out, logger)
}

// process runs every post through the pipeline sequentially. Malformed
// lines are logged and skipped, never fatal.
func process(ctx context.Context, analyzer *usecase.AnalyzerUsecase, in io.Reader, out io.Writer, logger *zap.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	writer := bufio.NewWriter(out)
	defer writer.Flush()

	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)

	for scanner.Scan() {
		if ctx.Err() != nil {
			logger.Info("收到退出信号，停止处理")
			return nil
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var post domain.Post
		if err := json.Unmarshal(line, &post); err != nil {
			logger.Warn("跳过无法解析的输入行", zap.Error(err))
			continue
		}

		analyzer.AnalyzeAndPush(ctx, &post)

		if err := encoder.Encode(&post); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func buildDeliveredStore(cfg *conf.Config, logger *zap.Logger) (repo.DeliveredRepo, func(), error) {
	switch cfg.Stock.DedupStore {
	case conf.StoreSQLite:
		store, err := data.NewSQLiteDelivered(cfg.Stock.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	case conf.StoreRedis:
		store, err := data.NewRedisDelivered(cfg.Stock.Redis.Addr, cfg.Stock.Redis.Password, cfg.Stock.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return data.NewMemoryDelivered(), func() {}, nil
	}
}

func openStreams() (io.Reader, io.Writer, func(), error) {
	var (
		in      io.Reader = os.Stdin
		out     io.Writer = os.Stdout
		closers []io.Closer
	)

	if inputPath != "" {
		f, err := os.Open(inputPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open input: %w", err)
		}
		in = f
		closers = append(closers, f)
	}
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, nil, nil, fmt.Errorf("create output: %w", err)
		}
		out = f
		closers = append(closers, f)
	}

	return in, out, func() {
		for _, c := range closers {
			c.Close()
		}
	}, nil
}
