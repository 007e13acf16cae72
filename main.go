package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ByLCY/redoku/auth"
	"github.com/ByLCY/redoku/document"
	"github.com/ByLCY/redoku/fonts"
	"github.com/ByLCY/redoku/layout"
	"github.com/ByLCY/redoku/server"
	"github.com/ByLCY/redoku/subscriber"
)

const defaultDatabaseURL = "sqlite:///instance/redoku.sqlite"

func main() {
	input := flag.String("in", "-", "输入文本文件路径，- 表示标准输入")
	output := flag.String("out", "output/"+server.DownloadName, "PDF 输出路径")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	fontPath := flag.String("font", os.Getenv("REDOKU_FONT"), "优先使用的 TTF 字体路径（环境变量 REDOKU_FONT）")
	backend := flag.String("renderer", document.BackendCanvas, "渲染后端：canvas 或 fpdf")
	size := flag.Float64("size", layout.DefaultFontSize, "正文字号（pt）")
	serve := flag.String("serve", "", "以 HTTP 服务方式运行的监听地址，例如 :5000")
	dbURL := flag.String("db", envOr("DATABASE_URL", defaultDatabaseURL), "订阅者数据库地址（环境变量 DATABASE_URL）")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	gen, err := document.Open(*backend, fonts.DefaultChain(*fontPath),
		document.WithFontSize(*size),
		document.WithLogger(logger),
	)
	if err != nil {
		log.Fatalf("初始化生成器失败: %v", err)
	}

	if *serve != "" {
		if err := serveHTTP(*serve, *dbURL, gen, logger); err != nil {
			log.Fatalf("服务异常退出: %v", err)
		}
		return
	}

	if err := run(*input, *output, *debug, gen); err != nil {
		log.Fatalf("生成 PDF 失败: %v", err)
	}
	fmt.Printf("已生成 PDF：%s\n", *output)
}

// run 串联读取、排版与渲染。
func run(inputPath, outputPath, debugPath string, gen *document.Generator) error {
	if gen == nil {
		return fmt.Errorf("generator 不能为空")
	}
	text, err := readInput(inputPath)
	if err != nil {
		return err
	}

	result, err := gen.Layout(text)
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	if debugPath != "" {
		if err := writeDebug(result, debugPath); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	pdfBytes, err := gen.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("读取标准输入失败: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("无法打开文本文件 %s: %w", path, err)
	}
	return string(data), nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

// serveHTTP 打开订阅者数据库并运行网页服务，收到 SIGINT/SIGTERM 时优雅退出。
func serveHTTP(addr, dbURL string, gen *document.Generator, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn := subscriber.DSN(dbURL)
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}
	store, err := subscriber.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		logger.Warn("ADMIN_PASSWORD not set, admin page disabled")
	}

	handler, err := server.New(server.Config{
		Generator:   gen,
		Subscribers: subscriber.NewService(store, logger),
		Sessions:    auth.NewSessions(password, auth.DefaultTTL),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
